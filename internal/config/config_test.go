package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"packwatch/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "packwatch", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.ManifestFile != filepath.Join(tempHome, "packwatch", "manifest.csv") {
		t.Fatalf("unexpected manifest path: %q", cfg.Paths.ManifestFile)
	}
	if cfg.Paths.SocketPath != filepath.Join(wantLogs, "packwatchd.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.Paths.SocketPath)
	}
	if cfg.Camera.Device != "/dev/video0" {
		t.Fatalf("unexpected camera device: %q", cfg.Camera.Device)
	}
	if cfg.Scanner.StabilitySeconds != 2.0 {
		t.Fatalf("unexpected stability threshold: %v", cfg.Scanner.StabilitySeconds)
	}
	if cfg.Scanner.PostScanBufferSeconds != 3.0 {
		t.Fatalf("unexpected post-scan buffer: %v", cfg.Scanner.PostScanBufferSeconds)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.VideoDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadReadsFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
manifest_file = "` + filepath.Join(dir, "orders.csv") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
video_dir = "` + filepath.Join(dir, "evidence") + `"

[camera]
device = " /dev/video2 "

[scanner]
stability_seconds = 1.5

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Camera.Device != "/dev/video2" {
		t.Fatalf("expected trimmed camera device, got %q", cfg.Camera.Device)
	}
	if cfg.Scanner.StabilitySeconds != 1.5 {
		t.Fatalf("unexpected stability threshold: %v", cfg.Scanner.StabilitySeconds)
	}
	if cfg.Scanner.PostScanBufferSeconds != 3.0 {
		t.Fatalf("expected default post-scan buffer, got %v", cfg.Scanner.PostScanBufferSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased logging settings, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "negative stability",
			body: "[scanner]\nstability_seconds = -1.0\n",
			want: "stability_seconds",
		},
		{
			name: "bad log format",
			body: "[logging]\nformat = \"xml\"\n",
			want: "logging.format",
		},
		{
			name: "bad fps",
			body: "[camera]\nfps = 999.0\n",
			want: "camera.fps",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Scanner.StabilitySeconds != 2.0 {
		t.Fatalf("sample should carry defaults, got stability %v", cfg.Scanner.StabilitySeconds)
	}
}
