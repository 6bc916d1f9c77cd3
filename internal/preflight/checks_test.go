package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"packwatch/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckManifestReadable_OK(t *testing.T) {
	f := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(f, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckManifestReadable(f)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckManifestReadable_Missing(t *testing.T) {
	result := CheckManifestReadable(filepath.Join(t.TempDir(), "orders.csv"))
	if result.Passed {
		t.Fatal("expected failure for missing manifest")
	}
}

func TestCheckManifestReadable_Directory(t *testing.T) {
	result := CheckManifestReadable(t.TempDir())
	if result.Passed {
		t.Fatal("expected failure for directory path")
	}
}

func TestCheckFreeSpace_ZeroFloorPasses(t *testing.T) {
	result := CheckFreeSpace(t.TempDir(), 0)
	if !result.Passed {
		t.Fatalf("expected pass with zero floor, got: %s", result.Detail)
	}
}

func TestCheckFreeSpace_MissingPath(t *testing.T) {
	result := CheckFreeSpace(filepath.Join(t.TempDir(), "nope"), 1)
	if result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckCameraDevice_Missing(t *testing.T) {
	result := CheckCameraDevice(filepath.Join(t.TempDir(), "video9"))
	if result.Passed {
		t.Fatal("expected failure for missing device node")
	}
}

func TestCheckCameraDevice_Present(t *testing.T) {
	f := filepath.Join(t.TempDir(), "video0")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckCameraDevice(f)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRun_MinimalConfig(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "video0")
	if err := os.WriteFile(dev, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(manifest, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Paths.ManifestFile = manifest
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.VideoDir = t.TempDir()
	cfg.Scanner.MinFreeSpaceGiB = 0
	cfg.Camera.Device = dev

	results := Run(&cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}
