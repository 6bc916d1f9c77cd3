package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"packwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ManifestFile = filepath.Join(base, "orders.csv")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.VideoDir = filepath.Join(base, "evidence")
	cfgVal.Paths.SocketPath = filepath.Join(base, "logs", "packwatchd.sock")
	cfgVal.Camera.Display = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := cfgVal.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithStabilitySeconds overrides the hold-to-confirm dwell on the test config.
func WithStabilitySeconds(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scanner.StabilitySeconds = seconds
	}
}

// WithManifest writes CSV content to the config's manifest path.
func WithManifest(content string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.WriteFile(b.cfg.Paths.ManifestFile, []byte(content), 0o644); err != nil {
			b.t.Fatalf("write manifest: %v", err)
		}
	}
}
