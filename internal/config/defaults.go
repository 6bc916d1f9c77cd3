package config

const (
	defaultManifestFile          = "~/packwatch/manifest.csv"
	defaultLogDir                = "~/.local/share/packwatch/logs"
	defaultVideoDir              = "~/.local/share/packwatch/evidence"
	defaultCameraDevice          = "/dev/video0"
	defaultCameraWidth           = 1280
	defaultCameraHeight          = 720
	defaultCameraFPS             = 30.0
	defaultStabilitySeconds      = 2.0
	defaultPostScanBufferSeconds = 3.0
	defaultMinFreeSpaceGiB       = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ManifestFile: defaultManifestFile,
			LogDir:       defaultLogDir,
			VideoDir:     defaultVideoDir,
		},
		Camera: Camera{
			Device:  defaultCameraDevice,
			Width:   defaultCameraWidth,
			Height:  defaultCameraHeight,
			FPS:     defaultCameraFPS,
			Display: true,
		},
		Scanner: Scanner{
			StabilitySeconds:      defaultStabilitySeconds,
			PostScanBufferSeconds: defaultPostScanBufferSeconds,
			MinFreeSpaceGiB:       defaultMinFreeSpaceGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
