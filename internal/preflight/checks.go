package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"packwatch/internal/config"
)

// Result captures one preflight check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckManifestReadable verifies the order export exists and is readable. A
// missing manifest is reported but not fatal: the daemon starts with an empty
// manifest and every scan classifies as not-found, matching the original
// operator workflow.
func CheckManifestReadable(path string) Result {
	const name = "Manifest"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the evidence directory has at least minGiB free.
func CheckFreeSpace(path string, minGiB int) Result {
	const name = "Evidence space"
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeBytes := stat.Bavail * uint64(stat.Bsize)
	freeGiB := float64(freeBytes) / (1 << 30)
	if freeBytes < uint64(minGiB)<<30 {
		return Result{Name: name, Detail: fmt.Sprintf("%.1f GiB free, need %d GiB", freeGiB, minGiB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%.1f GiB free", freeGiB)}
}

// CheckCameraDevice verifies the capture device node exists. The actual open
// happens later; this catches the unplugged-camera case with a clear message.
func CheckCameraDevice(device string) Result {
	const name = "Camera"
	if _, err := os.Stat(device); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: device not present)", device)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", device, err)}
	}
	return Result{Name: name, Passed: true, Detail: device}
}

// Run executes every startup check for the configuration. Only the directory
// and free-space checks are fatal; the caller decides how to treat the rest.
func Run(cfg *config.Config) []Result {
	results := []Result{
		CheckManifestReadable(cfg.Paths.ManifestFile),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Evidence directory", cfg.Paths.VideoDir),
		CheckFreeSpace(cfg.Paths.VideoDir, cfg.Scanner.MinFreeSpaceGiB),
		CheckCameraDevice(cfg.Camera.Device),
	}
	return results
}
