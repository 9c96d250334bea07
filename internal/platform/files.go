package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Directory naming
const (
	DownloadsDirName = "Downloads"
	JobDirPrefix     = "YouTube_"
	FallbackDir      = "/tmp/downloads"
)

// EnsureDir creates dirPath and its parents and fails if it exists as a file
func EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		return err
	}
	info, err := os.Stat(dirPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dirPath)
	}
	return nil
}

// JobOutputDir returns the private output directory of a job
func JobOutputDir(downloadsDir, jobID string) string {
	return filepath.Join(downloadsDir, JobDirPrefix+jobID)
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	// Android keeps user downloads on external storage
	if runtime.GOOS == "android" || os.Getenv("ANDROID_DATA") != "" {
		return "/sdcard/Download", nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, DownloadsDirName), nil
}

// DefaultDownloadsDir resolves the home Downloads directory, falling back to
// FallbackDir when no home directory is available
func DefaultDownloadsDir() string {
	dir, err := GetHomeDownloadsDir()
	if err != nil {
		return FallbackDir
	}
	return dir
}

// RemoveAll deletes every path, ignoring ones that are already gone
func RemoveAll(paths ...string) error {
	var firstErr error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.RemoveAll(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
