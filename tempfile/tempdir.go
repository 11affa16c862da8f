package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// spoolTempDirName is the subdirectory used when falling back to the
// home or working directory.
const spoolTempDirName = ".spooled-tmp"

var (
	diskPreferredDir string
	memoryAllowedDir string
	dirDiscoveryOnce sync.Once
)

// GetTempDir returns the directory a temporary file should be created in.
// A non-empty dir is returned as is when it is usable (it exists as a directory
// or does not exist yet and may be created). Otherwise a directory discovered
// once per process is returned: with preferDiskBacked, traditionally disk backed
// locations such as /var/tmp are tried before the OS temp dir, which may be tmpfs.
func GetTempDir(dir string, preferDiskBacked bool) string {
	if dir != "" && isDirectoryUsable(dir) {
		return dir
	}
	dirDiscoveryOnce.Do(discoverDirectories)
	if preferDiskBacked {
		return diskPreferredDir
	}
	return memoryAllowedDir
}

func discoverDirectories() {
	osTemp := os.TempDir()
	var fallbacks []string
	if home, err := os.UserHomeDir(); err == nil {
		fallbacks = append(fallbacks, filepath.Join(home, spoolTempDirName))
	}
	if wd, err := os.Getwd(); err == nil {
		fallbacks = append(fallbacks, filepath.Join(wd, spoolTempDirName))
	}

	memoryAllowed := append([]string{osTemp}, fallbacks...)
	diskPreferred := append(diskBackedCandidates(), memoryAllowed...)

	memoryAllowedDir = firstUsable(memoryAllowed, osTemp)
	diskPreferredDir = firstUsable(diskPreferred, osTemp)
}

// diskBackedCandidates lists directories more likely to live on disk than in memory.
func diskBackedCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/var/tmp", "/private/var/tmp"}
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		return []string{"/var/tmp"}
	default:
		// windows temp dirs are disk backed already
		return nil
	}
}

func firstUsable(candidates []string, fallback string) string {
	for _, c := range candidates {
		if isDirectoryUsable(c) {
			return c
		}
	}
	return fallback
}

// isDirectoryUsable reports whether dir is an existing directory or does not exist yet.
// Writability is only checked when the file is actually created.
func isDirectoryUsable(dir string) bool {
	stat, err := os.Stat(dir)
	if err != nil {
		return os.IsNotExist(err)
	}
	return stat.IsDir()
}
