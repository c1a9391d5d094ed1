package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

// Saver stores an encoded file and returns the path it was written to.
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// DirSaver writes files into Dir, creating it if needed. Dir may start with
// "~".
type DirSaver struct {
	Dir string
}

// Save implements Saver.
func (d DirSaver) Save(name string, data []byte) (string, error) {
	dir, err := homedir.Expand(d.Dir)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", d.Dir, err)
	}
	if dir == "" {
		return "", fmt.Errorf("no download directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// TempSaver writes into the OS temporary directory.
func TempSaver() DirSaver {
	return DirSaver{Dir: os.TempDir()}
}

// DefaultDownloadDir is ~/Downloads when it exists, otherwise the home
// directory.
func DefaultDownloadDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return os.TempDir()
	}
	downloads := filepath.Join(home, "Downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		return downloads
	}
	return home
}

// Filename builds "<prefix>-<yyyymmdd-hhmmss>.png" for t.
func Filename(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = "hat-photo"
	}
	return fmt.Sprintf("%s-%s.png", prefix, t.Format("20060102-150405"))
}
