package fsatomic

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ponpaku/creators-file-manager/internal/pathnorm"
)

// Trasher is the opaque "move to recycle bin" collaborator. Implementations
// return nil on success or a structured error.
type Trasher interface {
	Trash(path string) error
}

// DefaultTrasher uses the freedesktop trash layout on Linux. Other
// platforms report an error until a platform integration is injected.
func DefaultTrasher() Trasher {
	return &osTrasher{}
}

type osTrasher struct{}

func (t *osTrasher) Trash(path string) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("trash is not supported on %s without a platform integration", runtime.GOOS)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("locate trash directory: %w", err)
	}
	trashDir := filepath.Join(home, ".local", "share", "Trash")
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	if err := os.MkdirAll(filesDir, 0700); err != nil {
		return fmt.Errorf("create trash directory: %w", err)
	}
	if err := os.MkdirAll(infoDir, 0700); err != nil {
		return fmt.Errorf("create trash directory: %w", err)
	}

	name := filepath.Base(path)
	target := filepath.Join(filesDir, name)
	for n := 1; pathnorm.Exists(target); n++ {
		target = filepath.Join(filesDir, fmt.Sprintf("%s.%d", name, n))
	}

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		path, time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, filepath.Base(target)+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0600); err != nil {
		return fmt.Errorf("write trash info: %w", err)
	}
	if _, err := MoveReplace(path, target); err != nil {
		os.Remove(infoPath)
		return fmt.Errorf("move to trash: %w", err)
	}
	return nil
}
