package loader

import (
	"context"
	"fmt"
	"os"
	"time"
)

// FileLoader reads a supergraph SDL from a local path, re-reading it only
// when its mtime advances.
type FileLoader struct {
	AbsolutePath string
	PollInterval time.Duration // informational for a caller's ticker; Load itself always stats fresh

	lastModTime time.Time
	loadedOnce  bool
}

// Load stats AbsolutePath and, if its mtime advanced since the previous
// successful load (or this is the first load), reads and returns it.
func (f *FileLoader) Load(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(f.AbsolutePath)
	if err != nil {
		return nil, fmt.Errorf("loader: stat %s: %w", f.AbsolutePath, err)
	}

	if f.loadedOnce && !info.ModTime().After(f.lastModTime) {
		return Unchanged{}, nil
	}

	data, err := os.ReadFile(f.AbsolutePath)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", f.AbsolutePath, err)
	}

	f.lastModTime = info.ModTime()
	f.loadedOnce = true
	return Changed{SDL: string(data)}, nil
}
