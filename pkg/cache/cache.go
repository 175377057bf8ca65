// Package cache saves and restores TeX Live installations across runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/chainguard-dev/clog"
	"github.com/dustin/go-humanize"
	"github.com/wolfi-dev/setup-texlive/pkg/tar"
)

// DefaultDirectory holds the archives of the FS cache.
var DefaultDirectory = filepath.Join(xdg.CacheHome, "setup-texlive")

const ext = ".tar.gz"

// Service stores directory trees under keys.
type Service interface {
	// Restore unpacks the entry stored under key into dir. When there is
	// none, the newest entry whose key starts with one of restoreKeys is
	// used. The key of the restored entry is returned; it is empty on a
	// miss.
	Restore(ctx context.Context, key string, restoreKeys []string, dir string) (string, error)
	// Save stores dir under key.
	Save(ctx context.Context, key, dir string) error
}

// FS is a Service keeping gzip tarballs in a local directory.
type FS struct {
	Dir string
}

// NewFS returns an FS rooted at dir, or DefaultDirectory if dir is empty.
func NewFS(dir string) *FS {
	if dir == "" {
		dir = DefaultDirectory
	}
	return &FS{Dir: dir}
}

func (c *FS) path(key string) string {
	return filepath.Join(c.Dir, key+ext)
}

func (c *FS) Restore(ctx context.Context, key string, restoreKeys []string, dir string) (string, error) {
	log := clog.FromContext(ctx)

	hit, err := c.lookup(key, restoreKeys)
	if err != nil {
		return "", err
	}
	if hit == "" {
		log.Infof("no cache entry found for %s", key)
		return "", nil
	}

	f, err := os.Open(c.path(hit))
	if err != nil {
		return "", fmt.Errorf("opening cache entry %s: %w", hit, err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Infof("restoring %s (%s) to %s", hit, humanize.Bytes(uint64(fi.Size())), dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := tar.Untar(f, dir); err != nil {
		return "", fmt.Errorf("restoring cache entry %s: %w", hit, err)
	}
	return hit, nil
}

// lookup finds the key of the entry to restore, or "".
func (c *FS) lookup(key string, restoreKeys []string) (string, error) {
	if _, err := os.Stat(c.path(key)); err == nil {
		return key, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking cache entry %s: %w", key, err)
	}

	entries, err := os.ReadDir(c.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading cache directory: %w", err)
	}

	for _, prefix := range restoreKeys {
		var (
			best    string
			bestMod int64
		)
		for _, e := range entries {
			name, ok := strings.CutSuffix(e.Name(), ext)
			if !ok || e.IsDir() || !strings.HasPrefix(name, prefix) {
				continue
			}
			fi, err := e.Info()
			if err != nil {
				continue
			}
			if mod := fi.ModTime().UnixNano(); best == "" || mod > bestMod {
				best, bestMod = name, mod
			}
		}
		if best != "" {
			return best, nil
		}
	}
	return "", nil
}

func (c *FS) Save(ctx context.Context, key, dir string) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.Dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tar.Tar(tmp, dir); err != nil {
		tmp.Close()
		return fmt.Errorf("archiving %s: %w", dir, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return fmt.Errorf("storing cache entry %s: %w", key, err)
	}

	if fi, err := os.Stat(c.path(key)); err == nil {
		clog.FromContext(ctx).Infof("saved %s to cache (%s)", key, humanize.Bytes(uint64(fi.Size())))
	}
	return nil
}
