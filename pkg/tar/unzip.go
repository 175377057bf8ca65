package tar

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Unzip extracts a zip archive read from src into dst. zip needs random
// access, so src is spooled to a temporary file first.
func Unzip(src io.Reader, dst string) error {
	f, err := os.CreateTemp("", "unzip-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	size, err := io.Copy(f, src)
	if err != nil {
		return fmt.Errorf("spooling archive: %w", err)
	}
	zr, err := zip.NewReader(f, size)
	if err != nil {
		return err
	}

	for _, entry := range zr.File {
		target, err := sanitizeArchivePath(dst, entry.Name)
		if err != nil {
			return err
		}
		if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
			return err
		}
		if err := unzipFile(entry, target); err != nil {
			return err
		}
	}
	return nil
}

func unzipFile(entry *zip.File, target string) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := entry.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	// G110: Potential DoS vulnerability via decompression bomb
	for {
		_, err := io.CopyN(out, rc, 1024*1024)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			out.Close()
			return err
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", target, err)
	}
	return nil
}
