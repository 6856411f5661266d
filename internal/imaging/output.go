package imaging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/ai-tools/internal/pipeline"
)

// maxSuffix bounds the "-N" suffixes tried before giving up on a free name.
const maxSuffix = 9999

// OutputPath returns where a file named name should be written in dir.
//
// With overwrite set the plain dir/name is returned. Otherwise an existing
// file is never replaced: "photo.jpg" becomes "photo-1.jpg", "photo-2.jpg",
// and so on until a free name is found.
func OutputPath(dir, name string, overwrite bool) (string, error) {
	path := filepath.Join(dir, name)
	if overwrite {
		return path, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i <= maxSuffix; i++ {
		if i > 0 {
			path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to check output path: %w", err)
		}
	}
	return "", fmt.Errorf("no free output name for %s in %s", name, dir)
}

// WriteResult writes res into dir as {BaseName}.{ext} and returns the path
// written. The directory is created if needed.
func WriteResult(dir string, res *pipeline.Result, overwrite bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path, err := OutputPath(dir, res.Filename(), overwrite)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	return path, nil
}

// WriteFile writes raw bytes under dir/name, following the same naming rules
// as WriteResult.
func WriteFile(dir, name string, data []byte, overwrite bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path, err := OutputPath(dir, name, overwrite)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	return path, nil
}

// IsImageFile reports whether a filename has an extension the pipeline can
// decode.
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}
