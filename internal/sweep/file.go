package sweep

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/RMahshie/tscmscan/pkg/models"
)

// ParseFile opens path and parses it. Files ending in .gz or .zst are
// decompressed on the fly. Malformed input errors carry the path.
func ParseFile(path string, opts Options) ([]models.SweepRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open sweep log: %w", err)
	}
	defer f.Close()

	r, closeFn, err := decompress(path, f)
	if err != nil {
		return nil, &models.MalformedInputError{Path: path, Reason: err.Error()}
	}
	defer closeFn()

	rows, err := Parse(r, opts)
	if err != nil {
		var malformed *models.MalformedInputError
		if errors.As(err, &malformed) {
			malformed.Path = path
		}
		return nil, err
	}

	return rows, nil
}

func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid gzip stream: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}
