package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/tgross03/backpy/internal/core"
)

// formatForArchive derives the format from an archive file name.
func formatForArchive(path string) (core.Format, error) {
	for _, f := range core.Formats() {
		if strings.HasSuffix(path, f.Extension()) {
			return f, nil
		}
	}
	return "", fmt.Errorf("cannot determine archive format of %q", path)
}

// clampLevel forces level into [min, max], substituting def for non-positive
// input.
func clampLevel(level, min, max, def int) int {
	if level <= 0 {
		return def
	}
	if level < min {
		return min
	}
	if level > max {
		return max
	}
	return level
}

// newCompressor wraps w with the compressor for a tar-based format.
func newCompressor(format core.Format, level int, w io.Writer) (io.WriteCloser, error) {
	switch format {
	case core.FormatTarGz:
		return gzip.NewWriterLevel(w, clampLevel(level, gzip.BestSpeed, gzip.BestCompression, gzip.DefaultCompression))
	case core.FormatTarBz2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: clampLevel(level, bzip2.BestSpeed, bzip2.BestCompression, bzip2.DefaultCompression)})
	case core.FormatTarXz:
		return xz.NewWriter(w)
	case core.FormatTarZst:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	return nil, fmt.Errorf("format %q is not tar-based", format)
}

// newDecompressor wraps r with the decompressor for a tar-based format.
// The returned closer must be closed after reading.
func newDecompressor(format core.Format, r io.Reader) (io.ReadCloser, error) {
	switch format {
	case core.FormatTarGz:
		return gzip.NewReader(r)
	case core.FormatTarBz2:
		return bzip2.NewReader(r, nil)
	case core.FormatTarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case core.FormatTarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	}
	return nil, fmt.Errorf("format %q is not tar-based", format)
}
