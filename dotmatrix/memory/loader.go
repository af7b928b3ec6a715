package memory

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// ErrEmptyArchive is returned when a compressed ROM archive has no files.
var ErrEmptyArchive = errors.New("archive contains no files")

// LoadFile reads a ROM or boot image from disk, decompressing it based on
// the file extension (.gz, .xz, .zst, .lz4, .br). Archives (.zip, .7z) yield
// their first file.
func LoadFile(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Decompress(filepath.Ext(filename), data)
}

// Decompress unpacks data according to a file extension. Unknown extensions
// are returned as is.
func Decompress(ext string, data []byte) ([]byte, error) {
	var decoder io.Reader
	var err error

	switch strings.ToLower(ext) {
	case ".gz":
		decoder, err = gzip.NewReader(bytes.NewReader(data))
	case ".xz":
		decoder, err = xz.NewReader(bytes.NewReader(data))
	case ".zst":
		var d *zstd.Decoder
		if d, err = zstd.NewReader(bytes.NewReader(data)); err == nil {
			decoder = d.IOReadCloser()
		}
	case ".lz4":
		decoder = lz4.NewReader(bytes.NewReader(data))
	case ".br":
		decoder = brotli.NewReader(bytes.NewReader(data))
	case ".zip":
		var r *zip.Reader
		if r, err = zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
			if len(r.File) == 0 {
				return nil, ErrEmptyArchive
			}
			decoder, err = r.File[0].Open()
		}
	case ".7z":
		var r *sevenzip.Reader
		if r, err = sevenzip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
			if len(r.File) == 0 {
				return nil, ErrEmptyArchive
			}
			decoder, err = r.File[0].Open()
		}
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s archive: %w", ext, err)
	}

	if closer, ok := decoder.(io.Closer); ok {
		defer closer.Close()
	}
	return io.ReadAll(decoder)
}
