// Package compression provides the streaming codecs used for loader output
// and publisher input files.
//
// The algorithm of a file is carried in its extension, so a publisher can
// read whatever a loader wrote without extra configuration:
//
//	w, err := compression.NewWriter(file, compression.Zstd, compression.Default)
//	...
//	r, err := compression.NewReader(file, compression.ForPath(path))
package compression

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// S2 represents s2 stream compression
	S2 Algorithm = "s2"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	Fastest Level = 1
	Default Level = 5
	Better  Level = 7
	Best    Level = 9
)

var extensions = map[Algorithm]string{
	Gzip: ".gz",
	Zstd: ".zst",
	LZ4:  ".lz4",
	S2:   ".s2",
}

// Parse maps a configuration value to an algorithm. Boolean values are
// accepted for the older on/off switch: true means gzip.
func Parse(s string) (Algorithm, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "none", "false":
		return None, nil
	case "true", "gzip", "gz":
		return Gzip, nil
	case "zstd", "lz4", "s2":
		return Algorithm(v), nil
	default:
		return None, fmt.Errorf("unsupported compression algorithm %q", s)
	}
}

// Extension returns the file suffix for a, empty for None.
func (a Algorithm) Extension() string { return extensions[a] }

// ForPath detects the algorithm from a file name.
func ForPath(path string) Algorithm {
	for a, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return a
		}
	}
	return None
}

// TrimExtension strips the compression suffix from path.
func TrimExtension(path string) string {
	return strings.TrimSuffix(path, ForPath(path).Extension())
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps dst. Closing the result flushes the codec but leaves dst
// open.
func NewWriter(dst io.Writer, a Algorithm, level Level) (io.WriteCloser, error) {
	switch a {
	case None, "":
		return nopWriteCloser{dst}, nil
	case Gzip:
		return gzip.NewWriterLevel(dst, mapGzipLevel(level))
	case Zstd:
		return zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(level)))
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, err
		}
		return w, nil
	case S2:
		if level >= Better {
			return s2.NewWriter(dst, s2.WriterBetterCompression()), nil
		}
		return s2.NewWriter(dst), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", a)
	}
}

// NewReader wraps src with the decoder for a.
func NewReader(src io.Reader, a Algorithm) (io.ReadCloser, error) {
	switch a {
	case None, "":
		return io.NopCloser(src), nil
	case Gzip:
		return gzip.NewReader(src)
	case Zstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	case S2:
		return io.NopCloser(s2.NewReader(src)), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", a)
	}
}

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
