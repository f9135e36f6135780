package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/compression"
	"github.com/ajitpratap0/databuilder/pkg/errors"
)

// csvFile is one open output file with a fixed header.
type csvFile struct {
	path   string
	header []string
	file   *os.File
	codec  io.WriteCloser
	w      *csv.Writer
	rows   int
}

func (f *csvFile) close() error {
	f.w.Flush()
	if err := f.w.Error(); err != nil {
		_ = f.file.Close()
		return err
	}
	if err := f.codec.Close(); err != nil {
		_ = f.file.Close()
		return err
	}
	return f.file.Close()
}

// csvSink routes rows to one file per (prefix, column set).
type csvSink struct {
	dir    string
	algo   compression.Algorithm
	files  map[string]*csvFile
	counts map[string]int
	order  []*csvFile
	closed bool
}

func newCSVSink(dir string, algo compression.Algorithm) *csvSink {
	return &csvSink{
		dir:    dir,
		algo:   algo,
		files:  make(map[string]*csvFile),
		counts: make(map[string]int),
	}
}

// header returns leading followed by the remaining row keys in sorted order.
func header(leading []string, row map[string]string) []string {
	lead := make(map[string]struct{}, len(leading))
	out := make([]string, 0, len(row))
	for _, h := range leading {
		lead[h] = struct{}{}
		out = append(out, h)
	}
	rest := make([]string, 0, len(row))
	for k := range row {
		if _, ok := lead[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// write appends row to the file for prefix and the row's column set.
func (s *csvSink) write(prefix string, leading []string, row map[string]string) error {
	if s.closed {
		return errors.New(errors.ErrorTypeInternal, "write after close")
	}
	cols := header(leading, row)
	id := prefix + "\x00" + strings.Join(cols, "\x00")

	f, ok := s.files[id]
	if !ok {
		var err error
		if f, err = s.open(prefix, cols); err != nil {
			return err
		}
		s.files[id] = f
		s.order = append(s.order, f)
	}

	values := make([]string, len(f.header))
	for i, h := range f.header {
		values[i] = row[h]
	}
	if err := f.w.Write(values); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to write %s", f.path))
	}
	f.rows++
	return nil
}

func (s *csvSink) open(prefix string, cols []string) (*csvFile, error) {
	n := s.counts[prefix]
	s.counts[prefix] = n + 1

	name := fmt.Sprintf("%s_%d.csv%s", sanitize(prefix), n, s.algo.Extension())
	path := filepath.Join(s.dir, name)
	file, err := os.Create(path) //nolint:gosec // G304: path is built from the configured directory
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to create %s", path))
	}

	codec, err := compression.NewWriter(file, s.algo, compression.Default)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to open %s", path))
	}
	f := &csvFile{path: path, header: cols, file: file, codec: codec}
	f.w = csv.NewWriter(codec)
	if err := f.w.Write(cols); err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to write header of %s", path))
	}
	return f, nil
}

// Files returns the paths written so far, in creation order.
func (s *csvSink) Files() []string {
	out := make([]string, len(s.order))
	for i, f := range s.order {
		out[i] = f.path
	}
	return out
}

// Rows returns the number of data rows written.
func (s *csvSink) Rows() int {
	n := 0
	for _, f := range s.order {
		n += f.rows
	}
	return n
}

// Close flushes every file. Files and Rows keep reporting afterwards.
func (s *csvSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var firstErr error
	for _, f := range s.order {
		if err := f.close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to close %s", f.path))
		}
	}
	return firstErr
}

// sanitize keeps file names portable.
func sanitize(prefix string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, prefix)
}
