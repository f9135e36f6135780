package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	data := strings.Repeat("database,cluster,schema,name\nhive,gold,core,orders\n", 200)

	for _, a := range []Algorithm{None, Gzip, Zstd, LZ4, S2} {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(string(a), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, a, level)
				require.NoError(t, err)
				_, err = io.WriteString(w, data)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if a != None {
					assert.Less(t, buf.Len(), len(data))
				}

				r, err := NewReader(&buf, a)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, data, string(got))
			})
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{in: "", want: None},
		{in: "false", want: None},
		{in: "true", want: Gzip},
		{in: "GZIP", want: Gzip},
		{in: "zstd", want: Zstd},
		{in: "lz4", want: LZ4},
		{in: "s2", want: S2},
		{in: "brotli", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForPath(t *testing.T) {
	tests := map[string]Algorithm{
		"Table_0.csv":     None,
		"Table_0.csv.gz":  Gzip,
		"Table_0.csv.zst": Zstd,
		"Table_0.csv.lz4": LZ4,
		"Table_0.csv.s2":  S2,
	}
	for path, want := range tests {
		assert.Equal(t, want, ForPath(path), path)
		assert.Equal(t, "Table_0.csv", TrimExtension(path), path)
	}
}

func TestUnsupported(t *testing.T) {
	_, err := NewWriter(io.Discard, "brotli", Default)
	assert.Error(t, err)
	_, err = NewReader(strings.NewReader(""), "brotli")
	assert.Error(t, err)
}
