package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	snapshot := []byte(`{"id":"w1","term":"Ngor","initialLetter":"NG","validationStatus":"pending"}` + strings.Repeat(" ", 64))

	for _, name := range []string{"nop", "gzip", "brotli", "lz4"} {
		t.Run(name, func(t *testing.T) {
			codec, err := New(name)
			require.NoError(t, err)
			assert.Equal(t, name, codec.Name())

			encoded, err := codec.Encode(snapshot)
			require.NoError(t, err)

			decoded, err := codec.Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, snapshot, decoded)
		})
	}

	_, err := New("zstd")
	assert.Error(t, err)
}

func TestGZipLevel(t *testing.T) {
	snapshot := []byte(strings.Repeat(`{"term":"Ngor"}`, 32))

	fast, err := NewGZipLevel(1).Encode(snapshot)
	require.NoError(t, err)
	decoded, err := NewGZip().Decode(fast)
	require.NoError(t, err)
	assert.Equal(t, snapshot, decoded)

	assert.Panics(t, func() { NewGZipLevel(42) })

	_, err = NewGZip().Decode([]byte("plain"))
	assert.Error(t, err)
}
