package compress

import (
	"bytes"
	"compress/gzip"
	"io"
)

// GZip compresses with compress/gzip at a fixed level.
type GZip struct {
	level int
}

func NewGZip() GZip {
	return GZip{level: gzip.DefaultCompression}
}

// NewGZipLevel panics on a level gzip does not accept.
func NewGZipLevel(level int) GZip {
	if _, err := gzip.NewWriterLevel(io.Discard, level); err != nil {
		panic(err)
	}
	return GZip{level: level}
}

func (g GZip) Name() string {
	return "gzip"
}

func (g GZip) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(data); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g GZip) Decode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
