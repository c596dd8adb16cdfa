package compress

import "fmt"

// Compress encodes ledger snapshots before they are stored.
type Compress interface {
	// Name is stored next to the encoded bytes so rows stay readable after
	// the configured codec changes.
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Nop stores snapshots as they are.
type Nop struct{}

func NewNop() Nop { return Nop{} }

func (Nop) Name() string { return "nop" }

func (Nop) Encode(data []byte) ([]byte, error) { return data, nil }

func (Nop) Decode(data []byte) ([]byte, error) { return data, nil }

// New returns the codec registered under name.
func New(name string) (Compress, error) {
	switch name {
	case "", "nop", "none":
		return NewNop(), nil
	case "gzip":
		return NewGZip(), nil
	case "brotli":
		return NewBrotli(), nil
	case "lz4":
		return NewLZ4(), nil
	}

	return nil, fmt.Errorf("unknown compression %q", name)
}
