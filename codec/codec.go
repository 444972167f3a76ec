// Package codec encodes exported cluster documents and service payloads.
//
// Archives store the codec name in their header, so a document written with one codec
// is always read back with the same one.
package codec

import (
	"fmt"
	"slices"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ErrUnknownCodec is returned when a codec name has no built-in implementation.
type ErrUnknownCodec struct {
	Name string
}

func (e *ErrUnknownCodec) Error() string {
	return fmt.Sprintf("codec: unknown codec %q", e.Name)
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Lookup is ByName returning *ErrUnknownCodec for unknown names.
func Lookup(name string) (Codec, error) {
	c, ok := ByName(name)
	if !ok {
		return nil, &ErrUnknownCodec{Name: name}
	}
	return c, nil
}

// Names returns the names of the built-in codecs, sorted.
func Names() []string {
	names := []string{JSON{}.Name(), GoJSON{}.Name()}
	slices.Sort(names)
	return names
}

// MustMarshal is a helper for tests, benchmarks and examples.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
