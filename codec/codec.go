// Package codec defines the byte conversion contract cached values must
// satisfy to cross the disk boundary, plus a few ready-made implementations.
package codec

import "encoding/json"

// Codec converts values of type V to and from a byte representation.
// Decode must fail (return a non-nil error) on bytes it did not produce;
// the disk tier relies on that to detect corrupted files.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(b []byte) (V, error)
}

// Bytes is the identity codec for raw byte slices.
// Decode copies its input so the caller never aliases the read buffer.
type Bytes struct{}

func (Bytes) Encode(v []byte) ([]byte, error) { return v, nil }

func (Bytes) Decode(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// String codes strings as their UTF-8 bytes.
type String struct{}

func (String) Encode(v string) ([]byte, error) { return []byte(v), nil }

func (String) Decode(b []byte) (string, error) { return string(b), nil }

// JSON codes any JSON-marshalable type. Handy for struct values where
// wire compactness does not matter.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

var (
	_ Codec[[]byte] = Bytes{}
	_ Codec[string] = String{}
)
