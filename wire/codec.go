// Package wire defines the fabric-wide frame formats: the generic task
// payload codec supplied by callers, and the fabric-owned result envelope
// and command codecs shared by every channel in the pipeline.
package wire

import (
	"bytes"
	"encoding/gob"
)

// Codec converts a value of type T to and from the bytes transmitted on the
// wire. The fabric is parametric in T; callers supply their own Codec so
// that task and result payloads can use whatever encoding suits them.
type Codec[T any] struct {
	Encode func(T) ([]byte, error)
	Decode func([]byte) (T, error)
}

// GobCodec returns a Codec that frames values with encoding/gob, the same
// binary format the fabric uses for its own envelope and command frames.
// A fresh encoder/decoder pair is used per call: gob encoders cannot be
// safely reused across values of different concrete types registered
// lazily, and a decoder that receives only a type id (because an earlier
// call on some other encoder already transmitted the full type descriptor)
// cannot decode it standalone.
func GobCodec[T any]() Codec[T] {
	return Codec[T]{
		Encode: func(v T) ([]byte, error) {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decode: func(b []byte) (T, error) {
			var v T
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
				return v, err
			}
			return v, nil
		},
	}
}
