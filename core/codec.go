package core

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec is the serialization contract applied to every value that crosses a
// process boundary: context store values, fan-out payloads and results.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register(Input{})
	gob.Register(NodeLog{})
}

// GobCodec encodes values with encoding/gob. Concrete Go types survive the
// round trip as long as they are registered with gob.Register.
type GobCodec struct{}

type envelope struct {
	V any
}

// Marshal implements Codec.
func (GobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&envelope{V: v}); err != nil {
		return nil, fmt.Errorf("gob encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal implements Codec.
func (GobCodec) Unmarshal(data []byte) (any, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return env.V, nil
}

// MsgpackCodec encodes values as MessagePack. Decoding is loose: integers come
// back as int64 or uint64, floats as float64 and structs as maps.
type MsgpackCodec struct{}

// Marshal implements Codec.
func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode %T: %w", v, err)
	}
	return b, nil
}

// Unmarshal implements Codec.
func (MsgpackCodec) Unmarshal(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("msgpack decode: %w", err)
	}
	return v, nil
}

// RoundTrip encodes and decodes v, returning an independent copy.
func RoundTrip(c Codec, v any) (any, error) {
	b, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.Unmarshal(b)
}
