package transport

import (
	"bytes"
	"encoding/gob"
)

// WireError is the concrete, gob-friendly stand-in for a Go error
// crossing the wire. A plain error's concrete type is usually unexported
// and carries unexported fields gob can't see (fmt.Errorf's %w wrapping
// in particular), so Socket.Send flattens any error value to WireError
// before handing it to the Codec.
type WireError struct {
	Message string
}

func (e WireError) Error() string { return e.Message }

// init registers the concrete types this module itself ever boxes into
// an interface{} payload crossing the wire. gob requires every concrete
// type carried inside an interface{} to be registered up front; callers
// transporting their own payload types must gob.Register them the same
// way before using the default codec.
func init() {
	gob.Register(WireError{})
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
}

// Codec is the pluggable encode/decode pair a Socket uses to turn values
// into wire frames and back. The distilled spec explicitly leaves the
// codec unmandated ("opaque to the core"); gobCodec is the default
// because it needs no schema and ships in the standard library, and
// nothing in the example pack's stack offers a more idiomatic default
// for this module's purpose (see DESIGN.md).
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
}

// gobCodec implements Codec using encoding/gob.
type gobCodec struct{}

// GobCodec returns the default Codec.
func GobCodec() Codec { return gobCodec{} }

func (gobCodec) Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Decode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
