package transport

import (
	"errors"
	"testing"
)

func TestGobCodecRoundTripsBasicValues(t *testing.T) {
	codec := GobCodec()

	for _, v := range []interface{}{42, "hello", 3.14, true} {
		data, err := codec.Encode(v)
		if err != nil {
			t.Fatalf("encode %v: %v", v, err)
		}

		var out interface{}
		if err := codec.Decode(data, &out); err != nil {
			t.Fatalf("decode %v: %v", v, err)
		}
		if out != v {
			t.Fatalf("expected %v, got %v", v, out)
		}
	}
}

func TestGobCodecRoundTripsWireError(t *testing.T) {
	codec := GobCodec()

	data, err := codec.Encode(WireError{Message: "boom"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out interface{}
	if err := codec.Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	we, ok := out.(WireError)
	if !ok {
		t.Fatalf("expected WireError, got %T", out)
	}
	if we.Error() != "boom" {
		t.Fatalf("expected boom, got %v", we.Error())
	}
}

func TestFlattenErrorsConvertsPlainErrors(t *testing.T) {
	wrapped := flattenErrors(errors.New("plain failure"))
	we, ok := wrapped.(WireError)
	if !ok {
		t.Fatalf("expected WireError, got %T", wrapped)
	}
	if we.Message != "plain failure" {
		t.Fatalf("expected message to be preserved, got %q", we.Message)
	}
}

func TestFlattenErrorsLeavesWireErrorUntouched(t *testing.T) {
	original := WireError{Message: "already flattened"}
	flattened := flattenErrors(original)
	if flattened != original {
		t.Fatalf("expected WireError to pass through unchanged, got %v", flattened)
	}
}

func TestFlattenErrorsLeavesNonErrorsUntouched(t *testing.T) {
	if v := flattenErrors(42); v != 42 {
		t.Fatalf("expected non-error values untouched, got %v", v)
	}
}
