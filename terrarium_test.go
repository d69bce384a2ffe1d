package terrarium

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	err := NewTileAbsentUpstream("(0,0)")
	if !Is(err, KindTileAbsentUpstream) {
		t.Errorf("expected Is to match KindTileAbsentUpstream")
	}
	if Is(err, KindNetworkError) {
		t.Errorf("expected Is to not match a different kind")
	}
}

func TestErrorUnwrapChain(t *testing.T) {
	cause := errors.New("boom")
	err := NewFilesystemError("writing file", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to see through the wrapped cause")
	}

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected errors.As to extract *Error")
	}
	if terr.Kind != KindFilesystemError {
		t.Errorf("Kind = %v, want KindFilesystemError", terr.Kind)
	}
}

func TestNetworkErrorCarriesStatus(t *testing.T) {
	err := NewNetworkError(503, nil)
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected errors.As to extract *Error")
	}
	if terr.Status != 503 {
		t.Errorf("Status = %d, want 503", terr.Status)
	}
}
