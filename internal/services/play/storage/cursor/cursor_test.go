package cursor

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := New(42, "status = 'passed'")

	token, err := Encode(original)
	if err != nil {
		t.Fatalf("encode cursor: %v", err)
	}

	decoded, err := Decode(token)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}

	if decoded != original {
		t.Fatalf("cursor mismatch: %+v != %+v", decoded, original)
	}
}

func TestDecodeEmptyToken(t *testing.T) {
	if _, err := Decode(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestDecodeInvalidBase64(t *testing.T) {
	if _, err := Decode("not-base64@@"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestDecodeInvalidSequence(t *testing.T) {
	raw, err := json.Marshal(Cursor{Seq: 0})
	if err != nil {
		t.Fatalf("marshal cursor: %v", err)
	}
	token := base64.URLEncoding.EncodeToString(raw)

	if _, err := Decode(token); err == nil {
		t.Fatal("expected error for non-positive sequence")
	}
}

func TestHashFilter(t *testing.T) {
	if HashFilter("") != "" {
		t.Fatal("expected empty hash for empty filter")
	}

	hash := HashFilter("foo")
	if len(hash) != 16 {
		t.Fatalf("expected 16-char hash, got %d", len(hash))
	}

	if hash == HashFilter("bar") {
		t.Fatal("expected different hashes for different filters")
	}
}

func TestValidateFilterHash(t *testing.T) {
	c := New(10, "status = 'passed'")
	if err := ValidateFilterHash(c, "status = 'passed'"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateFilterHash(c, "status = 'failed'"); err == nil {
		t.Fatal("expected error for changed filter")
	}
}
