package cursor

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := Cursor{
		Seq:        42,
		Dir:        DirectionForward,
		Reverse:    true,
		FilterHash: HashFilter("kind = 'FIGHTER_HIRED'"),
		OrderHash:  HashFilter("seq desc"),
	}

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
	_, err := Decode("")
	if err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestDecodeInvalidBase64(t *testing.T) {
	_, err := Decode("not-base64@@")
	if err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestDecodeInvalidDirection(t *testing.T) {
	raw, err := json.Marshal(Cursor{Seq: 1, Dir: "sideways"})
	if err != nil {
		t.Fatalf("marshal cursor: %v", err)
	}
	token := base64.URLEncoding.EncodeToString(raw)

	_, err = Decode(token)
	if err == nil {
		t.Fatal("expected error for invalid direction")
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

func TestValidateHashes(t *testing.T) {
	c := NewNextPageCursor(10, false, "kind = 'FIGHTER_HIRED'", "seq")

	if err := ValidateFilterHash(c, "kind = 'FIGHTER_HIRED'"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateFilterHash(c, "kind = 'FIGHTER_KILLED'"); err == nil {
		t.Fatal("expected error for mismatched filter")
	}

	if err := ValidateOrderHash(c, "seq"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateOrderHash(c, "seq desc"); err == nil {
		t.Fatal("expected error for mismatched order")
	}
}

func TestPageCursorDirections(t *testing.T) {
	nextAsc := NewNextPageCursor(100, false, "", "")
	if nextAsc.Dir != DirectionForward {
		t.Fatalf("expected forward dir, got %s", nextAsc.Dir)
	}
	if nextAsc.Reverse {
		t.Fatal("expected next cursor without reverse")
	}

	nextDesc := NewNextPageCursor(100, true, "", "")
	if nextDesc.Dir != DirectionBackward {
		t.Fatalf("expected backward dir, got %s", nextDesc.Dir)
	}

	prevAsc := NewPrevPageCursor(50, false, "", "")
	if prevAsc.Dir != DirectionBackward {
		t.Fatalf("expected backward dir, got %s", prevAsc.Dir)
	}
	if !prevAsc.Reverse {
		t.Fatal("expected reverse for prev cursor")
	}

	prevDesc := NewPrevPageCursor(50, true, "", "")
	if prevDesc.Dir != DirectionForward {
		t.Fatalf("expected forward dir, got %s", prevDesc.Dir)
	}
	if !prevDesc.Reverse {
		t.Fatal("expected reverse for prev cursor")
	}
}

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 50, Max: 200}

	if got := ClampPageSize(0, cfg); got != 50 {
		t.Fatalf("expected default 50, got %d", got)
	}
	if got := ClampPageSize(-3, cfg); got != 50 {
		t.Fatalf("expected default 50, got %d", got)
	}
	if got := ClampPageSize(500, cfg); got != 200 {
		t.Fatalf("expected max 200, got %d", got)
	}
	if got := ClampPageSize(25, cfg); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
}

func TestNormalizeOrderBy(t *testing.T) {
	cfg := OrderByConfig{Default: "seq", Allowed: []string{"seq", "seq desc"}}

	got, err := NormalizeOrderBy("", cfg)
	if err != nil || got != "seq" {
		t.Fatalf("expected default seq, got %q err %v", got, err)
	}

	got, err = NormalizeOrderBy("seq desc", cfg)
	if err != nil || got != "seq desc" {
		t.Fatalf("expected seq desc, got %q err %v", got, err)
	}

	if _, err := NormalizeOrderBy("ts asc", cfg); err == nil {
		t.Fatal("expected error for disallowed order_by")
	}
}
