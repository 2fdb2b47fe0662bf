package chat

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGenerateFromTitleStable(t *testing.T) {
	first, err := GenerateFromTitle("Test Session", 8)
	if err != nil {
		t.Fatal(err)
	}
	second, err := GenerateFromTitle("Test Session", 8)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("expected stable id, got %q then %q", first, second)
	}
	if IDFormat(first) != FormatBase {
		t.Fatalf("expected base format, got %q", first)
	}
}

func TestGenerateFromTitleFoldsCaseAndWhitespace(t *testing.T) {
	base, err := GenerateFromTitle("Test Session", 8)
	if err != nil {
		t.Fatal(err)
	}
	variants := []string{
		"test session",
		"TEST SESSION",
		"  Test   Session  ",
		"Test\tSession",
	}
	for _, v := range variants {
		got, err := GenerateFromTitle(v, 8)
		if err != nil {
			t.Fatal(err)
		}
		if got != base {
			t.Fatalf("variant %q produced %q, want %q", v, got, base)
		}
	}
}

func TestGenerateFromTitleBlank(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := GenerateFromTitle(title, 8)
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("title %q: expected ValidationError, got %v", title, err)
		}
	}
}

func TestGenerateUniqueFromTitleEscalation(t *testing.T) {
	base, err := GenerateFromTitle("Demo", 8)
	if err != nil {
		t.Fatal(err)
	}

	existing := map[string]bool{}
	got, err := GenerateUniqueFromTitle("Demo", existing, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != base {
		t.Fatalf("expected base %q with no collisions, got %q", base, got)
	}

	existing[base] = true
	got, err = GenerateUniqueFromTitle("Demo", existing, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != base+"-1" {
		t.Fatalf("expected %q, got %q", base+"-1", got)
	}

	existing[base+"-1"] = true
	existing[base+"-2"] = true
	got, err = GenerateUniqueFromTitle("Demo", existing, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != base+"-3" {
		t.Fatalf("expected %q, got %q", base+"-3", got)
	}
}

func TestGenerateUniqueFromTitleFallback(t *testing.T) {
	base, err := GenerateFromTitle("Crowded", 8)
	if err != nil {
		t.Fatal(err)
	}
	existing := map[string]bool{base: true}
	for i := 1; i <= 10; i++ {
		existing[fmt.Sprintf("%s-%d", base, i)] = true
	}

	got, err := GenerateUniqueFromTitle("Crowded", existing, 10)
	if err != nil {
		t.Fatal(err)
	}
	if existing[got] {
		t.Fatalf("fallback id %q collides with an existing id", got)
	}
	if !strings.HasPrefix(got, base+"-") {
		t.Fatalf("fallback id %q does not extend the base digest", got)
	}
	if format := IDFormat(got); format != FormatFallback && format != FormatCollision {
		t.Fatalf("fallback id %q is outside the fallback format family (%s)", got, format)
	}
}

func TestIDFormat(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"abcd1234", FormatBase},
		{"00000000", FormatBase},
		{"abcd1234-1", FormatCollision},
		{"abcd1234-42", FormatCollision},
		{"abcd1234-m3k9x", FormatFallback},
		{"abcd1234-0z", FormatFallback},
		{"", FormatInvalid},
		{"abcd123", FormatInvalid},      // too short
		{"abcd12345", FormatInvalid},    // too long
		{"ABCD1234", FormatInvalid},     // uppercase
		{"abcd1234-", FormatInvalid},    // empty suffix
		{"abcd1234--1", FormatInvalid},  // doubled separator
		{"abcd1234-X1", FormatInvalid},  // uppercase suffix
		{"ghij1234", FormatInvalid},     // non-hex
		{"abcd1234-1-2", FormatInvalid}, // second separator
	}
	for _, tt := range tests {
		if got := IDFormat(tt.id); got != tt.want {
			t.Errorf("IDFormat(%q) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestBaseID(t *testing.T) {
	got, ok := BaseID("abcd1234-17")
	if !ok || got != "abcd1234" {
		t.Fatalf("BaseID(abcd1234-17) = %q, %v", got, ok)
	}
	if _, ok := BaseID("not-an-id"); ok {
		t.Fatal("expected BaseID to reject a malformed id")
	}
}

func TestCanonicalID(t *testing.T) {
	if got := CanonicalID("123"); got != "legacy-123" {
		t.Fatalf("expected legacy-123, got %q", got)
	}
	if got := CanonicalID("abcd1234"); got != "abcd1234" {
		t.Fatalf("string ids must pass through, got %q", got)
	}
	if got := CanonicalID("legacy-7"); got != "legacy-7" {
		t.Fatalf("already-canonical ids must pass through, got %q", got)
	}
	// An all-digit id of base length resolves as generated, not legacy.
	if got := CanonicalID("12345678"); got != "12345678" {
		t.Fatalf("8-digit base ids must pass through, got %q", got)
	}
}

func TestLegacyNumber(t *testing.T) {
	if got := LegacyNumber("legacy-456"); got != 456 {
		t.Fatalf("expected 456, got %d", got)
	}
	// Surrogates are stable, display-only values.
	a := LegacyNumber("abcd1234")
	b := LegacyNumber("abcd1234")
	if a != b {
		t.Fatalf("surrogate not stable: %d vs %d", a, b)
	}
}
