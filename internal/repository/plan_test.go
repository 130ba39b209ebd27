package repository

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TestBuildCopyTitle проверяет ограничение длины заголовка копии.
func TestBuildCopyTitle(t *testing.T) {
	original := strings.Repeat("a", 210)
	result := buildCopyTitle(original, 200)

	if !strings.HasPrefix(result, "Copy of ") {
		t.Fatalf("expected prefix, got %s", result)
	}

	if utf8.RuneCountInString(result) > 200 {
		t.Fatalf("expected result length <= 200, got %d", utf8.RuneCountInString(result))
	}
}

// TestTruncateTitleRunes проверяет обрезку по символам, а не по байтам.
func TestTruncateTitleRunes(t *testing.T) {
	original := strings.Repeat("долг", 60)
	result := truncateTitle(original, 200)

	if !utf8.ValidString(result) {
		t.Fatal("expected valid utf-8 after truncation")
	}
	if utf8.RuneCountInString(result) != 200 {
		t.Fatalf("expected 200 runes, got %d", utf8.RuneCountInString(result))
	}

	if got := truncateTitle("Avalanche plan", 200); got != "Avalanche plan" {
		t.Fatalf("expected short title unchanged, got %s", got)
	}
}
