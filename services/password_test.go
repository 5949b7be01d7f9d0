package services

import (
	"strings"
	"testing"
)

func TestGenerateSecurePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GenerateSecurePassword()
		if err != nil {
			t.Fatalf("GenerateSecurePassword: %v", err)
		}
		if len(pw) != generatedPasswordLen {
			t.Fatalf("len = %d, want %d", len(pw), generatedPasswordLen)
		}
		if !strings.ContainsAny(pw, passwordUpper) ||
			!strings.ContainsAny(pw, passwordLower) ||
			!strings.ContainsAny(pw, passwordDigits) ||
			!strings.ContainsAny(pw, passwordSymbols) {
			t.Errorf("password %q missing a required character class", pw)
		}
		if seen[pw] {
			t.Errorf("duplicate password generated: %q", pw)
		}
		seen[pw] = true
	}
}
