package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestValidPassword(t *testing.T) {
	cases := []struct {
		pw   string
		want bool
	}{
		{"Abcdef1!", true},
		{"Str0ng&Pass", true},
		{"short1!A", true},
		{"abc", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSpecial11", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidPassword(c.pw); got != c.want {
			t.Errorf("ValidPassword(%q) = %v, want %v", c.pw, got, c.want)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng&Pass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "Str0ng&Pass") {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword(hash, "Wr0ng&Pass") {
		t.Fatalf("wrong password accepted")
	}
}
