package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidPassword reports whether a password satisfies the registration rule:
// at least 8 characters containing an upper-case letter, a lower-case letter,
// a digit and one of the special characters @$!%*?&#.
func ValidPassword(plain string) bool {
	if len(plain) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range plain {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("@$!%*?&#", r):
			special = true
		}
	}
	return upper && lower && digit && special
}
