package tcp

import "strings"

// Field validation for the registration sub-protocol. Both checks are
// deliberately exactly as weak as the historical contract requires;
// tightening either would reject previously accepted identities.

// ValidPPSNumber reports whether s is exactly 9 characters: 7 ASCII digits
// followed by 2 ASCII letters.
func ValidPPSNumber(s string) bool {
	if len(s) != 9 {
		return false
	}
	for i := 0; i < 7; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	for i := 7; i < 9; i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// ValidEmail reports whether s contains "@", "." and the substring "com".
// This is a substring test, not RFC validation.
func ValidEmail(s string) bool {
	return strings.Contains(s, "@") &&
		strings.Contains(s, ".") &&
		strings.Contains(s, "com")
}
