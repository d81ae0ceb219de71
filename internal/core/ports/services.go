package ports

// PasswordVerifier compares a stored password secret against a candidate.
// The comparison contract (exact plaintext equality) lives behind this single
// seam so a hashed scheme can be substituted without touching protocol code.
type PasswordVerifier interface {
	Verify(secret, candidate string) bool
}
