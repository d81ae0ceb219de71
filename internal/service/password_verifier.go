package service

// PlainTextVerifier implements ports.PasswordVerifier with exact string
// equality. Secrets are stored and compared in plaintext; this is a known
// weakness kept for compatibility with the stored account format.
type PlainTextVerifier struct{}

// NewPlainTextVerifier creates a new PlainTextVerifier.
func NewPlainTextVerifier() *PlainTextVerifier {
	return &PlainTextVerifier{}
}

// Verify reports whether candidate matches the stored secret.
func (v *PlainTextVerifier) Verify(secret, candidate string) bool {
	return secret == candidate
}
