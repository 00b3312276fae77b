package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches what existing stored hashes were produced with.
const bcryptCost = 10

// HashPassword hashes a plaintext password with bcrypt. Callers invoke it
// explicitly at every write boundary that sets a credential; nothing hashes
// implicitly on save.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash with a candidate plaintext password.
// A mismatch is an error value, mapped by callers to invalid-credentials.
func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}
