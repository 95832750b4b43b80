package security

import "golang.org/x/crypto/bcrypt"

// bcrypt ignores everything past 72 bytes, so longer inputs are cut
// before hashing and before every comparison.
const maxPasswordBytes = 72

func truncate(plain string) []byte {
	b := []byte(plain)

	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}

	return b
}

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
// A malformed hash simply fails the comparison.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(plain)) == nil
}
