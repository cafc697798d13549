package auth

import "golang.org/x/crypto/bcrypt"

// Cost 10 is ~100ms per hash; login is rate limited
const bcryptCost = 10

// MinPasswordLength applies to bootstrap and changed passwords
const MinPasswordLength = 8

// HashPassword generates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks if the provided password matches the hash
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
