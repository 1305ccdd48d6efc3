package app

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters: 16-byte random salt, 32-byte key. Hash and salt are
// stored hex-encoded on the user document.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16

	sessionTokenLen = 24
)

func hashPassword(password string) (hash, salt string, err error) {
	rawSalt := make([]byte, saltLen)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", err
	}
	salt = hex.EncodeToString(rawSalt)
	hash, err = deriveKey(password, salt)
	return hash, salt, err
}

func deriveKey(password, saltHex string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(saltHex), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// verifyPassword recomputes the digest and compares in constant time, so
// neither the password content nor the stored hash length leaks through
// timing.
func verifyPassword(password, hashHex, saltHex string) bool {
	cand, err := deriveKey(password, saltHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cand), []byte(hashHex)) == 1
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
