package utils

import (
	"crypto/rand"
	"math/big"
)

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomToken returns a random alphanumeric string from crypto/rand.
func GenerateRandomToken(length int) (string, error) {
	return randomFrom(tokenCharset, length)
}

// GenerateResetCode returns a numeric code suitable for typing on a phone.
func GenerateResetCode(digits int) (string, error) {
	return randomFrom("0123456789", digits)
}

func randomFrom(charset string, length int) (string, error) {
	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
