package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	generatedPasswordLen = 10
	passwordSymbols      = "!@#$%&*"
	passwordUpper        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLower        = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits       = "0123456789"
)

// GenerateSecurePassword returns a random password containing at least one
// uppercase, one lowercase, one digit and one symbol. Handed to restaurant
// and driver accounts on approval; never log the returned string.
func GenerateSecurePassword() (string, error) {
	pick := func(s string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(s))))
		if err != nil {
			return 0, err
		}
		return s[n.Int64()], nil
	}
	classes := []string{passwordUpper, passwordLower, passwordDigits, passwordSymbols}
	all := passwordUpper + passwordLower + passwordDigits + passwordSymbols

	result := make([]byte, generatedPasswordLen)
	var err error
	for i := range result {
		src := all
		if i < len(classes) {
			src = classes[i]
		}
		result[i], err = pick(src)
		if err != nil {
			return "", err
		}
	}
	// Fisher-Yates with crypto/rand so the class positions aren't fixed.
	for i := generatedPasswordLen - 1; i >= 1; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("shuffle: %w", err)
		}
		j := int(n.Int64())
		result[i], result[j] = result[j], result[i]
	}
	return string(result), nil
}
