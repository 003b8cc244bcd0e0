package utils

import (
	"crypto/rand"
	"math/big"
)

// RandomDigits returns n uniformly random decimal digits, leading zeros
// included.
func RandomDigits(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
