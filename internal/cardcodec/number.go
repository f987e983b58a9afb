package cardcodec

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NumberLength is the length of generated card numbers
const NumberLength = 16

// GenerateNumber returns a random Luhn-valid card number.
func GenerateNumber() (string, error) {
	digits := make([]byte, NumberLength)
	ten := big.NewInt(10)

	for i := 0; i < NumberLength-1; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate card number: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	// Issuer-style leading digit, never zero.
	if digits[0] == '0' {
		digits[0] = '4'
	}
	digits[NumberLength-1] = byte('0' + luhnCheckDigit(digits[:NumberLength-1]))

	return string(digits), nil
}

// luhnCheckDigit computes the digit that makes payload+digit pass the Luhn check.
func luhnCheckDigit(payload []byte) int {
	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}
