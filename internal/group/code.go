package group

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// joinCodeAlphabet avoids lowercase so codes survive being read aloud or
// typed in any case.
const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewJoinCode draws a code of the given length uniformly from the alphabet.
func NewJoinCode(length int) (string, error) {
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("join code: %w", err)
		}
		buf[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
