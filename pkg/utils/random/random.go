package random

import (
	"crypto/rand"
	"math/big"
)

// Ambiguous characters (0/O, 1/I) are excluded from room codes.
const codeSet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Code returns a random room code of the given length.
func Code(length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(codeSet)))
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = codeSet[0]
			continue
		}
		out[i] = codeSet[n.Int64()]
	}
	return string(out)
}
