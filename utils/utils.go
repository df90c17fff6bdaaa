package utils

import (
	"fmt"
	"strings"

	"github.com/twmb/murmur3"
)

func HashString(s string) uint64 {
	hash := murmur3.New64()
	_, err := hash.Write([]byte(s))
	if err != nil {
		panic(err)
	}
	return hash.Sum64()
}

// Fingerprint joins parts with a unit separator and returns the murmur3 hash as 16 hex digits.
func Fingerprint(parts ...string) string {
	return fmt.Sprintf("%016x", HashString(strings.Join(parts, "\x1f")))
}
