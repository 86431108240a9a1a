package util

import (
	"math/rand"
	"time"
)

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomSuffix returns n random lowercase alphanumerics for object names.
func RandomSuffix(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(buf)
}
