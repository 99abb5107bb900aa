// Package cache maps normalized analysis requests to completed results
// so repeated submissions short-circuit the pipeline entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a deterministic cache key from the request
// fields. Case, leading/trailing whitespace, and internal whitespace
// runs are normalized away, so "Acme Corp"/"acme  corp" collide by
// design.
func Fingerprint(company, strategyFocus string) string {
	h := sha256.New()
	h.Write([]byte(normalize(company)))
	h.Write([]byte{0})
	h.Write([]byte(normalize(strategyFocus)))
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
