package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainOperation prefixes compiled operation fingerprints. The version
// suffix allows the encoding to change without colliding with older
// fingerprints.
const DomainOperation = "fieldir/operation/v1"

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a stable content hash of a compiled artifact. Two
// artifacts with identical canonical JSON share a fingerprint.
func Fingerprint(domain string, v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}
