// Package hash fingerprints format strings so catalogs from different
// streams can be compared without carrying the text around.
package hash

import "github.com/cespare/xxhash/v2"

// Fingerprint returns the xxHash64 of a raw format string.
func Fingerprint(format string) uint64 {
	return xxhash.Sum64String(format)
}

// FingerprintBytes is Fingerprint for a byte slice.
func FingerprintBytes(format []byte) uint64 {
	return xxhash.Sum64(format)
}
