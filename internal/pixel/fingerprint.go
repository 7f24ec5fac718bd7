package pixel

import (
	"fmt"

	"github.com/corona10/goimagehash"
)

// Fingerprint is a perceptual hash of a captured region, used to notice when
// the target application renders a panel differently than it did earlier.
type Fingerprint struct {
	hash *goimagehash.ImageHash
}

// NewFingerprint hashes img.
func NewFingerprint(img Image) (Fingerprint, error) {
	hash, err := goimagehash.PerceptionHash(ToRGBA(img))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("pixel: hash failed: %w", err)
	}
	return Fingerprint{hash: hash}, nil
}

// Valid reports whether the fingerprint holds a hash.
func (f Fingerprint) Valid() bool {
	return f.hash != nil
}

// Distance is the Hamming distance between two fingerprints.
func (f Fingerprint) Distance(o Fingerprint) (int, error) {
	if f.hash == nil || o.hash == nil {
		return 0, fmt.Errorf("pixel: empty fingerprint")
	}
	return f.hash.Distance(o.hash)
}
