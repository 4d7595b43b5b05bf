package auth

import "golang.org/x/crypto/bcrypt"

// Hasher derives and checks bcrypt password hashes. The cost factor is fixed
// at construction; bcrypt salts every hash itself, so two hashes of the same
// plaintext never match.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Out-of-range costs
// fall back to 12, the original deployment default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of plaintext with a fresh salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes simply
// fail the check; Verify never panics or errors.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
