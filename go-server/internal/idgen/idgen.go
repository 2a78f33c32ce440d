// Package idgen produces random fixed-length alphanumeric identifiers used for
// short codes and user IDs. It does not check uniqueness; callers decide what to
// do on collision.
package idgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Alphabet is the set of characters identifiers are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var ErrInvalidLength = errors.New("identifier length must be positive")

// Generator produces identifiers of the requested length.
type Generator interface {
	Generate(length int) (string, error)
}

// RandomGenerator draws characters uniformly from Alphabet.
type RandomGenerator struct {
	reader io.Reader
}

// New returns a generator backed by crypto/rand.
func New() *RandomGenerator {
	return &RandomGenerator{reader: rand.Reader}
}

// NewWithReader returns a generator that reads randomness from r.
func NewWithReader(r io.Reader) *RandomGenerator {
	return &RandomGenerator{reader: r}
}

func (g *RandomGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	max := big.NewInt(int64(len(Alphabet)))
	id := make([]byte, length)
	for i := range id {
		n, err := rand.Int(g.reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		id[i] = Alphabet[n.Int64()]
	}

	return string(id), nil
}

// IsValid reports whether id has the given length and only Alphabet characters.
func IsValid(id string, length int) bool {
	if len(id) != length {
		return false
	}
	for _, char := range id {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')) {
			return false
		}
	}
	return true
}

var _ Generator = (*RandomGenerator)(nil)
