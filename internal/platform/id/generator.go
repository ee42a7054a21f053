package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// idBytes of entropy per identifier, hex encoded to twice that many chars.
const idBytes = 16

// Generator mints the opaque ids used for lobbies, teams, matches and ledger
// rows. Ids never encode meaning; ordering comes from created_at columns.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	raw := make([]byte, idBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
