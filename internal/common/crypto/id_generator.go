package crypto

import (
	"crypto/rand"
	"encoding/base64"
)

type IDGenerator interface {
	NewID() (string, error)
}

// RandomToken returns n random bytes encoded as unpadded base64url.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type StateGenerator struct {
	Size int
}

func (g *StateGenerator) NewID() (string, error) {
	return RandomToken(g.Size)
}
