package lending

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idLength   = 6
)

// IDGenerator hands out fixed-length alphanumeric tokens. Registries retry
// on collision, so generators need not guarantee uniqueness themselves.
type IDGenerator interface {
	NewID() string
}

// RandomIDs draws tokens from random UUIDs.
type RandomIDs struct{}

func (RandomIDs) NewID() string {
	u := uuid.New()
	b := make([]byte, idLength)
	for i := range b {
		b[i] = idAlphabet[int(u[i])%len(idAlphabet)]
	}
	return string(b)
}

// SequentialIDs yields prefix followed by a zero-padded counter, e.g. M00001.
// Intended for tests and reproducible imports.
type SequentialIDs struct {
	Prefix string
	n      atomic.Int64
}

func (s *SequentialIDs) NewID() string {
	width := idLength - len(s.Prefix)
	return fmt.Sprintf("%s%0*d", s.Prefix, width, s.n.Add(1))
}

// uniqueID draws from gen until taken reports the token as free.
func uniqueID(gen IDGenerator, taken func(string) bool) string {
	for {
		id := gen.NewID()
		if !taken(id) {
			return id
		}
	}
}
