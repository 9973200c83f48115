package core

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out record identifiers. Ids must never be derived from a collection's length.
type IDGenerator interface {
	NewID() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.New().String() }

// SequenceGenerator is a monotonic counter, handy for readable ids in tests and seeds.
type SequenceGenerator struct {
	prefix string
	n      uint64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	return g.prefix + strconv.FormatUint(atomic.AddUint64(&g.n, 1), 10)
}

type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
