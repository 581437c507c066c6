package usecases

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces message identifiers that are unique within a session.
type IDGenerator interface {
	NewID(prefix string) string
}

// RandomIDs issues random UUIDs. When the system randomness source fails it
// falls back to prefix-<unix nanos>-<sequence>-<pseudo-random hex>, which
// stays unique for back-to-back calls within one process.
type RandomIDs struct {
	seq     atomic.Uint64
	newUUID func() (uuid.UUID, error)
	now     func() time.Time
}

// NewRandomIDs creates the default ID generator. The zero value is also
// ready to use.
func NewRandomIDs() *RandomIDs {
	return &RandomIDs{newUUID: uuid.NewRandom, now: time.Now}
}

// NewID returns a fresh identifier. prefix is only used on the fallback path.
func (g *RandomIDs) NewID(prefix string) string {
	newUUID := g.newUUID
	if newUUID == nil {
		newUUID = uuid.NewRandom
	}
	if id, err := newUUID(); err == nil {
		return id.String()
	}
	return g.fallbackID(prefix)
}

func (g *RandomIDs) fallbackID(prefix string) string {
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	n := g.seq.Add(1)
	return fmt.Sprintf("%s-%d-%s-%016x", prefix, now().UnixNano(), strconv.FormatUint(n, 36), rand.Uint64())
}

// historyID is deterministic so the same history payload always yields the
// same identifiers.
func historyID(index int) string {
	return "history-" + strconv.Itoa(index)
}
