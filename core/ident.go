package core

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type runIDGenerator struct {
	lock    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newRunIDGenerator() *runIDGenerator {
	return &runIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (this *runIDGenerator) next(now time.Time) (string, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	id, err := ulid.New(ulid.Timestamp(now.UTC()), this.entropy)
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}
