package credential

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

var (
	ErrEmptyPool = errors.New("credential pool must contain at least one key")
	ErrEmptyKey  = errors.New("credential pool entries must be non-empty")
)

// Pool hands out upstream keys in round-robin order. The key list is fixed at
// construction; the only mutable state is the counter.
type Pool struct {
	keys    []string
	counter atomic.Uint64
}

// NewPool copies keys into a new Pool. It fails on an empty list or an empty entry.
func NewPool(keys []string) (*Pool, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPool
	}
	cp := make([]string, len(keys))
	for i, k := range keys {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w (index %d)", ErrEmptyKey, i)
		}
		cp[i] = k
	}
	return &Pool{keys: cp}, nil
}

// Next returns the key at (n-1) mod size, where n is the post-increment
// counter value. Safe for concurrent use.
func (p *Pool) Next() string {
	n := p.counter.Add(1)
	return p.keys[(n-1)%uint64(len(p.keys))]
}

func (p *Pool) Size() int { return len(p.keys) }

// Keys returns a copy of the rotation order.
func (p *Pool) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}
