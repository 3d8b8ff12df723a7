// Package emoji holds the reaction-id pool, the emotion→pool mapping, and the
// selection strategies that decide which reaction ids to apply to a message.
// Pool and Mapping are built once at startup and are read-only afterwards, so
// they may be shared across concurrent handlers without locking.
package emoji

import "math/rand"

// Pool is the global reaction-id pool: every id in [start, end).
type Pool struct {
	ids []int
}

// NewPool builds the pool for the half-open interval [start, end).
func NewPool(start, end int) *Pool {
	if end < start {
		end = start
	}
	ids := make([]int, 0, end-start)
	for id := start; id < end; id++ {
		ids = append(ids, id)
	}
	return &Pool{ids: ids}
}

// Size returns the number of ids in the pool.
func (p *Pool) Size() int { return len(p.ids) }

// Sample draws min(need, Size()) distinct ids uniformly without replacement.
// It never errors and never repeats an id.
func (p *Pool) Sample(need int) []int {
	return sample(p.ids, need)
}

// PickOne draws a single id uniformly with replacement.
// ok is false only when the pool is empty.
func (p *Pool) PickOne() (int, bool) {
	if len(p.ids) == 0 {
		return 0, false
	}
	return p.ids[rand.Intn(len(p.ids))], true
}

// sample draws min(need, len(ids)) distinct elements uniformly from ids.
func sample(ids []int, need int) []int {
	if need <= 0 || len(ids) == 0 {
		return nil
	}
	if need > len(ids) {
		need = len(ids)
	}
	shuffled := make([]int, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:need]
}
