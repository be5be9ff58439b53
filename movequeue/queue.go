// Package movequeue orders the free cells of a board by threat tier so the
// search can try the most urgent moves first.
package movequeue

import (
	"container/heap"
	"fmt"
	"slices"
)

const (
	// TierDoubleThreat cells complete a line or sit where two nearly
	// complete lines cross.
	TierDoubleThreat = 0
	// TierCovered cells lie on at least one live line.
	TierCovered = 1
	// TierPlain is every other free cell.
	TierPlain = 2

	numTiers = 3
)

type entry struct {
	idx  int
	tier int
}

type entries struct {
	items []entry
	pos   []int
}

func (e *entries) Len() int { return len(e.items) }

func (e *entries) Less(i, j int) bool {
	if e.items[i].tier != e.items[j].tier {
		return e.items[i].tier < e.items[j].tier
	}
	return e.items[i].idx < e.items[j].idx
}

func (e *entries) Swap(i, j int) {
	e.items[i], e.items[j] = e.items[j], e.items[i]
	e.pos[e.items[i].idx] = i
	e.pos[e.items[j].idx] = j
}

func (e *entries) Push(x any) {
	it := x.(entry)
	e.pos[it.idx] = len(e.items)
	e.items = append(e.items, it)
}

func (e *entries) Pop() any {
	n := len(e.items)
	it := e.items[n-1]
	e.items = e.items[:n-1]
	e.pos[it.idx] = -1
	return it
}

// Queue is an indexed priority queue of free cells.
type Queue struct {
	h      entries
	counts [numTiers]int
	queued int
}

// New queues every cell in free at TierPlain.
func New(cellCount int, free []int) *Queue {
	q := &Queue{
		h: entries{
			items: make([]entry, 0, cellCount),
			pos:   make([]int, cellCount),
		},
	}
	for i := range q.h.pos {
		q.h.pos[i] = -1
	}
	for _, idx := range free {
		q.h.pos[idx] = len(q.h.items)
		q.h.items = append(q.h.items, entry{idx: idx, tier: TierPlain})
	}
	heap.Init(&q.h)
	q.counts[TierPlain] = len(free)
	q.queued = len(free)
	return q
}

func (q *Queue) Contains(idx int) bool {
	return q.h.pos[idx] >= 0
}

func (q *Queue) Len() int {
	return len(q.h.items)
}

// Tier of a queued cell.
func (q *Queue) Tier(idx int) int {
	p := q.h.pos[idx]
	if p < 0 {
		panic(fmt.Sprintf("movequeue: cell %d is not queued", idx))
	}
	return q.h.items[p].tier
}

// Shift moves a queued cell to a new tier.
func (q *Queue) Shift(idx, tier int) {
	checkTier(tier)
	p := q.h.pos[idx]
	if p < 0 {
		panic(fmt.Sprintf("movequeue: shifting unqueued cell %d", idx))
	}
	old := q.h.items[p].tier
	if old == tier {
		return
	}
	q.counts[old]--
	q.counts[tier]++
	q.h.items[p].tier = tier
	heap.Fix(&q.h, p)
}

// Remove takes a cell out of the queue when it gets marked.
func (q *Queue) Remove(idx int) {
	p := q.h.pos[idx]
	if p < 0 {
		panic(fmt.Sprintf("movequeue: removing unqueued cell %d", idx))
	}
	it := heap.Remove(&q.h, p).(entry)
	q.counts[it.tier]--
	q.queued--
	q.check()
}

// Restore puts a cell back when its mark is undone.
func (q *Queue) Restore(idx, tier int) {
	checkTier(tier)
	if q.h.pos[idx] >= 0 {
		panic(fmt.Sprintf("movequeue: restoring queued cell %d", idx))
	}
	heap.Push(&q.h, entry{idx: idx, tier: tier})
	q.counts[tier]++
	q.queued++
	q.check()
}

// Moves returns every queued cell, lowest tier first and by cell index
// within a tier.
func (q *Queue) Moves() []int {
	items := slices.Clone(q.h.items)
	slices.SortFunc(items, func(a, b entry) int {
		if a.tier != b.tier {
			return a.tier - b.tier
		}
		return a.idx - b.idx
	})
	moves := make([]int, len(items))
	for i, it := range items {
		moves[i] = it.idx
	}
	return moves
}

// Count is the number of queued cells in a tier.
func (q *Queue) Count(tier int) int {
	checkTier(tier)
	return q.counts[tier]
}

func (q *Queue) check() {
	if q.queued != len(q.h.items) {
		panic(fmt.Sprintf("movequeue: membership count %d != heap size %d",
			q.queued, len(q.h.items)))
	}
}

func checkTier(tier int) {
	if tier < 0 || tier >= numTiers {
		panic(fmt.Sprintf("movequeue: bad tier %d", tier))
	}
}
