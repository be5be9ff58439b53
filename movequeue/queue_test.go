package movequeue

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"
)

func TestNewQueuesFreeCells(t *testing.T) {
	is := is.New(t)
	q := New(9, []int{0, 2, 4, 6, 8})
	is.Equal(q.Len(), 5)
	is.Equal(q.Count(TierPlain), 5)
	is.True(q.Contains(4))
	is.True(!q.Contains(1))
	is.Equal(q.Moves(), []int{0, 2, 4, 6, 8})
}

func TestShiftOrdersByTier(t *testing.T) {
	is := is.New(t)
	q := New(9, []int{0, 1, 2, 3, 4, 5, 6, 7, 8})
	q.Shift(8, TierDoubleThreat)
	q.Shift(3, TierCovered)
	q.Shift(1, TierCovered)
	is.Equal(q.Moves(), []int{8, 1, 3, 0, 2, 4, 5, 6, 7})
	is.Equal(q.Count(TierDoubleThreat), 1)
	is.Equal(q.Count(TierCovered), 2)
	is.Equal(q.Count(TierPlain), 6)

	q.Shift(8, TierPlain)
	is.Equal(q.Count(TierDoubleThreat), 0)
	is.Equal(q.Moves()[0], 1)
}

func TestRemoveRestore(t *testing.T) {
	is := is.New(t)
	q := New(9, []int{0, 1, 2, 3, 4, 5, 6, 7, 8})
	q.Shift(4, TierCovered)
	q.Remove(4)
	is.True(!q.Contains(4))
	is.Equal(q.Count(TierCovered), 0)
	is.Equal(q.Len(), 8)

	q.Restore(4, TierDoubleThreat)
	is.Equal(q.Tier(4), TierDoubleThreat)
	is.Equal(q.Moves()[0], 4)
	is.Equal(q.Len(), 9)
}

func TestRandomOperationsStaySorted(t *testing.T) {
	is := is.New(t)
	const n = 64
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	q := New(n, all)
	tiers := make(map[int]int, n)
	for i := range all {
		tiers[i] = TierPlain
	}
	for step := 0; step < 2000; step++ {
		idx := frand.Intn(n)
		tier := frand.Intn(numTiers)
		_, queued := tiers[idx]
		switch {
		case queued && frand.Intn(3) == 0:
			q.Remove(idx)
			delete(tiers, idx)
		case queued:
			q.Shift(idx, tier)
			tiers[idx] = tier
		default:
			q.Restore(idx, tier)
			tiers[idx] = tier
		}
		moves := q.Moves()
		is.Equal(len(moves), len(tiers))
		for i := 1; i < len(moves); i++ {
			a, b := moves[i-1], moves[i]
			is.True(tiers[a] < tiers[b] || (tiers[a] == tiers[b] && a < b))
		}
	}
	counts := [numTiers]int{}
	for _, tier := range tiers {
		counts[tier]++
	}
	for tier := 0; tier < numTiers; tier++ {
		is.Equal(q.Count(tier), counts[tier])
	}
}

func TestShiftUnqueuedPanics(t *testing.T) {
	is := is.New(t)
	q := New(4, []int{0, 1})
	defer func() {
		is.True(recover() != nil)
	}()
	q.Shift(3, TierCovered)
}

func TestBadTierPanics(t *testing.T) {
	is := is.New(t)
	q := New(4, []int{0, 1})
	defer func() {
		is.True(recover() != nil)
	}()
	q.Shift(0, 3)
}
