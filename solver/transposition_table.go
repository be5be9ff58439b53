package solver

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

const entrySize = 16

const (
	minSizePowerOf2 = 16
	maxSizePowerOf2 = 24
)

// 16 bytes (entrySize)
type TableEntry struct {
	hash  uint64
	score float32
	depth uint16
	flag  uint8
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag != 0
}

type TranspositionTable struct {
	table        []TableEntry
	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	sizePowerOf2 int
	sizeMask     uint64
	// "type 2" collisions: two positions landing in the same bucket.
	t2collisions atomic.Uint64
}

func (t *TranspositionTable) lookup(zval uint64) TableEntry {
	t.lookups.Add(1)
	idx := zval & t.sizeMask
	if t.table[idx].hash != zval {
		if t.table[idx].valid() {
			// There is another unrelated node at this position.
			t.t2collisions.Add(1)
		}
		return TableEntry{}
	}
	t.hits.Add(1)
	return t.table[idx]
}

func (t *TranspositionTable) store(zval uint64, tentry TableEntry) {
	idx := zval & t.sizeMask
	tentry.hash = zval
	// just overwrite whatever is there.
	t.table[idx] = tentry
	t.created.Add(1)
}

// Reset sizes the table to a fraction of system memory, clearing it if the
// size did not change.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	t.sizePowerOf2 = sizePowerOf2For(desiredNElems)

	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

// sizePowerOf2For finds the biggest power of 2 lower than desired, within
// the table limits.
func sizePowerOf2For(desiredNElems float64) int {
	p := minSizePowerOf2
	if desiredNElems >= 1 {
		p = int(math.Log2(desiredNElems))
	}
	return min(max(p, minSizePowerOf2), maxSizePowerOf2)
}

func (t *TranspositionTable) Size() int {
	return len(t.table)
}
