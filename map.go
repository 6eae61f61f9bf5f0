// Copyright 2026 The Heapscan Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package intmap provides Map, a hash table from int32 keys to arbitrary
// values, built for programs that hold tens of millions of integer-keyed
// entries (object identifiers in a heap graph, row ids, dense handles) and
// care about per-entry overhead more than anything else.
//
// # Layout
//
// A Map is three parallel arrays sized to a prime capacity: a presence flag,
// a key, and a value per slot. There are no bucket headers, no per-entry
// boxes, and no chaining pointers; an entry costs one bool, one int32, and
// one V beyond the load-factor slack. Collisions are resolved by open
// addressing: a key hashes to a home slot and, when that slot is taken,
// probing walks forward in strides of a fixed prime step, wrapping at the
// capacity. If you're not familiar with open-addressing see
// https://en.wikipedia.org/wiki/Open_addressing. Capacity and step are
// chosen by the primes package so the probe sequence visits every slot
// before it repeats, and the table grows at 75% occupancy, so probing
// always terminates at a match or an empty slot.
//
// The hash is a fixed multiplicative (Fibonacci) hash: the key is
// sign-extended to 64 bits, multiplied by an odd constant derived from the
// golden ratio, and the product folded onto [0, capacity) by a pair of
// shifts computed in full 64-bit width. See
// https://en.wikipedia.org/wiki/Hash_function#Fibonacci_hashing. The
// function is deterministic across processes and platforms, which keeps
// serialized tables portable; there is deliberately no per-map seed.
//
// # Deletion
//
// Deletion does not leave tombstones. Removing an entry vacates its slot
// and re-seats every entry in the contiguous occupied run that follows it
// in probe order, so an empty slot always means "no key beyond this point"
// and lookups never degrade as entries churn. This is the backward-shift
// repair for stride probing, done as a loop rather than recursion so long
// clusters cannot grow the stack.
//
// # Iteration
//
// AllKeys, AllValues, and All walk the slots in index order, which is an
// artifact of hashing, not a sorted order; it is stable only while the map
// is unmodified. KeyCursor, ValueCursor, and PairCursor are single-pass
// cursors over the same order. Every cursor is fail-fast: structural
// changes (new key, delete, resize, clear) bump an internal revision, and a
// cursor that observes a bump reports ErrModified instead of yielding stale
// entries. Overwriting the value of an existing key is not a structural
// change.
//
// A Map is NOT goroutine-safe. There is no internal locking, and the
// revision check is a best-effort detector for mutation interleaved with
// iteration, not a substitute for external synchronization.
package intmap

import (
	"fmt"
	"math"
	"strings"

	"github.com/heapscan/intmap/primes"
)

const (
	debug = false

	// hashConst is 2^64 divided by the golden ratio, rounded to odd. The
	// low bits of key*hashConst cycle poorly for small keys, so home
	// discards 31 of them before scaling by the capacity.
	hashConst = 0x9e3779b97f4a7c15

	// defaultCapacity is the capacity hint used when New is given a
	// non-positive one.
	defaultCapacity = 10

	// maxSlotCount is the hard ceiling on capacity. home folds the hash
	// onto the table treating the capacity as a 31-bit value, so a larger
	// table would silently bias slot selection. MaxInt32 itself is prime,
	// and is the last capacity init can ever accept.
	maxSlotCount = math.MaxInt32
)

// defaultMaxCapacity is the largest capacity request the growth policy
// makes on its own: one below the largest prime that still leaves a little
// headroom under 2^31 slots. Doubling stops here and growth degrades to the
// smallest possible request, so allocation failure arrives as late as the
// platform allows. WithMaxCapacity overrides it per map.
var defaultMaxCapacity = primes.Prev(math.MaxInt32-7) - 1

// Map is a hash table from int32 keys to values of type V, using open
// addressing over prime-sized storage. The zero value of Map is not usable;
// call New.
//
// A Map is NOT goroutine-safe.
type Map[V any] struct {
	// capacity is the slot count, always prime. step is the probe stride,
	// a smaller prime derived from the size request; both change only on
	// resize. limit is 75% of capacity, the occupancy that triggers
	// growth.
	capacity int
	step     int
	limit    int
	size     int
	// rev counts structural mutations and lets cursors fail fast. It is
	// not a synchronization mechanism.
	rev uint64
	// maxCapacity bounds the doubling regime of the growth policy.
	maxCapacity int
	// Parallel slot storage. Slot i holds an entry iff used[i]; keys[i]
	// and values[i] are meaningless otherwise.
	used   []bool
	keys   []int32
	values []V
}

// New constructs an empty Map. initialCapacity is a hint for the number of
// entries the map should accommodate before growing; non-positive values
// select a small default. The capacity actually allocated is the next prime
// at or above the hint.
func New[V any](initialCapacity int, opts ...option[V]) *Map[V] {
	if initialCapacity <= 0 {
		initialCapacity = defaultCapacity
	}
	m := &Map[V]{maxCapacity: defaultMaxCapacity}
	for _, op := range opts {
		op.apply(m)
	}
	m.init(initialCapacity)
	m.checkInvariants()
	return m
}

// init sizes fresh storage for a capacity request. The step is derived from
// the request, not from the rounded prime, so a table built with a given
// request always probes identically.
func (m *Map[V]) init(requested int) {
	capacity := primes.Next(requested)
	if capacity > maxSlotCount {
		// The growth policy crawls by +1 once doubling is exhausted, so
		// landing here means every smaller prime is already in use.
		panic(fmt.Sprintf("intmap: capacity %d exceeds the largest usable prime table (%d)",
			capacity, maxSlotCount))
	}
	m.capacity = capacity
	m.step = max(1, primes.Prev(requested/3))
	m.limit = m.capacity * 3 / 4
	m.size = 0
	m.used = make([]bool, m.capacity)
	m.keys = make([]int32, m.capacity)
	m.values = make([]V, m.capacity)
}

// home returns the slot key hashes to before any probing. The key is
// sign-extended and multiplied in 64-bit width; the top of the product is
// then scaled by the capacity, again in 64-bit width with the capacity
// treated as a 31-bit value. The two shifts together behave like
// floor(frac(key*phi)*capacity) and spread even adversarial key patterns
// (sequential ids, strided ids) evenly across the slots.
func (m *Map[V]) home(key int32) int {
	h := (uint64(int64(key)) * hashConst) >> 31
	return int((h * uint64(m.capacity)) >> 33)
}

// next advances a probe by one stride. step < capacity always holds, so a
// single conditional subtraction wraps the sum.
func (m *Map[V]) next(slot int) int {
	slot += m.step
	if slot >= m.capacity {
		slot -= m.capacity
	}
	return slot
}

// Get retrieves the value stored for key, with ok=false if the key is not
// present.
func (m *Map[V]) Get(key int32) (value V, ok bool) {
	slot := m.home(key)
	for m.used[slot] {
		if m.keys[slot] == key {
			return m.values[slot], true
		}
		slot = m.next(slot)
	}
	return value, false
}

// Contains reports whether key is present.
func (m *Map[V]) Contains(key int32) bool {
	slot := m.home(key)
	for m.used[slot] {
		if m.keys[slot] == key {
			return true
		}
		slot = m.next(slot)
	}
	return false
}

// Put inserts or overwrites the entry for key. It returns the previous
// value and replaced=true when an entry already existed; overwriting is not
// a structural change and does not invalidate cursors. Inserting a new key
// may grow the table.
func (m *Map[V]) Put(key int32, value V) (prev V, replaced bool) {
	// NB: Get, Contains, Put, and Delete each carry their own copy of the
	// probe loop rather than sharing a find routine; the shared version
	// costs a call and a multi-value return on the hottest paths.
	slot := m.home(key)
	if debug {
		fmt.Printf("put(%d): home=%d step=%d\n", key, slot, m.step)
	}
	for m.used[slot] {
		if m.keys[slot] == key {
			prev = m.values[slot]
			m.values[slot] = value
			return prev, true
		}
		slot = m.next(slot)
	}
	if m.size == m.limit {
		m.grow()
		// Capacity and step changed; probe the insertion point from
		// scratch.
		slot = m.home(key)
		for m.used[slot] {
			if m.keys[slot] == key {
				// The probe above proved key absent, so finding it now
				// means another goroutine mutated the map between the
				// two probes. Continuing would corrupt the table.
				panic(fmt.Sprintf("intmap: key %d appeared during resize; concurrent modification", key))
			}
			slot = m.next(slot)
		}
	}
	m.used[slot] = true
	m.keys[slot] = key
	m.values[slot] = value
	m.size++
	m.rev++
	m.checkInvariants()
	return prev, false
}

// grow picks the next capacity request: double while there is room below
// the configured maximum, then clamp to the maximum, then crawl by +1 so
// progress continues until the allocator (or the 2^31-1 slot wall) stops
// it.
func (m *Map[V]) grow() {
	var target int
	switch {
	case m.capacity <= m.maxCapacity>>1:
		target = m.capacity << 1
	case m.capacity < m.maxCapacity:
		target = m.maxCapacity
	default:
		target = m.capacity + 1
	}
	if debug {
		fmt.Printf("grow: capacity=%d size=%d target=%d\n", m.capacity, m.size, target)
	}
	m.resize(target)
}

// resize rehashes every entry into fresh storage sized for the request. Old
// slot positions carry no information for the new geometry, so each key is
// re-probed from its new home; no key comparisons are needed because the
// source table cannot contain duplicates.
func (m *Map[V]) resize(requested int) {
	oldSize, oldUsed, oldKeys, oldValues := m.size, m.used, m.keys, m.values
	m.init(requested)
	for i, u := range oldUsed {
		if !u {
			continue
		}
		key := oldKeys[i]
		slot := m.home(key)
		for m.used[slot] {
			slot = m.next(slot)
		}
		m.used[slot] = true
		m.keys[slot] = key
		m.values[slot] = oldValues[i]
	}
	m.size = oldSize
	m.rev++
}

// Delete removes the entry for key, returning its value and found=true if
// it was present. Deleting an absent key is a no-op and does not invalidate
// cursors.
func (m *Map[V]) Delete(key int32) (prev V, found bool) {
	var zero V
	slot := m.home(key)
	for m.used[slot] {
		if m.keys[slot] == key {
			prev = m.values[slot]
			m.used[slot] = false
			m.values[slot] = zero
			m.size--
			if debug {
				fmt.Printf("delete(%d): slot=%d\n", key, slot)
			}
			// Re-seat the contiguous occupied run that follows the
			// vacated slot in probe order. Each entry in the run is
			// lifted out and re-inserted from its own home, which may
			// put it right back, drop it into the hole, or shift it
			// further along; the first empty slot ends the run. The 75%
			// limit guarantees such a slot exists, so this terminates.
			// No tombstone is ever left behind.
			for slot = m.next(slot); m.used[slot]; slot = m.next(slot) {
				k, v := m.keys[slot], m.values[slot]
				m.used[slot] = false
				m.values[slot] = zero
				dest := m.home(k)
				for m.used[dest] {
					dest = m.next(dest)
				}
				m.used[dest] = true
				m.keys[dest] = k
				m.values[dest] = v
			}
			m.rev++
			m.checkInvariants()
			return prev, true
		}
		slot = m.next(slot)
	}
	m.checkInvariants()
	return zero, false
}

// Clear removes all entries while keeping the current capacity and step.
// Clear is a structural change.
func (m *Map[V]) Clear() {
	m.size = 0
	m.used = make([]bool, m.capacity)
	// Stale keys are inert behind cleared presence flags, but stale
	// values would pin caller memory; drop the references.
	clear(m.values)
	m.rev++
	m.checkInvariants()
}

// Len returns the number of entries in the map.
func (m *Map[V]) Len() int {
	return m.size
}

// IsEmpty reports whether the map has no entries.
func (m *Map[V]) IsEmpty() bool {
	return m.size == 0
}

// AllKeys returns the keys of all entries in storage order. The order is an
// artifact of hashing and is stable only while the map is unmodified.
func (m *Map[V]) AllKeys() []int32 {
	out := make([]int32, 0, m.size)
	for i, u := range m.used {
		if u {
			out = append(out, m.keys[i])
		}
	}
	return out
}

// AllValues returns the values of all entries in storage order. Values
// stored under different keys may repeat.
func (m *Map[V]) AllValues() []V {
	out := make([]V, 0, m.size)
	for i, u := range m.used {
		if u {
			out = append(out, m.values[i])
		}
	}
	return out
}

// All calls yield for each entry in storage order until yield returns
// false. Like the cursors, All is fail-fast: if yield mutates the map
// structurally, the next step panics with ErrModified rather than yielding
// stale entries.
func (m *Map[V]) All(yield func(key int32, value V) bool) {
	rev := m.rev
	for i, u := range m.used {
		if !u {
			continue
		}
		if m.rev != rev {
			panic(ErrModified)
		}
		if !yield(m.keys[i], m.values[i]) {
			return
		}
	}
}

func (m *Map[V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d step=%d limit=%d size=%d rev=%d\n",
		m.capacity, m.step, m.limit, m.size, m.rev)
	for i, u := range m.used {
		if u {
			fmt.Fprintf(&buf, "  %4d: key=%d home=%d\n", i, m.keys[i], m.home(m.keys[i]))
		}
	}
	return buf.String()
}

func (m *Map[V]) checkInvariants() {
	if invariants {
		if m.capacity < 2 || m.capacity > maxSlotCount {
			panic(fmt.Sprintf("invariant failed: capacity %d out of range\n%s",
				m.capacity, m.debugString()))
		}
		if m.step < 1 || m.step >= m.capacity {
			panic(fmt.Sprintf("invariant failed: step %d out of range for capacity %d\n%s",
				m.step, m.capacity, m.debugString()))
		}
		if m.size < 0 || m.size > m.limit || m.limit >= m.capacity {
			panic(fmt.Sprintf("invariant failed: size=%d limit=%d capacity=%d\n%s",
				m.size, m.limit, m.capacity, m.debugString()))
		}

		// Every occupied slot must hold a distinct key that a probe from
		// its home reaches before any empty slot, i.e. Get must find it.
		seen := make(map[int32]struct{}, m.size)
		var count int
		for i, u := range m.used {
			if !u {
				continue
			}
			count++
			key := m.keys[i]
			if _, dup := seen[key]; dup {
				panic(fmt.Sprintf("invariant failed: key %d occupies two slots\n%s",
					key, m.debugString()))
			}
			seen[key] = struct{}{}
			if !m.Contains(key) {
				panic(fmt.Sprintf("invariant failed: slot(%d): key %d unreachable from home %d\n%s",
					i, key, m.home(key), m.debugString()))
			}
		}
		if count != m.size {
			panic(fmt.Sprintf("invariant failed: found %d occupied slots, but size is %d\n%s",
				count, m.size, m.debugString()))
		}
	}
}
