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

package intmap

import "errors"

var (
	// ErrDone is returned by a cursor's Next when the iteration has no
	// more entries. Calling Next again keeps returning ErrDone.
	ErrDone = errors.New("intmap: no more entries")

	// ErrModified is returned by a cursor's Next, and raised as a panic by
	// Pair accessors and by All, when the map has been structurally
	// modified since the cursor observed it. A cursor that has reported
	// ErrModified never recovers; start a new one.
	ErrModified = errors.New("intmap: map modified during iteration")
)

// A cursor advances through the slots of a map in storage order, snapshotting
// the revision it was created under. It backs all three exported cursor
// types. Each call to nextSlot re-checks the revision before touching slot
// storage so a structural change can never surface stale entries, even when
// the change shrank nothing but rehashed everything.
type cursor[V any] struct {
	m    *Map[V]
	rev  uint64
	slot int
}

func (c *cursor[V]) nextSlot() (int, error) {
	if c.m.rev != c.rev {
		return 0, ErrModified
	}
	for c.slot < c.m.capacity {
		i := c.slot
		c.slot++
		if c.m.used[i] {
			return i, nil
		}
	}
	return 0, ErrDone
}

// KeyCursor is a single-pass, forward-only cursor over the keys of a Map.
type KeyCursor[V any] struct {
	c cursor[V]
}

// KeyCursor returns a cursor over the keys of m in storage order.
func (m *Map[V]) KeyCursor() *KeyCursor[V] {
	return &KeyCursor[V]{c: cursor[V]{m: m, rev: m.rev}}
}

// Next returns the next key. It returns ErrDone when the iteration is
// exhausted and ErrModified when the map has been structurally modified
// since the cursor was created.
func (c *KeyCursor[V]) Next() (int32, error) {
	i, err := c.c.nextSlot()
	if err != nil {
		return 0, err
	}
	return c.c.m.keys[i], nil
}

// ValueCursor is a single-pass, forward-only cursor over the values of a
// Map.
type ValueCursor[V any] struct {
	c cursor[V]
}

// ValueCursor returns a cursor over the values of m in storage order.
func (m *Map[V]) ValueCursor() *ValueCursor[V] {
	return &ValueCursor[V]{c: cursor[V]{m: m, rev: m.rev}}
}

// Next returns the next value. It returns ErrDone when the iteration is
// exhausted and ErrModified when the map has been structurally modified
// since the cursor was created.
func (c *ValueCursor[V]) Next() (value V, _ error) {
	i, err := c.c.nextSlot()
	if err != nil {
		return value, err
	}
	return c.c.m.values[i], nil
}

// PairCursor is a single-pass, forward-only cursor over the entries of a
// Map, yielding each as a Pair.
type PairCursor[V any] struct {
	c cursor[V]
}

// PairCursor returns a cursor over the entries of m in storage order.
func (m *Map[V]) PairCursor() *PairCursor[V] {
	return &PairCursor[V]{c: cursor[V]{m: m, rev: m.rev}}
}

// Next returns the next entry as a Pair. It returns ErrDone when the
// iteration is exhausted and ErrModified when the map has been structurally
// modified since the cursor was created. The returned Pair is only valid
// when err is nil.
func (c *PairCursor[V]) Next() (Pair[V], error) {
	i, err := c.c.nextSlot()
	if err != nil {
		return Pair[V]{}, err
	}
	return Pair[V]{m: c.c.m, rev: c.c.rev, slot: i}, nil
}

// Pair is a live view of one entry, handed out by PairCursor. It reads the
// entry's slot directly rather than copying the value, so a Pair held
// across a structural modification of the map must not be trusted: Key and
// Value re-check the revision and panic with ErrModified rather than
// return an entry the slot may no longer hold.
type Pair[V any] struct {
	m    *Map[V]
	rev  uint64
	slot int
}

// Key returns the entry's key. It panics with ErrModified if the map has
// been structurally modified since the Pair was yielded.
func (p Pair[V]) Key() int32 {
	if p.m.rev != p.rev {
		panic(ErrModified)
	}
	return p.m.keys[p.slot]
}

// Value returns the entry's value. It panics with ErrModified if the map
// has been structurally modified since the Pair was yielded.
func (p Pair[V]) Value() V {
	if p.m.rev != p.rev {
		panic(ErrModified)
	}
	return p.m.values[p.slot]
}
