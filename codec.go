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

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/heapscan/intmap/primes"
)

// tableHeader is the scalar prefix of the wire form. The step is written
// for the sake of older readers but ignored on decode, where it is
// recomputed from the capacity, so streams survive changes to the step
// formula.
type tableHeader struct {
	Capacity int64
	Step     int64
	Limit    int64
	Size     int64
	Revision uint64
}

// GobEncode implements gob.GobEncoder. The wire form is the table header
// followed by exactly Size key/value pairs in storage order; empty slots
// are not written, so the stream is proportional to the entry count, not
// the capacity. V must itself be gob-encodable (interface-typed values need
// gob.Register, as usual).
func (m *Map[V]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	hdr := tableHeader{
		Capacity: int64(m.capacity),
		Step:     int64(m.step),
		Limit:    int64(m.limit),
		Size:     int64(m.size),
		Revision: m.rev,
	}
	if err := enc.Encode(hdr); err != nil {
		return nil, fmt.Errorf("intmap: encode header: %w", err)
	}
	for i, u := range m.used {
		if !u {
			continue
		}
		if err := enc.Encode(m.keys[i]); err != nil {
			return nil, fmt.Errorf("intmap: encode key %d: %w", m.keys[i], err)
		}
		if err := enc.Encode(&m.values[i]); err != nil {
			return nil, fmt.Errorf("intmap: encode value for key %d: %w", m.keys[i], err)
		}
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder, replacing the receiver's contents
// with the decoded table. Decoding into the zero Map is fine; decoding into
// a map configured by New keeps its options. On error the receiver is left
// in an unspecified state.
//
// The header's geometry is validated before any allocation: a capacity
// outside [2, 2^31-1] or a size/limit pair not satisfying
// 0 <= size <= limit < capacity is rejected, since those bounds are what
// guarantee probe termination. The stored step is discarded and recomputed
// from the capacity with the current formula; entries are re-probed from
// scratch as they load, so the table is self-consistent even when the
// writer probed with a different step.
func (m *Map[V]) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var hdr tableHeader
	if err := dec.Decode(&hdr); err != nil {
		return fmt.Errorf("intmap: decode header: %w", err)
	}
	if hdr.Capacity < 2 || hdr.Capacity > maxSlotCount {
		return fmt.Errorf("intmap: corrupt stream: capacity %d out of range", hdr.Capacity)
	}
	if hdr.Size < 0 || hdr.Size > hdr.Limit || hdr.Limit >= hdr.Capacity {
		return fmt.Errorf("intmap: corrupt stream: size=%d limit=%d capacity=%d",
			hdr.Size, hdr.Limit, hdr.Capacity)
	}
	m.capacity = int(hdr.Capacity)
	// At construction the step came from the pre-rounding size request,
	// which the stream does not carry; the nearest reconstruction is from
	// the capacity itself.
	m.step = max(1, primes.Prev(m.capacity/3))
	m.limit = int(hdr.Limit)
	m.size = int(hdr.Size)
	m.rev = hdr.Revision
	if m.maxCapacity == 0 {
		m.maxCapacity = defaultMaxCapacity
	}
	m.used = make([]bool, m.capacity)
	m.keys = make([]int32, m.capacity)
	m.values = make([]V, m.capacity)
	for n := int64(0); n < hdr.Size; n++ {
		var key int32
		if err := dec.Decode(&key); err != nil {
			return fmt.Errorf("intmap: decode key %d of %d: %w", n, hdr.Size, err)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("intmap: decode value %d of %d: %w", n, hdr.Size, err)
		}
		m.putQuick(key, value)
	}
	return nil
}

// putQuick places an entry during a reload. The table is already sized for
// the incoming entry count, so there is no growth check and no revision
// bump; size was set from the header. It still compares keys along the
// probe so that a corrupt stream repeating a key overwrites the earlier
// occurrence instead of occupying a second slot, which would break probing
// for every key behind it.
func (m *Map[V]) putQuick(key int32, value V) {
	slot := m.home(key)
	for m.used[slot] {
		if m.keys[slot] == key {
			m.values[slot] = value
			return
		}
		slot = m.next(slot)
	}
	m.used[slot] = true
	m.keys[slot] = key
	m.values[slot] = value
}
