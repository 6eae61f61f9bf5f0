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

// option provides an interface to do work on Map while it is being created.
type option[V any] interface {
	apply(m *Map[V])
}

type maxCapacityOption[V any] struct {
	maxCapacity int
}

func (op maxCapacityOption[V]) apply(m *Map[V]) {
	m.maxCapacity = op.maxCapacity
}

// WithMaxCapacity is an option to bound the doubling regime of the growth
// policy for a Map[V]. Once the capacity reaches maxCapacity the table no
// longer doubles; further growth proceeds one slot request at a time. The
// bound exists so the last doubling step below 2^31 slots does not ask the
// allocator for twice the memory the entries need; it is also useful in
// tests to reach the clamp-and-crawl regime with small tables. It does not
// cap the number of entries.
func WithMaxCapacity[V any](maxCapacity int) option[V] {
	return maxCapacityOption[V]{maxCapacity}
}
