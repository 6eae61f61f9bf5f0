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

// Package primes supplies the prime sizing used by the intmap hash table:
// the next prime at or above a requested capacity, and the previous prime at
// or below a requested probe step. Both are exact, not drawn from a stepped
// capacity table, so two builds always agree on the capacity chosen for a
// given request.
package primes

// Next returns the smallest prime >= n. For n <= 2 it returns 2.
func Next(n int) int {
	if n <= 2 {
		return 2
	}
	if n&1 == 0 {
		n++
	}
	for !isPrime(n) {
		n += 2
	}
	return n
}

// Prev returns the largest prime <= n, or 0 if no such prime exists (n < 2).
func Prev(n int) int {
	if n < 2 {
		return 0
	}
	if n == 2 {
		return 2
	}
	if n&1 == 0 {
		n--
	}
	for n > 2 && !isPrime(n) {
		n -= 2
	}
	return n
}

// isPrime reports whether n is prime by trial division over 6k±1
// candidates. The largest inputs the map ever asks about are a little over
// 2^31, so the division bound is ~46341 and a call is cheap enough to run on
// every resize.
func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n < 4 {
		return true
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}
	for i := 5; i*i <= n; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}
