package intmap

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
	"github.com/cespare/xxhash/v2"
)

func BenchmarkMapIter(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkRuntimeMapIter, genSeqKeys))
		b.Run("keys=scatter", benchSizes(benchmarkRuntimeMapIter, genScatterKeys))
	})
	b.Run("impl=intMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkIntMapIter, genSeqKeys))
		b.Run("keys=scatter", benchSizes(benchmarkIntMapIter, genScatterKeys))
	})
}

func BenchmarkMapGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkRuntimeMapGetHit, genSeqKeys))
		b.Run("keys=scatter", benchSizes(benchmarkRuntimeMapGetHit, genScatterKeys))
	})
	b.Run("impl=intMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkIntMapGetHit, genSeqKeys))
		b.Run("keys=scatter", benchSizes(benchmarkIntMapGetHit, genScatterKeys))
	})
}

func BenchmarkMapGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkRuntimeMapGetMiss, genSeqKeys))
	})
	b.Run("impl=intMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkIntMapGetMiss, genSeqKeys))
	})
}

func BenchmarkMapPutGrow(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkRuntimeMapPutGrow, genSeqKeys))
	})
	b.Run("impl=intMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkIntMapPutGrow, genSeqKeys))
	})
}

func BenchmarkMapPutPreAllocate(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkRuntimeMapPutPreAllocate, genSeqKeys))
	})
	b.Run("impl=intMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkIntMapPutPreAllocate, genSeqKeys))
	})
}

func BenchmarkMapPutReuse(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkRuntimeMapPutReuse, genSeqKeys))
	})
	b.Run("impl=intMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkIntMapPutReuse, genSeqKeys))
	})
}

func BenchmarkMapPutDelete(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkRuntimeMapPutDelete, genSeqKeys))
		b.Run("keys=scatter", benchSizes(benchmarkRuntimeMapPutDelete, genScatterKeys))
	})
	b.Run("impl=intMap", func(b *testing.B) {
		b.Run("keys=seq", benchSizes(benchmarkIntMapPutDelete, genSeqKeys))
		b.Run("keys=scatter", benchSizes(benchmarkIntMapPutDelete, genScatterKeys))
	})
}

func benchSizes(
	f func(b *testing.B, n int, genKeys func(start, end int) []int32), genKeys func(start, end int) []int32,
) func(*testing.B) {
	var cases = []int{
		6, 12, 18, 24, 30,
		64,
		128,
		256,
		512,
		1024,
		2048,
		4096,
		8192,
		1 << 16,
	}

	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n, genKeys) })
		}
	}
}

func genSeqKeys(start, end int) []int32 {
	keys := make([]int32, end-start)
	for i := range keys {
		keys[i] = int32(start + i)
	}
	return keys
}

// genScatterKeys produces a deterministic stream of keys spread across the
// whole int32 range, closer to the object identifiers a heap snapshot hands
// out than a sequential counter.
func genScatterKeys(start, end int) []int32 {
	var buf [8]byte
	keys := make([]int32, end-start)
	for i := range keys {
		binary.LittleEndian.PutUint64(buf[:], uint64(start+i))
		keys[i] = int32(uint32(xxhash.Sum64(buf[:])))
	}
	return keys
}

func benchmarkRuntimeMapIter(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := make(map[int32]int64, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = int64(k)
	}
	b.ResetTimer()
	var tmp int64
	for i := 0; i < b.N; i++ {
		for k, v := range m {
			tmp += int64(k) + v
		}
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkIntMapIter(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := New[int64](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m.Put(k, int64(k))
	}
	b.ResetTimer()
	var tmp int64
	for i := 0; i < b.N; i++ {
		m.All(func(k int32, v int64) bool {
			tmp += int64(k) + v
			return true
		})
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkRuntimeMapGetHit(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := make(map[int32]int64, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = int64(k)
	}
	c := perfbench.Open(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[keys[i&(n-1)]]
	}
	b.StopTimer()
	c.Stop()
}

func benchmarkIntMapGetHit(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := New[int64](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m.Put(k, int64(k))
	}
	c := perfbench.Open(b)
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m.Get(keys[i&(n-1)])
	}
	b.StopTimer()
	c.Stop()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapGetMiss(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := make(map[int32]int64)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		m[k] = int64(k)
	}
	c := perfbench.Open(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[miss[i%len(miss)]]
	}
	b.StopTimer()
	c.Stop()
}

func benchmarkIntMapGetMiss(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := New[int64](0)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for j := range keys {
		m.Put(keys[j], int64(keys[j]))
	}
	c := perfbench.Open(b)
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m.Get(miss[i%len(miss)])
	}
	b.StopTimer()
	c.Stop()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapPutGrow(b *testing.B, n int, genKeys func(start, end int) []int32) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[int32]int64)
		for _, k := range keys {
			m[k] = int64(k)
		}
	}
}

func benchmarkIntMapPutGrow(b *testing.B, n int, genKeys func(start, end int) []int32) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := New[int64](0)
		for _, k := range keys {
			m.Put(k, int64(k))
		}
	}
}

func benchmarkRuntimeMapPutPreAllocate(b *testing.B, n int, genKeys func(start, end int) []int32) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[int32]int64, n)
		for _, k := range keys {
			m[k] = int64(k)
		}
	}
}

func benchmarkIntMapPutPreAllocate(b *testing.B, n int, genKeys func(start, end int) []int32) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := New[int64](n)
		for _, k := range keys {
			m.Put(k, int64(k))
		}
	}
}

func benchmarkRuntimeMapPutReuse(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := make(map[int32]int64, n)
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			m[k] = int64(k)
		}
		for k := range m {
			delete(m, k)
		}
	}
}

func benchmarkIntMapPutReuse(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := New[int64](n)
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			m.Put(k, int64(k))
		}
		m.Clear()
	}
}

func benchmarkRuntimeMapPutDelete(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := make(map[int32]int64, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = int64(k)
	}
	c := perfbench.Open(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % n
		delete(m, keys[j])
		m[keys[j]] = int64(keys[j])
	}
	b.StopTimer()
	c.Stop()
}

func benchmarkIntMapPutDelete(b *testing.B, n int, genKeys func(start, end int) []int32) {
	m := New[int64](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m.Put(k, int64(k))
	}
	c := perfbench.Open(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % n
		m.Delete(keys[j])
		m.Put(keys[j], int64(keys[j]))
	}
	b.StopTimer()
	c.Stop()
}
