package dataframe

import (
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	xxhash "github.com/cespare/xxhash/v2"
)

const (
	hashMapLoadFactor     = 0.75 // load factor for the key index
	hashMapGrowthFactor   = 2    // growth factor on resize
	hashMapCapacityFactor = 1.3  // capacity factor for the initial size
)

// keyIndex maps composite row keys to row positions, remembering the order in
// which keys were first seen. Buckets hold positions into entries.
type keyIndex struct {
	buckets  [][]int
	entries  []hashEntry
	capacity int
}

type hashEntry struct {
	key  string
	rows []int
}

func newKeyIndex(estimatedSize int) *keyIndex {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * hashMapCapacityFactor))
	return &keyIndex{
		buckets:  make([][]int, capacity),
		capacity: capacity,
	}
}

func bucketOf(key string, capacity int) int {
	//nolint:gosec // capacity is always a positive power of two
	return int(xxhash.Sum64String(key) & uint64(capacity-1))
}

// put appends row to the entry for key
func (ki *keyIndex) put(key string, row int) {
	idx := bucketOf(key, ki.capacity)
	for _, pos := range ki.buckets[idx] {
		if ki.entries[pos].key == key {
			ki.entries[pos].rows = append(ki.entries[pos].rows, row)
			return
		}
	}

	ki.buckets[idx] = append(ki.buckets[idx], len(ki.entries))
	ki.entries = append(ki.entries, hashEntry{key: key, rows: []int{row}})

	if float64(len(ki.entries)) > float64(ki.capacity)*hashMapLoadFactor {
		ki.resize()
	}
}

// get returns the rows recorded for key
func (ki *keyIndex) get(key string) ([]int, bool) {
	for _, pos := range ki.buckets[bucketOf(key, ki.capacity)] {
		if ki.entries[pos].key == key {
			return ki.entries[pos].rows, true
		}
	}
	return nil, false
}

// groups returns the row lists in first-seen key order
func (ki *keyIndex) groups() [][]int {
	out := make([][]int, len(ki.entries))
	for i, entry := range ki.entries {
		out[i] = entry.rows
	}
	return out
}

// resize doubles the capacity and rehashes all entries.
func (ki *keyIndex) resize() {
	newCapacity := ki.capacity * hashMapGrowthFactor
	newBuckets := make([][]int, newCapacity)
	for pos, entry := range ki.entries {
		idx := bucketOf(entry.key, newCapacity)
		newBuckets[idx] = append(newBuckets[idx], pos)
	}
	ki.buckets = newBuckets
	ki.capacity = newCapacity
}

// nextPowerOfTwo returns the next power of two >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// Key part tags. Numbers share one tag so equal int64 and float64 values
// collide; int64 values a float64 cannot hold exactly get their own.
const (
	tagNull   = 'n'
	tagNumber = 'f'
	tagInt    = 'i'
	tagString = 's'
	tagBool   = 'b'
	tagOther  = 'v'
)

// maxExactInt bounds the integers float64 represents exactly
const maxExactInt = 1 << 53

// rowKey renders the values of cols at row into a comparable key. Each part
// is written as tag, length and payload, so no value can spill into its
// neighbour or pose as a null.
func rowKey(cols []arrow.Array, row int) string {
	var sb strings.Builder
	for _, col := range cols {
		if col.IsNull(row) {
			writeKeyPart(&sb, tagNull, "")
			continue
		}
		switch typed := col.(type) {
		case *array.String:
			writeKeyPart(&sb, tagString, typed.Value(row))
		case *array.Int64:
			v := typed.Value(row)
			if v >= -maxExactInt && v <= maxExactInt {
				writeKeyPart(&sb, tagNumber, formatKeyFloat(float64(v)))
			} else {
				writeKeyPart(&sb, tagInt, strconv.FormatInt(v, 10))
			}
		case *array.Float64:
			writeKeyPart(&sb, tagNumber, formatKeyFloat(typed.Value(row)))
		case *array.Boolean:
			writeKeyPart(&sb, tagBool, strconv.FormatBool(typed.Value(row)))
		default:
			writeKeyPart(&sb, tagOther, col.ValueStr(row))
		}
	}
	return sb.String()
}

func writeKeyPart(sb *strings.Builder, tag byte, payload string) {
	sb.WriteByte(tag)
	sb.WriteString(strconv.Itoa(len(payload)))
	sb.WriteByte(':')
	sb.WriteString(payload)
}

// formatKeyFloat folds -0 into 0 and every NaN into one key
func formatKeyFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case v == 0:
		return "0"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
