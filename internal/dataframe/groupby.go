package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
	dferrors "github.com/paveg/phasor/internal/errors"
)

// Group is one partition of a frame: the row positions sharing a key, in row order.
type Group struct {
	Rows []int
}

// First returns the position of the first row of the group
func (g Group) First() int {
	return g.Rows[0]
}

// GroupIndices partitions the rows of df by the values of keys. Groups are
// returned in order of first appearance. With no keys the whole frame is one
// group.
func (df *DataFrame) GroupIndices(keys ...string) ([]Group, error) {
	n := df.Len()
	if len(keys) == 0 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		if n == 0 {
			return nil, nil
		}
		return []Group{{Rows: rows}}, nil
	}

	cols, err := df.keyArrays("GroupBy", keys)
	if err != nil {
		return nil, err
	}

	index := newKeyIndex(n)
	for row := 0; row < n; row++ {
		index.put(rowKey(cols, row), row)
	}

	partitions := index.groups()
	groups := make([]Group, len(partitions))
	for i, rows := range partitions {
		groups[i] = Group{Rows: rows}
	}
	return groups, nil
}

// GroupBy splits df into one frame per distinct key, in order of first appearance.
func (df *DataFrame) GroupBy(keys ...string) ([]*DataFrame, error) {
	groups, err := df.GroupIndices(keys...)
	if err != nil {
		return nil, err
	}
	frames := make([]*DataFrame, 0, len(groups))
	for _, g := range groups {
		part, err := df.Take(g.Rows)
		if err != nil {
			for _, f := range frames {
				f.Release()
			}
			return nil, err
		}
		frames = append(frames, part)
	}
	return frames, nil
}

// keyArrays returns the borrowed arrays of the named key columns
func (df *DataFrame) keyArrays(op string, keys []string) ([]arrow.Array, error) {
	cols := make([]arrow.Array, len(keys))
	for i, key := range keys {
		s, exists := df.columns[key]
		if !exists {
			return nil, dferrors.NewColumnNotFoundError(op, key)
		}
		arr := s.Array()
		arr.Release()
		cols[i] = arr
	}
	return cols, nil
}
