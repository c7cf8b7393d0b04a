package dataframe

import (
	"fmt"

	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/series"
)

// JoinType selects which unmatched rows a join keeps
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

func (j JoinType) String() string {
	if j == LeftJoin {
		return "left"
	}
	return "inner"
}

// RightSuffix is appended to right-hand value columns whose name clashes with
// a left-hand column.
const RightSuffix = "_right"

// JoinOptions specifies the join keys and type
type JoinOptions struct {
	On        []string // keys present under the same name on both sides
	LeftKeys  []string
	RightKeys []string
	Type      JoinType
}

func (o *JoinOptions) keys() (left, right []string, err error) {
	if len(o.On) > 0 {
		return o.On, o.On, nil
	}
	if len(o.LeftKeys) == 0 || len(o.LeftKeys) != len(o.RightKeys) {
		return nil, nil, dferrors.NewInvalidInputError("Join",
			fmt.Sprintf("need matching key lists, got %d left and %d right", len(o.LeftKeys), len(o.RightKeys)))
	}
	return o.LeftKeys, o.RightKeys, nil
}

// Join combines df with right on equal key values. Output columns are the left
// columns followed by the right non-key columns; clashing right names get
// RightSuffix. Row order follows the left frame, and for each left row the
// matching right rows in their original order.
func (df *DataFrame) Join(right *DataFrame, options *JoinOptions) (*DataFrame, error) {
	const op = "Join"
	if options == nil {
		return nil, dferrors.NewInvalidInputError(op, "join options are required")
	}
	leftKeys, rightKeys, err := options.keys()
	if err != nil {
		return nil, err
	}

	leftCols, err := df.keyArrays(op, leftKeys)
	if err != nil {
		return nil, err
	}
	rightCols, err := right.keyArrays(op, rightKeys)
	if err != nil {
		return nil, err
	}

	index := newKeyIndex(right.Len())
	for row := 0; row < right.Len(); row++ {
		index.put(rowKey(rightCols, row), row)
	}

	leftIndices := make([]int, 0, df.Len())
	rightIndices := make([]int, 0, df.Len())
	for row := 0; row < df.Len(); row++ {
		matches, found := index.get(rowKey(leftCols, row))
		if !found {
			if options.Type == LeftJoin {
				leftIndices = append(leftIndices, row)
				rightIndices = append(rightIndices, -1)
			}
			continue
		}
		for _, m := range matches {
			leftIndices = append(leftIndices, row)
			rightIndices = append(rightIndices, m)
		}
	}

	return df.buildJoinResult(right, rightKeys, leftIndices, rightIndices)
}

func (df *DataFrame) buildJoinResult(right *DataFrame, rightKeys []string, leftIndices, rightIndices []int) (*DataFrame, error) {
	leftPart, err := df.Take(leftIndices)
	if err != nil {
		return nil, err
	}

	keySet := make(map[string]bool, len(rightKeys))
	for _, k := range rightKeys {
		keySet[k] = true
	}
	valueNames := make([]string, 0, right.Width())
	for _, name := range right.order {
		if !keySet[name] {
			valueNames = append(valueNames, name)
		}
	}

	rightValues := right.Select(valueNames...)
	defer rightValues.Release()
	rightPart, err := rightValues.Take(rightIndices)
	if err != nil {
		leftPart.Release()
		return nil, err
	}
	defer rightPart.Release()

	for _, name := range rightPart.order {
		target := name
		if leftPart.HasColumn(target) {
			target = name + RightSuffix
		}
		leftPart.columns[target] = series.Rename(rightPart.columns[name], target)
		leftPart.order = append(leftPart.order, target)
	}
	return leftPart, nil
}
