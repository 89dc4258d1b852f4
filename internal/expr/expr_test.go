package expr

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSet is a Predicate over a small universe of integer ids.
type testSet struct {
	ids      map[int]struct{}
	universe []int
}

func newTestSet(universe []int, ids ...int) *testSet {
	s := &testSet{ids: map[int]struct{}{}, universe: universe}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *testSet) And(other Predicate) Predicate {
	o := other.(*testSet)
	out := newTestSet(s.universe)
	for id := range s.ids {
		if _, ok := o.ids[id]; ok {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

func (s *testSet) Or(other Predicate) Predicate {
	o := other.(*testSet)
	out := newTestSet(s.universe)
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	for id := range o.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

func (s *testSet) Not() Predicate {
	out := newTestSet(s.universe)
	for _, id := range s.universe {
		if _, ok := s.ids[id]; !ok {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

func (s *testSet) sorted() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func TestEvaluate(t *testing.T) {
	universe := []int{1, 2, 3, 4}
	// color: 1,2 red; 3 blue. size: 2,3 big.
	resolve := func(variable, operator, value string) (Predicate, error) {
		key := variable + operator + value
		switch key {
		case "color=red":
			return newTestSet(universe, 1, 2), nil
		case "color=blue":
			return newTestSet(universe, 3), nil
		case "size=big":
			return newTestSet(universe, 2, 3), nil
		}
		return newTestSet(universe), nil
	}

	tests := []struct {
		query string
		want  []int
	}{
		{"color = 'red'", []int{1, 2}},
		{"color = 'red' and size = 'big'", []int{2}},
		{"color = 'red' or color = 'blue'", []int{1, 2, 3}},
		{"not color = 'red'", []int{3, 4}},
		{"not (color = 'red' or size = 'big')", []int{4}},
		{"color = 'green'", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			e, err := Parse(tt.query)
			require.NoError(t, err)
			result, err := Evaluate(e, resolve)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.(*testSet).sorted())
		})
	}
}

func TestEvaluateResolverError(t *testing.T) {
	e, err := Parse("(a = '1') and (b = '2')")
	require.NoError(t, err)

	_, err = Evaluate(e, func(variable, operator, value string) (Predicate, error) {
		if variable == "b" {
			return nil, fmt.Errorf("no such key %q", variable)
		}
		return newTestSet(nil), nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such key")
}
