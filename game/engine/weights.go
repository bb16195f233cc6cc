package engine

import (
	"fmt"
	"math"
	"sort"
)

// weightTolerance bounds the floating point error accepted in a weight sum.
const weightTolerance = 1e-9

// DefaultWeights are the selection probabilities of each tile type.
var DefaultWeights = map[TileType]float64{
	Plains: 0.5,
	Desert: 0.3,
	River:  0.2,
}

// WeightTable selects tile types from a validated probability distribution.
type WeightTable struct {
	types      []TileType
	weights    []float64
	cumulative []float64
}

// NewWeightTable validates weights (each in [0,1], summing to 1) and
// precomputes the cumulative distribution in TileTypes order.
func NewWeightTable(weights map[TileType]float64) (*WeightTable, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights given", ErrInvalidWeights)
	}

	table := &WeightTable{}
	sum := 0.0
	for _, t := range TileTypes {
		w, ok := weights[t]
		if !ok {
			continue
		}
		if math.IsNaN(w) || w < 0 || w > 1 {
			return nil, fmt.Errorf("%w: weight for %s must be in [0,1], got %v", ErrInvalidWeights, t, w)
		}
		sum += w
		table.types = append(table.types, t)
		table.weights = append(table.weights, w)
		table.cumulative = append(table.cumulative, sum)
	}
	for t := range weights {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown tile type %d", ErrInvalidWeights, uint8(t))
		}
	}

	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("%w: weights must sum to 1, got %v", ErrInvalidWeights, sum)
	}

	return table, nil
}

// NewWeightTableFromNames builds a table from tile type names, as found in
// configuration files.
func NewWeightTableFromNames(weights map[string]float64) (*WeightTable, error) {
	typed := make(map[TileType]float64, len(weights))
	for name, w := range weights {
		t, err := ParseTileType(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWeights, err)
		}
		typed[t] = w
	}
	return NewWeightTable(typed)
}

// DefaultWeightTable returns the table built from DefaultWeights
func DefaultWeightTable() *WeightTable {
	table, err := NewWeightTable(DefaultWeights)
	if err != nil {
		panic(err)
	}
	return table
}

// Pick maps a uniform draw u in [0,1) to a tile type: the first type whose
// cumulative weight exceeds u.
func (wt *WeightTable) Pick(u float64) TileType {
	i := sort.Search(len(wt.cumulative), func(i int) bool {
		return wt.cumulative[i] > u
	})
	if i == len(wt.cumulative) {
		// u landed in the rounding gap below 1; take the last type with weight
		for j := len(wt.weights) - 1; j >= 0; j-- {
			if wt.weights[j] > 0 {
				return wt.types[j]
			}
		}
	}
	return wt.types[i]
}

// Weight returns the probability of t
func (wt *WeightTable) Weight(t TileType) float64 {
	for i, tt := range wt.types {
		if tt == t {
			return wt.weights[i]
		}
	}
	return 0
}

// Weights returns a copy of the table keyed by tile type name.
func (wt *WeightTable) Weights() map[string]float64 {
	out := make(map[string]float64, len(wt.types))
	for i, t := range wt.types {
		out[t.String()] = wt.weights[i]
	}
	return out
}
