package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

const leaf = -1

// Tree is one decision tree in the flat array layout of a fitted
// scikit-learn estimator's tree_ attribute. Node i is a leaf when
// ChildrenLeft[i] == -1; otherwise samples with
// x[Feature[i]] <= Threshold[i] descend left.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest is a random-forest classifier exported to JSON. Its probability
// for a class is the mean over trees of the class share at the reached leaf.
type Forest struct {
	FeatureNamesList []string `json:"feature_names"`
	Classes          int      `json:"n_classes"`
	// PositiveClass is the column reported by PredictProba; 1 when omitted.
	PositiveClass *int   `json:"positive_class,omitempty"`
	Trees         []Tree `json:"trees"`

	positive int
}

// LoadForest reads and validates a forest from path.
func LoadForest(path string) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open forest: %w", err)
	}
	defer f.Close()
	return DecodeForest(f)
}

// DecodeForest reads and validates a forest from r.
func DecodeForest(r io.Reader) (*Forest, error) {
	var forest Forest
	if err := json.NewDecoder(r).Decode(&forest); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if err := forest.validate(); err != nil {
		return nil, err
	}
	return &forest, nil
}

func (f *Forest) validate() error {
	if len(f.FeatureNamesList) == 0 {
		return errors.New("forest: no feature names")
	}
	if f.Classes < 2 {
		return fmt.Errorf("forest: n_classes %d, need at least 2", f.Classes)
	}
	f.positive = 1
	if f.PositiveClass != nil {
		f.positive = *f.PositiveClass
	}
	if f.positive < 0 || f.positive >= f.Classes {
		return fmt.Errorf("forest: positive class %d outside [0,%d)", f.positive, f.Classes)
	}
	if len(f.Trees) == 0 {
		return errors.New("forest: no trees")
	}
	for i, t := range f.Trees {
		if err := t.validate(len(f.FeatureNamesList), f.Classes); err != nil {
			return fmt.Errorf("forest: tree %d: %w", i, err)
		}
	}
	return nil
}

func (t Tree) validate(features, classes int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leaf {
			if r != leaf {
				return fmt.Errorf("node %d: half leaf", i)
			}
			if len(t.Value[i]) != classes {
				return fmt.Errorf("node %d: %d class values, want %d", i, len(t.Value[i]), classes)
			}
			var sum float64
			for _, v := range t.Value[i] {
				if v < 0 {
					return fmt.Errorf("node %d: negative class value", i)
				}
				sum += v
			}
			if sum == 0 {
				return fmt.Errorf("node %d: empty leaf", i)
			}
			continue
		}
		// Children always follow their parent, so traversal terminates.
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= features {
			return fmt.Errorf("node %d: feature %d out of range", i, t.Feature[i])
		}
	}
	return nil
}

// FeatureNames returns a copy of the training column order.
func (f *Forest) FeatureNames() []string {
	out := make([]string, len(f.FeatureNamesList))
	copy(out, f.FeatureNamesList)
	return out
}

// PredictProba returns the positive-class probability for each row.
func (f *Forest) PredictProba(ctx context.Context, rows [][]float64) ([]float64, error) {
	width := len(f.FeatureNamesList)
	out := make([]float64, len(rows))
	for i, row := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, forest expects %d", i, len(row), width)
		}
		var sum float64
		for _, t := range f.Trees {
			sum += t.share(row, f.positive)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}

// share walks the tree and returns the class fraction at the leaf.
// Inputs are compared at float32 precision, as the trees were fit on
// float32 data.
func (t Tree) share(row []float64, class int) float64 {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if float64(float32(row[t.Feature[node]])) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	var total float64
	for _, v := range t.Value[node] {
		total += v
	}
	return t.Value[node][class] / total
}
