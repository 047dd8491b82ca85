package sentiment

import (
	"fmt"
	"math"
	"slices"
)

// Classifier holds the parameters of a linear multi-class model. Rows are
// kept in canonical label order so that arg-max ties resolve
// deterministically.
type Classifier struct {
	nFeatures  int
	classes    []Label
	weights    [][]float64
	intercepts []float64
}

// NewClassifier validates and assembles a classifier. coef must contain one
// row per class, or a single row for a two-class model, in which case the
// row scores the second class against the first.
func NewClassifier(nFeatures int, classes []Label, coef [][]float64, intercept []float64) (*Classifier, error) {
	if nFeatures <= 0 {
		return nil, fmt.Errorf("n_features must be positive, got %d", nFeatures)
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("need at least two classes, got %d", len(classes))
	}
	seen := make(map[Label]bool, len(classes))
	for _, c := range classes {
		if _, err := ParseLabel(string(c)); err != nil {
			return nil, err
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		seen[c] = true
	}
	if len(coef) != len(intercept) {
		return nil, fmt.Errorf("%d weight rows but %d intercepts", len(coef), len(intercept))
	}
	for i, row := range coef {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("weight row %d has %d columns, want %d", i, len(row), nFeatures)
		}
		if !allFinite(row) {
			return nil, fmt.Errorf("weight row %d contains non-finite values", i)
		}
	}
	if !allFinite(intercept) {
		return nil, fmt.Errorf("intercepts contain non-finite values")
	}

	weights := make([][]float64, 0, len(classes))
	intercepts := make([]float64, 0, len(classes))
	switch {
	case len(coef) == len(classes):
		for i := range coef {
			weights = append(weights, slices.Clone(coef[i]))
			intercepts = append(intercepts, intercept[i])
		}
	case len(classes) == 2 && len(coef) == 1:
		weights = append(weights, make([]float64, nFeatures), slices.Clone(coef[0]))
		intercepts = append(intercepts, 0, intercept[0])
	default:
		return nil, fmt.Errorf("%d weight rows for %d classes", len(coef), len(classes))
	}

	c := &Classifier{
		nFeatures:  nFeatures,
		classes:    slices.Clone(classes),
		weights:    weights,
		intercepts: intercepts,
	}
	c.sortCanonical()
	return c, nil
}

// NFeatures returns the expected feature dimension.
func (c *Classifier) NFeatures() int {
	return c.nFeatures
}

// Classes returns the class labels in canonical order.
func (c *Classifier) Classes() []Label {
	return slices.Clone(c.classes)
}

// Decision returns one score per class, aligned with Classes.
func (c *Classifier) Decision(x SparseVector) []float64 {
	scores := make([]float64, len(c.classes))
	for k, w := range c.weights {
		s := c.intercepts[k]
		for i, idx := range x.Indices {
			s += w[idx] * x.Values[i]
		}
		scores[k] = s
	}
	return scores
}

// Predict returns the class with the highest decision score. The first class
// in canonical order wins a tie.
func (c *Classifier) Predict(x SparseVector) Label {
	scores := c.Decision(x)
	best := 0
	for k := 1; k < len(scores); k++ {
		if scores[k] > scores[best] {
			best = k
		}
	}
	return c.classes[best]
}

func (c *Classifier) sortCanonical() {
	order := make([]int, len(c.classes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return c.classes[a].rank() - c.classes[b].rank()
	})

	classes := make([]Label, len(order))
	weights := make([][]float64, len(order))
	intercepts := make([]float64, len(order))
	for i, j := range order {
		classes[i] = c.classes[j]
		weights[i] = c.weights[j]
		intercepts[i] = c.intercepts[j]
	}
	c.classes, c.weights, c.intercepts = classes, weights, intercepts
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
