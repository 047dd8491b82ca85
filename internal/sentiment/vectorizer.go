package sentiment

import (
	"fmt"
	"math"
	"slices"
)

// Norm selects the vector normalization applied after weighting.
type Norm string

const (
	NormL2   Norm = "l2"
	NormL1   Norm = "l1"
	NormNone Norm = "none"
)

// SparseVector is a feature vector with strictly ascending indices.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of non-zero features.
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// Vectorizer is a fitted text-to-features transform. It is immutable once
// constructed.
type Vectorizer struct {
	options     TokenizerOptions
	vocabulary  map[string]int
	idf         []float64
	sublinearTF bool
	norm        Norm
	dim         int
}

// NewVectorizer validates and assembles a vectorizer. idf may be nil to
// disable inverse document frequency weighting.
func NewVectorizer(opts TokenizerOptions, vocabulary map[string]int, idf []float64, sublinearTF bool, norm Norm) (*Vectorizer, error) {
	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}
	if opts.NgramMin < 1 || opts.NgramMax < opts.NgramMin {
		return nil, fmt.Errorf("invalid ngram range [%d, %d]", opts.NgramMin, opts.NgramMax)
	}
	switch norm {
	case NormL2, NormL1, NormNone:
	case "":
		norm = NormNone
	default:
		return nil, fmt.Errorf("unsupported norm %q", norm)
	}

	dim := len(vocabulary)
	if idf != nil {
		if len(idf) != dim {
			return nil, fmt.Errorf("idf has %d entries, vocabulary has %d", len(idf), dim)
		}
		for i, w := range idf {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("idf[%d] is not finite", i)
			}
		}
	}

	seen := make([]bool, dim)
	vocab := make(map[string]int, dim)
	for term, idx := range vocabulary {
		if idx < 0 || idx >= dim {
			return nil, fmt.Errorf("term %q has index %d outside [0, %d)", term, idx, dim)
		}
		if seen[idx] {
			return nil, fmt.Errorf("index %d assigned to more than one term", idx)
		}
		seen[idx] = true
		vocab[term] = idx
	}

	return &Vectorizer{
		options:     opts,
		vocabulary:  vocab,
		idf:         slices.Clone(idf),
		sublinearTF: sublinearTF,
		norm:        norm,
		dim:         dim,
	}, nil
}

// Dim returns the feature space dimension.
func (v *Vectorizer) Dim() int {
	return v.dim
}

// Options returns the tokenizer options.
func (v *Vectorizer) Options() TokenizerOptions {
	return v.options
}

// Transform projects text into the feature space. Unknown terms are ignored;
// text without known terms yields an empty vector.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range v.options.Terms(text) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	slices.Sort(indices)

	values := make([]float64, len(indices))
	for i, idx := range indices {
		tf := counts[idx]
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		if v.idf != nil {
			tf *= v.idf[idx]
		}
		values[i] = tf
	}

	normalize(values, v.norm)
	return SparseVector{Indices: indices, Values: values}
}

func normalize(values []float64, norm Norm) {
	var total float64
	switch norm {
	case NormL2:
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case NormL1:
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
