package sentiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVectorizer(t *testing.T) *Vectorizer {
	t.Helper()
	v, err := NewVectorizer(
		DefaultTokenizerOptions(),
		map[string]int{"bad": 0, "good": 1, "love": 2, "this": 3},
		[]float64{1.5, 1.5, 2.0, 1.0},
		false,
		NormL2,
	)
	require.NoError(t, err)
	return v
}

func TestTransformTFIDFL2(t *testing.T) {
	v := testVectorizer(t)

	x := v.Transform("I love this")
	require.Equal(t, []int{2, 3}, x.Indices)

	norm := math.Sqrt(2.0*2.0 + 1.0*1.0)
	assert.InDelta(t, 2.0/norm, x.Values[0], 1e-12)
	assert.InDelta(t, 1.0/norm, x.Values[1], 1e-12)
}

func TestTransformCountsRepeats(t *testing.T) {
	v, err := NewVectorizer(DefaultTokenizerOptions(), map[string]int{"good": 0, "bad": 1}, nil, false, NormNone)
	require.NoError(t, err)

	x := v.Transform("good good bad good")
	assert.Equal(t, []int{0, 1}, x.Indices)
	assert.Equal(t, []float64{3, 1}, x.Values)
}

func TestTransformSublinearTF(t *testing.T) {
	v, err := NewVectorizer(DefaultTokenizerOptions(), map[string]int{"good": 0}, nil, true, NormNone)
	require.NoError(t, err)

	x := v.Transform("good good good")
	require.Equal(t, 1, x.Len())
	assert.InDelta(t, 1+math.Log(3), x.Values[0], 1e-12)
}

func TestTransformL1(t *testing.T) {
	v, err := NewVectorizer(DefaultTokenizerOptions(), map[string]int{"good": 0, "bad": 1}, nil, false, NormL1)
	require.NoError(t, err)

	x := v.Transform("good good bad good")
	assert.InDelta(t, 0.75, x.Values[0], 1e-12)
	assert.InDelta(t, 0.25, x.Values[1], 1e-12)
}

func TestTransformOutOfVocabulary(t *testing.T) {
	v := testVectorizer(t)

	assert.Equal(t, 0, v.Transform("").Len())
	assert.Equal(t, 0, v.Transform("qwzx blorf zzyzx").Len())
}

func TestNewVectorizerRejectsBadInput(t *testing.T) {
	opts := DefaultTokenizerOptions()

	cases := []struct {
		name  string
		vocab map[string]int
		idf   []float64
		norm  Norm
		opts  TokenizerOptions
	}{
		{"empty vocabulary", map[string]int{}, nil, NormL2, opts},
		{"index out of range", map[string]int{"a": 0, "b": 5}, nil, NormL2, opts},
		{"duplicate index", map[string]int{"a": 0, "b": 0}, nil, NormL2, opts},
		{"idf length", map[string]int{"a": 0, "b": 1}, []float64{1}, NormL2, opts},
		{"idf not finite", map[string]int{"a": 0}, []float64{math.Inf(1)}, NormL2, opts},
		{"unknown norm", map[string]int{"a": 0}, nil, Norm("max"), opts},
		{"ngram range", map[string]int{"a": 0}, nil, NormL2, TokenizerOptions{NgramMin: 2, NgramMax: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVectorizer(tc.opts, tc.vocab, tc.idf, false, tc.norm)
			assert.Error(t, err)
		})
	}
}
