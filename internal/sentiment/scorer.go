package sentiment

import (
	"errors"
	"fmt"
)

// Scorer maps free text to a sentiment label. A loaded Scorer is immutable
// and safe for concurrent use.
type Scorer struct {
	vectorizer *Vectorizer
	classifier *Classifier
}

// Load reads the vectorizer and classifier artifacts and checks that they
// belong together. On failure the returned error is an *ArtifactLoadError
// and no scorer is returned.
func Load(vectorizerPath, classifierPath string) (*Scorer, error) {
	v, err := LoadVectorizer(vectorizerPath)
	if err != nil {
		return nil, err
	}
	c, err := LoadClassifier(classifierPath)
	if err != nil {
		return nil, err
	}
	s, err := New(v, c)
	if err != nil {
		return nil, &ArtifactLoadError{Path: classifierPath, Err: err}
	}
	return s, nil
}

// New pairs an in-memory vectorizer and classifier.
func New(v *Vectorizer, c *Classifier) (*Scorer, error) {
	if v == nil || c == nil {
		return nil, errors.New("vectorizer and classifier are required")
	}
	if v.Dim() != c.NFeatures() {
		return nil, fmt.Errorf("classifier expects %d features, vectorizer produces %d", c.NFeatures(), v.Dim())
	}
	return &Scorer{vectorizer: v, classifier: c}, nil
}

// Classify returns the sentiment of text. It only fails when the scorer was
// never initialized.
func (s *Scorer) Classify(text string) (Label, error) {
	if s == nil || s.vectorizer == nil || s.classifier == nil {
		return "", ErrScoring
	}
	return s.classifier.Predict(s.vectorizer.Transform(text)), nil
}

// ClassifyAll classifies each text independently.
func (s *Scorer) ClassifyAll(texts []string) ([]Label, error) {
	labels := make([]Label, len(texts))
	for i, text := range texts {
		l, err := s.Classify(text)
		if err != nil {
			return nil, err
		}
		labels[i] = l
	}
	return labels, nil
}

// Scores returns the raw decision score of every class for text.
func (s *Scorer) Scores(text string) (map[Label]float64, error) {
	if s == nil || s.vectorizer == nil || s.classifier == nil {
		return nil, ErrScoring
	}
	scores := s.classifier.Decision(s.vectorizer.Transform(text))
	out := make(map[Label]float64, len(scores))
	for i, c := range s.classifier.classes {
		out[c] = scores[i]
	}
	return out, nil
}

// Classes returns the labels the model can emit, in canonical order.
func (s *Scorer) Classes() []Label {
	if s == nil || s.classifier == nil {
		return nil
	}
	return s.classifier.Classes()
}

// Vocabulary returns the vocabulary size.
func (s *Scorer) Vocabulary() int {
	if s == nil || s.vectorizer == nil {
		return 0
	}
	return s.vectorizer.Dim()
}
