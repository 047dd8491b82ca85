package sentiment

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	VectorizerFormat = "tweetpulse.vectorizer"
	ClassifierFormat = "tweetpulse.classifier"

	// ArtifactVersion is the newest artifact schema this package reads and
	// the version it writes.
	ArtifactVersion = 1
)

var gzipMagic = []byte{0x1f, 0x8b}

type vectorizerDoc struct {
	Format         string         `json:"format"`
	Version        int            `json:"version"`
	Lowercase      bool           `json:"lowercase"`
	StripHandles   bool           `json:"strip_handles"`
	StripURLs      bool           `json:"strip_urls"`
	MinTokenLength int            `json:"min_token_length"`
	NgramRange     [2]int         `json:"ngram_range"`
	SublinearTF    bool           `json:"sublinear_tf"`
	Norm           Norm           `json:"norm"`
	Vocabulary     map[string]int `json:"vocabulary"`
	IDF            []float64      `json:"idf,omitempty"`
}

type classifierDoc struct {
	Format    string      `json:"format"`
	Version   int         `json:"version"`
	NFeatures int         `json:"n_features"`
	Classes   []Label     `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// LoadVectorizer reads a vectorizer artifact. Errors are *ArtifactLoadError.
func LoadVectorizer(path string) (*Vectorizer, error) {
	var doc vectorizerDoc
	if err := readArtifact(path, &doc); err != nil {
		return nil, err
	}
	if err := checkHeader(doc.Format, doc.Version, VectorizerFormat); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}

	if doc.NgramRange == [2]int{} {
		doc.NgramRange = [2]int{1, 1}
	}
	opts := TokenizerOptions{
		Lowercase:      doc.Lowercase,
		StripHandles:   doc.StripHandles,
		StripURLs:      doc.StripURLs,
		MinTokenLength: doc.MinTokenLength,
		NgramMin:       doc.NgramRange[0],
		NgramMax:       doc.NgramRange[1],
	}
	v, err := NewVectorizer(opts, doc.Vocabulary, doc.IDF, doc.SublinearTF, doc.Norm)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return v, nil
}

// LoadClassifier reads a classifier artifact. Errors are *ArtifactLoadError.
func LoadClassifier(path string) (*Classifier, error) {
	var doc classifierDoc
	if err := readArtifact(path, &doc); err != nil {
		return nil, err
	}
	if err := checkHeader(doc.Format, doc.Version, ClassifierFormat); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}

	c, err := NewClassifier(doc.NFeatures, doc.Classes, doc.Coef, doc.Intercept)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return c, nil
}

// SaveVectorizer writes v as a vectorizer artifact. Paths ending in ".gz"
// are gzip-compressed.
func SaveVectorizer(path string, v *Vectorizer) error {
	opts := v.options
	doc := vectorizerDoc{
		Format:         VectorizerFormat,
		Version:        ArtifactVersion,
		Lowercase:      opts.Lowercase,
		StripHandles:   opts.StripHandles,
		StripURLs:      opts.StripURLs,
		MinTokenLength: opts.MinTokenLength,
		NgramRange:     [2]int{opts.NgramMin, opts.NgramMax},
		SublinearTF:    v.sublinearTF,
		Norm:           v.norm,
		Vocabulary:     v.vocabulary,
		IDF:            v.idf,
	}
	return writeArtifact(path, doc)
}

// SaveClassifier writes c as a classifier artifact. Paths ending in ".gz"
// are gzip-compressed.
func SaveClassifier(path string, c *Classifier) error {
	doc := classifierDoc{
		Format:    ClassifierFormat,
		Version:   ArtifactVersion,
		NFeatures: c.nFeatures,
		Classes:   c.classes,
		Coef:      c.weights,
		Intercept: c.intercepts,
	}
	return writeArtifact(path, doc)
}

func checkHeader(format string, version int, want string) error {
	if format != want {
		return fmt.Errorf("format %q, want %q", format, want)
	}
	if version < 1 || version > ArtifactVersion {
		return fmt.Errorf("unsupported version %d (supported: 1..%d)", version, ArtifactVersion)
	}
	return nil
}

func readArtifact(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return &ArtifactLoadError{Path: path, Err: err}
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(len(gzipMagic)); bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return &ArtifactLoadError{Path: path, Err: err}
		}
		defer zr.Close()
		r = zr
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return loadError(path, "decoding: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return loadError(path, "trailing data after artifact")
	}
	return nil
}

func writeArtifact(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(tmp)
		w = zw
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("compressing artifact: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
