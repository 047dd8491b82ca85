package sentiment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	urlPattern    = regexp.MustCompile(`\w+://\S+`)
	handlePattern = regexp.MustCompile(`@\w+`)
)

// TokenizerOptions controls how raw text is split into terms. The same
// options must be used at training and inference time, so they are stored
// in the vectorizer artifact.
type TokenizerOptions struct {
	Lowercase      bool `json:"lowercase"`
	StripHandles   bool `json:"strip_handles"`
	StripURLs      bool `json:"strip_urls"`
	MinTokenLength int  `json:"min_token_length"`
	NgramMin       int  `json:"-"`
	NgramMax       int  `json:"-"`
}

// DefaultTokenizerOptions matches scikit-learn's CountVectorizer defaults
// plus tweet cleanup: lowercase, unigrams, tokens of two or more word
// characters, URLs and @handles removed.
func DefaultTokenizerOptions() TokenizerOptions {
	return TokenizerOptions{
		Lowercase:      true,
		StripHandles:   true,
		StripURLs:      true,
		MinTokenLength: 2,
		NgramMin:       1,
		NgramMax:       1,
	}
}

// Tokenize splits text into words. A word is a maximal run of letters,
// digits and underscores; invalid UTF-8 bytes act as separators.
func (o TokenizerOptions) Tokenize(text string) []string {
	if o.StripURLs {
		text = urlPattern.ReplaceAllString(text, " ")
	}
	if o.StripHandles {
		text = handlePattern.ReplaceAllString(text, " ")
	}
	if o.Lowercase {
		text = strings.ToLower(text)
	}

	minLen := max(o.MinTokenLength, 1)

	var tokens []string
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := text[start:end]
		if utf8.RuneCountInString(tok) >= minLen {
			tokens = append(tokens, tok)
		}
		start = -1
	}

	for i, r := range text {
		if r != utf8.RuneError && isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

// Terms returns the tokens of text expanded to the configured n-gram range.
func (o TokenizerOptions) Terms(text string) []string {
	tokens := o.Tokenize(text)
	lo, hi := max(o.NgramMin, 1), max(o.NgramMax, 1)
	if lo == 1 && hi == 1 {
		return tokens
	}

	var terms []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
