// Package sentiment implements the tweet sentiment scorer.
//
// A Scorer pairs a fitted Vectorizer (tokenizer, vocabulary and TF-IDF
// weighting) with a linear Classifier (one weight row and intercept per
// label). Both are loaded once from versioned JSON artifacts and are
// read-only afterwards, so a single Scorer may be shared by any number of
// goroutines.
package sentiment
