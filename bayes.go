package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/jbrukh/bayesian"
)

// fallback is a naive-Bayes classifier over journal history, consulted
// only for transactions the frequency model could not decide.
type fallback struct {
	classes []bayesian.Class
	cl      *bayesian.Classifier
}

// trainableAccount reports whether an account is worth learning as a
// category. Asset, equity and liability postings are the money's
// source, not a meaningful counter-account guess.
func trainableAccount(acc string) bool {
	if strings.HasPrefix(acc, "Assets:Reimbursements:") {
		return true
	}
	return !strings.HasPrefix(acc, "Assets:") &&
		!strings.HasPrefix(acc, "Equity:") &&
		!strings.HasPrefix(acc, "Liabilities:")
}

func prepareTerms(desc string) []string {
	desc = strings.ToLower(desc)
	desc = strings.ReplaceAll(desc, "*", " ")
	return strings.Fields(desc)
}

// newFallback trains a tf-idf classifier on the journal history. Needs
// at least two learnable accounts, otherwise returns nil and the
// fallback stays disabled.
func newFallback(hist []histEntry) *fallback {
	seen := make(map[string]bool)
	for _, h := range hist {
		for _, acc := range h.accounts {
			if trainableAccount(acc) {
				seen[acc] = true
			}
		}
	}
	if len(seen) < 2 {
		return nil
	}

	f := &fallback{classes: make([]bayesian.Class, 0, len(seen))}
	for acc := range seen {
		f.classes = append(f.classes, bayesian.Class(acc))
	}
	f.cl = bayesian.NewClassifierTfIdf(f.classes...)

	for _, h := range hist {
		terms := prepareTerms(h.desc)
		if len(terms) == 0 {
			continue
		}
		for _, acc := range h.accounts {
			if seen[acc] {
				f.cl.Learn(terms, bayesian.Class(acc))
			}
		}
	}
	f.cl.ConvertTermsFreqToTfIdf()
	return f
}

type scoredClass struct {
	score float64
	pos   int
}

// guess returns the classifier's top account for a description, or ""
// when the runner-up scores within one standard deviation of the top:
// a fallback has no business answering when the field is that close.
func (f *fallback) guess(desc string) string {
	terms := prepareTerms(desc)
	if len(terms) == 0 {
		return ""
	}
	scores, _, _ := f.cl.LogScores(terms)
	if len(scores) == 0 {
		return ""
	}

	pairs := make([]scoredClass, 0, len(scores))
	var mean float64
	for pos, score := range scores {
		pairs = append(pairs, scoredClass{score, pos})
		mean += score
	}
	mean /= float64(len(scores))
	var stddev float64
	for _, score := range scores {
		diff := score - mean
		stddev += diff * diff
	}
	stddev /= float64(len(scores) - 1)
	stddev = math.Sqrt(stddev)

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
	if *debug {
		for i, pr := range pairs[:min(len(pairs), 5)] {
			fmt.Fprintf(os.Stderr, "[Bayes] i=%d s=%f class=%v\n", i, pr.score, f.classes[pr.pos])
		}
	}
	if len(pairs) > 1 && pairs[0].score-pairs[1].score <= stddev {
		return ""
	}
	return string(f.classes[pairs[0].pos])
}
