package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

const unknownAccount = "Unknown"

// model counts how often each token of a transaction description has
// been seen together with each account in the journal. It is built once
// from the parsed journal and only read afterwards.
type model struct {
	counts map[string]map[string]int // account -> token -> occurrences
}

func newModel() *model {
	return &model{counts: make(map[string]map[string]int)}
}

// learn folds one historical entry into the model: every account of the
// entry is credited with every token of its description.
func (m *model) learn(accounts []string, tokens []string) {
	for _, acc := range accounts {
		toks, has := m.counts[acc]
		if !has {
			toks = make(map[string]int)
			m.counts[acc] = toks
		}
		for _, tok := range tokens {
			toks[tok]++
		}
	}
}

func (m *model) tokenTotal(token string) int {
	var total int
	for _, toks := range m.counts {
		total += toks[token]
	}
	return total
}

// prob is the likelihood that a description containing token belongs to
// account, estimated from relative occurrence counts. A token no account
// has ever seen has probability 0 everywhere.
func (m *model) prob(token, account string) float64 {
	total := m.tokenTotal(token)
	if total == 0 {
		return 0.0
	}
	return float64(m.counts[account][token]) / float64(total)
}

type hit struct {
	prob    float64
	account string
}

func sortHits(hits []hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].prob != hits[j].prob {
			return hits[i].prob > hits[j].prob
		}
		return hits[i].account < hits[j].account
	})
}

// bestAccounts ranks all accounts for a single token, highest
// probability first. Accounts that never saw the token are left out.
func (m *model) bestAccounts(token string) []hit {
	total := m.tokenTotal(token)
	if total == 0 {
		return nil
	}
	hits := make([]hit, 0, len(m.counts))
	for acc, toks := range m.counts {
		if c := toks[token]; c > 0 {
			hits = append(hits, hit{float64(c) / float64(total), acc})
		}
	}
	sortHits(hits)
	return hits
}

// bayesCombine merges several per-token probabilities for one account
// into a single confidence: prod(p) / (prod(p) + prod(1-p)). A single
// probability passes through unchanged; degenerate inputs (no tokens,
// zero denominator) resolve to 0 rather than NaN.
func bayesCombine(probs []float64) float64 {
	if len(probs) == 0 {
		return 0.0
	}
	if len(probs) == 1 {
		return probs[0]
	}
	prod, comp := 1.0, 1.0
	for _, p := range probs {
		prod *= p
		comp *= 1.0 - p
	}
	if prod+comp == 0 {
		return 0.0
	}
	return prod / (prod + comp)
}

// combinedTable ranks all accounts for a whole token sequence. Tokens
// the model has never seen are dropped first: they carry no signal and
// must not zero out the combined score of every account.
func (m *model) combinedTable(tokens []string) []hit {
	informative := make([]string, 0, len(tokens))
	totals := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if total := m.tokenTotal(tok); total > 0 {
			informative = append(informative, tok)
			totals = append(totals, total)
		}
	}
	if len(informative) == 0 {
		return nil
	}

	hits := make([]hit, 0, len(m.counts))
	probs := make([]float64, len(informative))
	for acc, toks := range m.counts {
		for i, tok := range informative {
			probs[i] = float64(toks[tok]) / float64(totals[i])
		}
		if p := bayesCombine(probs); p > 0 {
			hits = append(hits, hit{p, acc})
		}
	}
	sortHits(hits)
	return hits
}

// decide picks the most likely counter-account for a description, or
// Unknown when the model has nothing to say. Candidates containing the
// transaction's own account name are never suggested, and an exact tie
// between the top two candidates counts as no answer.
func (m *model) decide(desc, account string) string {
	tokens := tokenize(desc)
	table := m.combinedTable(tokens)

	final := make([]hit, 0, len(table))
	for _, h := range table {
		if strings.Contains(h.account, account) {
			continue
		}
		final = append(final, h)
	}

	if *debug {
		m.trace(desc, account, tokens, final)
	}

	if len(final) == 0 {
		return unknownAccount
	}
	if len(final) > 1 && final[0].prob == final[1].prob {
		return unknownAccount
	}
	return final[0].account
}

// trace dumps the full ranking that led to a decision. Observational
// only; goes to stderr so piped output stays clean.
func (m *model) trace(desc, account string, tokens []string, table []hit) {
	fmt.Fprintf(os.Stderr, "[Classify] %q from %q\n", desc, account)
	fmt.Fprintf(os.Stderr, "[Tokens] %v\n", tokens)
	for _, tok := range tokens {
		fmt.Fprintf(os.Stderr, "[Token] %s\n", tok)
		for _, h := range m.bestAccounts(tok) {
			fmt.Fprintf(os.Stderr, "    p=%.6f %s\n", h.prob, h.account)
		}
	}
	fmt.Fprintf(os.Stderr, "[Combined]\n")
	for _, h := range table {
		fmt.Fprintf(os.Stderr, "    p=%.6f %s\n", h.prob, h.account)
	}
}
