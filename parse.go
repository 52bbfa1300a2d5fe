package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	racc        = regexp.MustCompile(`^account[\W]+(.*)`)
	rcsvAccount = regexp.MustCompile(`;\s*csv-account:\s*(.+)`)
	rcomment    = regexp.MustCompile(`^\s*;(.*)`)
	rentry      = regexp.MustCompile(`^(\d{4}[/-]\d{2}[/-]\d{2})(?:=\d{4}[/-]\d{2}[/-]\d{2})?\s+(.*)`)
)

// histEntry is one parsed journal transaction, reduced to what the
// classifier needs: the accounts it posted to and its description.
type histEntry struct {
	date     time.Time
	desc     string
	accounts []string
}

type parser struct {
	data            []byte
	accounts        []string          // declared via "account" directives
	accountComments map[string]string // account name -> description comment
	accountMapping  map[string]string // CSV account identifier -> journal account
	hist            []histEntry
	model           *model
}

// includeAll inlines journal files pulled in via "include" directives,
// so declarations and history in split journals are all visible.
func includeAll(dir string, data []byte) []byte {
	final := make([]byte, len(data))
	copy(final, data)

	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "include ") {
			continue
		}
		fname := strings.Trim(line[8:], " \n")
		include, err := os.ReadFile(path.Join(dir, fname))
		checkf(err, "Unable to read file: %v", fname)
		final = append(final, include...)
	}
	return final
}

// parseAccounts collects "account" declarations along with any comment
// lines directly beneath them. The comments double as human-written
// category descriptions for the AI reviewer.
func (p *parser) parseAccounts() {
	p.accountComments = make(map[string]string)
	s := bufio.NewScanner(bytes.NewReader(p.data))
	var acc string
	var comments []string

	flush := func() {
		if len(acc) > 0 && len(comments) > 0 {
			p.accountComments[acc] = strings.Join(comments, " ")
		}
		comments = nil
	}

	for s.Scan() {
		line := s.Text()

		m := racc.FindStringSubmatch(line)
		if len(m) >= 2 && len(m[1]) > 0 {
			flush()
			acc = m[1]
			p.accounts = append(p.accounts, acc)
			continue
		}

		if len(acc) == 0 {
			continue
		}
		if m := rcomment.FindStringSubmatch(line); len(m) >= 2 {
			comment := strings.TrimSpace(m[1])
			// csv-account mappings are handled separately.
			if !strings.HasPrefix(comment, "csv-account:") && len(comment) > 0 {
				comments = append(comments, comment)
			}
		} else if len(strings.TrimSpace(line)) == 0 {
			flush()
			acc = ""
		}
	}
	flush()
}

// parseAccountMappings reads mappings from bank-side account identifiers
// to journal accounts, declared as comments in the journal:
//
//	account Assets:Checking
//	  ; csv-account: CHK
//	  ; csv-account: checking
func (p *parser) parseAccountMappings() {
	p.accountMapping = make(map[string]string)
	s := bufio.NewScanner(bytes.NewReader(p.data))
	var current string

	for s.Scan() {
		line := s.Text()

		m := racc.FindStringSubmatch(line)
		if len(m) >= 2 && len(m[1]) > 0 {
			current = m[1]
			continue
		}
		if current == "" {
			continue
		}
		if m := rcsvAccount.FindStringSubmatch(line); len(m) >= 2 {
			identifier := strings.TrimSpace(m[1])
			if len(identifier) > 0 {
				p.accountMapping[strings.ToLower(identifier)] = current
				if *debug {
					fmt.Fprintf(os.Stderr, "[Mapping] %q -> %s\n", identifier, current)
				}
			}
		}
	}
}

// matchAccountToLedger resolves a bank-side account string to a journal
// account: exact identifier match first, then substring.
func (p *parser) matchAccountToLedger(csvAccount string) string {
	if csvAccount == "" {
		return ""
	}
	csvLower := strings.ToLower(csvAccount)
	if acc, has := p.accountMapping[csvLower]; has {
		return acc
	}
	for key, acc := range p.accountMapping {
		if strings.Contains(csvLower, key) {
			return acc
		}
	}
	return ""
}

// cleanDesc strips the state flag, transaction code and trailing comment
// from a transaction header, leaving just the payee text.
func cleanDesc(rest string) string {
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "*") || strings.HasPrefix(rest, "!") {
		rest = strings.TrimSpace(rest[1:])
	}
	if strings.HasPrefix(rest, "(") {
		if i := strings.Index(rest, ")"); i >= 0 {
			rest = strings.TrimSpace(rest[i+1:])
		}
	}
	if i := strings.Index(rest, ";"); i >= 0 {
		rest = strings.TrimSpace(rest[:i])
	}
	return rest
}

// postingAccount extracts the account name from an indented posting
// line: everything up to a two-space or tab run, minus virtual-account
// markers.
func postingAccount(line string) string {
	line = strings.TrimSpace(line)
	if len(line) == 0 || line[0] == ';' || line[0] == '#' {
		return ""
	}
	if i := strings.Index(line, "  "); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "\t"); i >= 0 {
		line = line[:i]
	}
	line = strings.Trim(line, "()[]")
	return strings.TrimSpace(line)
}

// parseHistory scans the journal for transactions. Only a reduced
// grammar is understood: a date-led header line followed by indented
// postings. That is enough to mine account/description co-occurrence.
func (p *parser) parseHistory() {
	s := bufio.NewScanner(bytes.NewReader(p.data))
	var cur *histEntry

	flush := func() {
		if cur != nil && len(cur.accounts) > 0 {
			p.hist = append(p.hist, *cur)
		}
		cur = nil
	}

	for s.Scan() {
		line := s.Text()

		if m := rentry.FindStringSubmatch(line); len(m) >= 3 {
			flush()
			date, err := time.Parse("2006/01/02", strings.ReplaceAll(m[1], "-", "/"))
			if err != nil {
				continue
			}
			cur = &histEntry{date: date, desc: cleanDesc(m[2])}
			continue
		}

		if cur == nil {
			continue
		}
		if len(line) == 0 || (line[0] != ' ' && line[0] != '\t') {
			flush()
			continue
		}
		if acc := postingAccount(line); len(acc) > 0 {
			cur.accounts = append(cur.accounts, acc)
		}
	}
	flush()

	if *debug {
		fmt.Fprintf(os.Stderr, "[History] %d transactions parsed from journal\n", len(p.hist))
	}
}

// buildModel folds every historical entry into a fresh frequency model.
// The model is complete once this returns and is never mutated again.
func (p *parser) buildModel() {
	p.model = newModel()
	for _, h := range p.hist {
		p.model.learn(h.accounts, tokenize(h.desc))
	}
	assertf(len(p.model.counts) > 0, "Expected some accounts in journal history. Found none.")
}
