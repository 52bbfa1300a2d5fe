package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type qstate int

const (
	// outside any quoted field
	plain qstate = iota
	// inside a quoted field
	quoted
	// inside a quoted field, previous byte was a backslash
	escaped
)

// quoteReader rewrites backslash-escaped quotes (\" -> "") and \n inside
// quoted fields on the fly, so encoding/csv can parse exports that use
// C-style escaping instead of RFC 4180 doubling.
type quoteReader struct {
	src     io.Reader
	buf     []byte // read buffer
	pending []byte // unconsumed input bytes
	queued  []byte // replacement bytes to emit before pending
	st      qstate
}

func newQuoteReader(r io.Reader) *quoteReader {
	return &quoteReader{src: r, buf: make([]byte, 4096)}
}

func (q *quoteReader) Read(p []byte) (int, error) {
	if len(q.queued) != 0 {
		n := copy(p, q.queued)
		q.queued = q.queued[n:]
		return n, nil
	}

	if len(q.pending) == 0 {
		n, err := q.src.Read(q.buf)
		if n == 0 {
			return n, err
		}
		q.pending = q.buf[:n]
	}

	i := 0
	for i < len(p) && len(q.pending) != 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]
		switch q.st {
		case plain:
			p[i] = next
			i++
			if next == '"' {
				q.st = quoted
			}
		case quoted:
			switch next {
			case '"':
				p[i] = next
				i++
				q.st = plain
			case '\\':
				q.st = escaped
			default:
				p[i] = next
				i++
			}
		case escaped:
			switch next {
			case '"':
				q.queued = []byte{'"', '"'}
			case 'n':
				q.queued = []byte{'\n'}
			default:
				q.queued = []byte{next}
			}
			q.st = quoted
			return i, nil
		}
	}
	return i, nil
}

var rcolref = regexp.MustCompile(`%(\d+)`)

// resolveColSpec expands a descriptor column spec against one CSV row.
// %n substitutes column n; '!'-separated alternatives are tried left to
// right and the first non-blank expansion wins, so "%4!%1 %2" means
// "column 4, or columns 1 and 2 joined if 4 is empty".
func resolveColSpec(spec string, cols []string) string {
	for _, alt := range strings.Split(spec, "!") {
		out := rcolref.ReplaceAllStringFunc(alt, func(ref string) string {
			n, err := strconv.Atoi(ref[1:])
			if err != nil || n < 0 || n >= len(cols) {
				return ""
			}
			return cols[n]
		})
		if out = strings.TrimSpace(out); len(out) > 0 {
			return out
		}
	}
	return ""
}

func parseDate(col string) (time.Time, bool) {
	tm, err := time.Parse(*dateFormat, strings.TrimSpace(col))
	if err != nil {
		return time.Time{}, false
	}
	return tm, true
}

// parseAmount normalizes a bank amount string: currency symbols and
// spaces are stripped, thousands separators dropped, and the decimal
// comma translated when -decimal-comma is set.
func parseAmount(col string) (float64, bool) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '.' || r == ',' || r == '-' || r == '+':
			return r
		}
		return -1
	}, col)
	if *decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	if len(s) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if *invert {
		f = -f
	}
	return f, true
}

func parseDescription(col string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '"' {
			return -1
		}
		return r
	}, col))
}

// parseTxnsFromCSV extracts transactions from a bank CSV export using
// the column flags. accountColIdx >= 0 additionally captures the
// bank-side account identifier from that column.
func parseTxnsFromCSV(in []byte, accountColIdx int) []Txn {
	r := csv.NewReader(newQuoteReader(bytes.NewReader(in)))
	r.Comma = []rune(*separator)[0]
	r.FieldsPerRecord = -1

	result := make([]Txn, 0, 100)
	var skipped int
	for {
		cols, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil && len(cols) == 0 {
			log.Println("Warning: Empty line dropped")
			continue
		}
		checkf(err, "Unable to read line: %v", strings.Join(cols, ", "))
		if *skip > skipped {
			skipped++
			continue
		}

		var t Txn
		t.CurName = *currency
		if *dateCol < len(cols) {
			if date, ok := parseDate(cols[*dateCol]); ok {
				t.Date = date
			}
		}
		if *amountCol < len(cols) {
			if f, ok := parseAmount(cols[*amountCol]); ok {
				t.Cur = f
				t.amountOK = true
			}
		}
		if *refCol >= 0 && *refCol < len(cols) {
			t.Ref = strings.TrimSpace(cols[*refCol])
		}
		if accountColIdx >= 0 && accountColIdx < len(cols) {
			t.CSVAccount = strings.TrimSpace(cols[accountColIdx])
		}
		t.Desc = parseDescription(resolveColSpec(*descCol, cols))

		if len(t.Desc) != 0 && !t.Date.IsZero() && t.amountOK {
			y, m, d := t.Date.Year(), t.Date.Month(), t.Date.Day()
			t.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			result = append(result, t)
		} else {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintf(os.Stderr, "ERROR           : Unable to parse transaction from CSV columns.\n")
			fmt.Fprintf(os.Stderr, "CSV row         : %v\n", strings.Join(cols, ", "))
			fmt.Fprintf(os.Stderr, "Parsed Date     : %v\n", t.Date)
			fmt.Fprintf(os.Stderr, "Parsed Desc     : %v\n", t.Desc)
			fmt.Fprintf(os.Stderr, "Parsed Amount   : %v\n", t.Cur)
			log.Fatalln("Please check the -date-col, -amount-col and -desc-col flags against the CSV.")
		}
	}
	return result
}
