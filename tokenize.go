package main

import (
	"regexp"
	"strings"
)

var (
	// Full calendar dates like 20161230 carry no signal about the payee,
	// but their presence does. Degrade them to a placeholder before
	// splitting so "VISA 20161230 STORE" and "VISA 20170104 STORE" yield
	// the same tokens.
	rlongDate  = regexp.MustCompile(`(?:19|20|21)\d\d(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])`)
	rshortDate = regexp.MustCompile(`/\d\d-\d\d-\d\d`)
)

// tokenize splits a transaction descriptor into normalized uppercase
// tokens. A blank descriptor yields no tokens.
func tokenize(desc string) []string {
	if len(strings.TrimSpace(desc)) == 0 {
		return []string{}
	}
	desc = rlongDate.ReplaceAllString(desc, "YYYYMMDD")
	desc = rshortDate.ReplaceAllString(desc, "/YY-MM-DD")
	desc = strings.ToUpper(desc)
	return strings.FieldsFunc(desc, func(r rune) bool {
		return r == ',' || r == '/' || r == ' '
	})
}
