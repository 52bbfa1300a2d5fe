package main

import (
	"fmt"
	"os"
	"regexp"

	yaml "gopkg.in/yaml.v2"
)

// loadRules reads rules.yaml from the config dir, in this format:
//
//	Expenses:Travel:
//	  - ^LYFT\ +\*RIDE
//	Expenses:Food:
//	  - ^STARBUCKS
//
// Transactions whose description matches a pattern are assigned that
// counter-account directly, before the frequency model runs. A missing
// file just means no rules.
func loadRules(fpath string) map[string][]*regexp.Regexp {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil
	}

	raw := make(map[string][]string)
	checkf(yaml.Unmarshal(data, &raw), "Unable to parse rules config at %s", fpath)

	rules := make(map[string][]*regexp.Regexp, len(raw))
	for account, patterns := range raw {
		for _, pattern := range patterns {
			re, err := regexp.Compile(pattern)
			checkf(err, "Unable to parse regexp %q for %v in %s", pattern, account, fpath)
			rules[account] = append(rules[account], re)
		}
	}
	return rules
}

// applyRules assigns counter-accounts from the rules file, returning
// how many transactions matched.
func applyRules(rules map[string][]*regexp.Regexp, txns []Txn) int {
	if len(rules) == 0 {
		return 0
	}
	var count int
	for i := range txns {
		t := &txns[i]
		for account, res := range rules {
			for _, re := range res {
				if re.MatchString(t.Desc) {
					t.Counter = account
					count++
					break
				}
			}
			if len(t.Counter) > 0 {
				break
			}
		}
	}
	if count > 0 {
		fmt.Fprintf(os.Stderr, "\t%d transactions categorized based on rules.\n\n", count)
	}
	return count
}
