package main

import (
	"os"
	"path"
	"testing"
)

func TestLoadRules(t *testing.T) {
	t.Run("missingFile", func(t *testing.T) {
		if rules := loadRules(path.Join(t.TempDir(), "rules.yaml")); rules != nil {
			t.Errorf("got %v for a missing file, want nil", rules)
		}
	})

	t.Run("parsed", func(t *testing.T) {
		fpath := path.Join(t.TempDir(), "rules.yaml")
		data := `Expenses:Travel:
  - ^LYFT\ +\*RIDE
  - ^UBER
Expenses:Food:
  - ^STARBUCKS
`
		if err := os.WriteFile(fpath, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		rules := loadRules(fpath)
		if len(rules) != 2 {
			t.Fatalf("parsed %d accounts, want 2", len(rules))
		}
		if len(rules["Expenses:Travel"]) != 2 {
			t.Errorf("Expenses:Travel has %d patterns, want 2", len(rules["Expenses:Travel"]))
		}
		if !rules["Expenses:Food"][0].MatchString("STARBUCKS #1234") {
			t.Error("pattern did not match its own example")
		}
	})
}

func TestApplyRules(t *testing.T) {
	fpath := path.Join(t.TempDir(), "rules.yaml")
	data := `Expenses:Travel:
  - ^LYFT\ +\*RIDE
Expenses:Food:
  - ^STARBUCKS
`
	if err := os.WriteFile(fpath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	rules := loadRules(fpath)

	txns := []Txn{
		{Desc: "LYFT   *RIDE TUE 8AM"},
		{Desc: "STARBUCKS #1234"},
		{Desc: "GROCERY STORE"},
		{Desc: "LYFT CANCEL FEE"},
	}
	if got := applyRules(rules, txns); got != 2 {
		t.Errorf("applyRules matched %d, want 2", got)
	}
	if txns[0].Counter != "Expenses:Travel" {
		t.Errorf("Counter = %q, want Expenses:Travel", txns[0].Counter)
	}
	if txns[1].Counter != "Expenses:Food" {
		t.Errorf("Counter = %q, want Expenses:Food", txns[1].Counter)
	}
	if txns[2].Counter != "" || txns[3].Counter != "" {
		t.Error("unmatched transactions must keep an empty counter-account")
	}

	t.Run("noRules", func(t *testing.T) {
		if got := applyRules(nil, txns); got != 0 {
			t.Errorf("applyRules(nil) = %d, want 0", got)
		}
	})
}
