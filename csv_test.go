package main

import (
	"encoding/csv"
	"flag"
	"reflect"
	"strings"
	"testing"
)

// setFlags overrides flag values for one test and restores them after.
func setFlags(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		f := flag.Lookup(k)
		if f == nil {
			t.Fatalf("unknown flag %q", k)
		}
		old := f.Value.String()
		if err := flag.Set(k, v); err != nil {
			t.Fatalf("set flag %q: %v", k, err)
		}
		t.Cleanup(func() { flag.Set(k, old) })
	}
}

func TestQuoteReader(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want [][]string
	}{
		{"plain", "a,b,c\n", [][]string{{"a", "b", "c"}}},
		{"escapedQuote", `"a\"b",c` + "\n", [][]string{{`a"b`, "c"}}},
		{"escapedNewline", `"a\nb",c` + "\n", [][]string{{"a\nb", "c"}}},
		{"escapedOther", `"a\tb",c` + "\n", [][]string{{"atb", "c"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := csv.NewReader(newQuoteReader(strings.NewReader(tc.in)))
			got, err := r.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveColSpec(t *testing.T) {
	cols := []string{"2016-12-30", "-123.45", "GROCERY STORE", "", "REF1"}
	cases := []struct {
		spec string
		want string
	}{
		{"%2", "GROCERY STORE"},
		{"%2 %4", "GROCERY STORE REF1"},
		{"%3!%2", "GROCERY STORE"},
		{"%3!%9!%4", "REF1"},
		{"%9", ""},
		{"no refs", "no refs"},
	}
	for _, tc := range cases {
		if got := resolveColSpec(tc.spec, cols); got != tc.want {
			t.Errorf("resolveColSpec(%q) = %q, want %q", tc.spec, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		cases := []struct {
			in   string
			want float64
			ok   bool
		}{
			{"123.45", 123.45, true},
			{"-123.45", -123.45, true},
			{"$1,234.50", 1234.50, true},
			{"1 234.50 kr", 1234.50, true},
			{"", 0, false},
			{"N/A", 0, false},
		}
		for _, tc := range cases {
			got, ok := parseAmount(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Errorf("parseAmount(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		}
	})

	t.Run("decimalComma", func(t *testing.T) {
		setFlags(t, map[string]string{"decimal-comma": "true"})
		got, ok := parseAmount("1.234,50")
		if !ok || got != 1234.50 {
			t.Errorf("parseAmount = (%v, %v), want (1234.5, true)", got, ok)
		}
	})

	t.Run("invert", func(t *testing.T) {
		setFlags(t, map[string]string{"invert": "true"})
		got, ok := parseAmount("123.45")
		if !ok || got != -123.45 {
			t.Errorf("parseAmount = (%v, %v), want (-123.45, true)", got, ok)
		}
	})
}

func TestParseTxnsFromCSV(t *testing.T) {
	setFlags(t, map[string]string{
		"skip": "1", "date-col": "0", "amount-col": "1",
		"desc-col": "%2", "ref-col": "3", "date": "2006-01-02", "sep": ",",
	})
	in := "Date,Amount,Description,Reference\n" +
		"2016-12-30,-123.45,GROCERY STORE,R1\n" +
		"2016-12-31,3000.00,EMPLOYER PAYOUT,R2\n"

	txns := parseTxnsFromCSV([]byte(in), -1)
	if len(txns) != 2 {
		t.Fatalf("parsed %d txns, want 2", len(txns))
	}

	first := txns[0]
	if first.Date.Format("2006-01-02") != "2016-12-30" {
		t.Errorf("date = %v", first.Date)
	}
	if first.Cur != -123.45 {
		t.Errorf("amount = %v, want -123.45", first.Cur)
	}
	if first.Desc != "GROCERY STORE" {
		t.Errorf("desc = %q", first.Desc)
	}
	if first.Ref != "R1" {
		t.Errorf("ref = %q, want R1", first.Ref)
	}
	if first.CurName != *currency {
		t.Errorf("currency = %q, want default %q", first.CurName, *currency)
	}

	t.Run("accountColumn", func(t *testing.T) {
		in := "Date,Amount,Description,Account\n" +
			"2016-12-30,-5.00,COFFEE,CHK\n"
		setFlags(t, map[string]string{"ref-col": "-1"})
		txns := parseTxnsFromCSV([]byte(in), 3)
		if len(txns) != 1 {
			t.Fatalf("parsed %d txns, want 1", len(txns))
		}
		if txns[0].CSVAccount != "CHK" {
			t.Errorf("CSVAccount = %q, want CHK", txns[0].CSVAccount)
		}
	})

	t.Run("semicolonSeparator", func(t *testing.T) {
		setFlags(t, map[string]string{"sep": ";", "ref-col": "-1"})
		in := "Date;Amount;Description\n2016-12-30;-5.00;COFFEE\n"
		txns := parseTxnsFromCSV([]byte(in), -1)
		if len(txns) != 1 || txns[0].Desc != "COFFEE" {
			t.Fatalf("got %+v", txns)
		}
	})
}
