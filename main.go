package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/fatih/color"
)

var (
	debug   = flag.Bool("debug", false, "Print classification traces for every transaction.")
	journal = flag.String("l", "", "Existing ledger journal to learn from.")
	csvFile = flag.String("f", "", "File path of CSV file containing new transactions.")
	jsonFile = flag.String("json", "",
		"File path of a JSON transaction export, as an alternative to -f.")
	output  = flag.String("out", "", "File to append generated entries to. Defaults to stdout.")
	account = flag.String("a", "", "Originating account name (e.g. 'Assets:Checking'), or a CSV column"+
		" index whose values map to accounts via csv-account comments in the journal.")
	currency  = flag.String("c", "USD", "Currency to use when the input carries none.")
	separator = flag.String("sep", ",", "CSV field separator.")
	skip      = flag.Int("skip", 1, "Number of header lines in CSV to skip.")
	dateCol   = flag.Int("date-col", 0, "CSV column containing the date.")
	amountCol = flag.Int("amount-col", 1, "CSV column containing the amount.")
	refCol    = flag.Int("ref-col", -1, "CSV column containing a reference id, -1 for none.")
	descCol = flag.String("desc-col", "%2", "Descriptor column spec: %n substitutes column n,"+
		" '!' separates alternatives tried in order (e.g. '%4!%1 %2').")
	dateFormat = flag.String("date", "01/02/2006",
		"Express your date format in numeric form w.r.t. Jan 02, 2006. See: https://golang.org/pkg/time/")
	invert       = flag.Bool("invert", false, "Invert the sign of all amounts.")
	decimalComma = flag.Bool("decimal-comma", false, "Treat comma as the decimal separator.")
	configDir    = flag.String("conf", os.Getenv("HOME")+"/.csv2ledger",
		"Config directory to store various csv2ledger configs in.")
	hooksFile = flag.String("hooks", "hooks.yaml", "Name of hooks file in the config directory.")
	skipSeen  = flag.Bool("skip-seen", true,
		"Skip transactions already imported by a previous run (tracked in the config directory).")
	bayesFB = flag.Bool("bayes-fallback", false,
		"Consult a naive-Bayes classifier for transactions the frequency model cannot decide.")
	aiReview = flag.Bool("ai", false,
		"Ask the Claude API to suggest accounts for transactions still undecided.")
	batchSize = flag.Int("batch-size", 50, "Number of transactions per AI review batch.")

	stamp      = "2006/01/02"
	descLength = 40
	catLength  = 20
)

type configs struct {
	Accounts map[string]map[string]string // account name and the flag overrides to apply for it.
	AI       struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"ai"`
}

type Txn struct {
	Date       time.Time
	Ref        string
	Desc       string
	Cur        float64
	CurName    string
	Account    string // originating journal account
	CSVAccount string // bank-side account identifier from the CSV, if any
	Counter    string // decided counter-account
	Comment    string
	amountOK   bool
}

type byTime []Txn

func (b byTime) Len() int               { return len(b) }
func (b byTime) Less(i int, j int) bool { return b[i].Date.Before(b[j].Date) }
func (b byTime) Swap(i int, j int)      { b[i], b[j] = b[j], b[i] }

// printSummary writes a one-line colored digest of a transaction to
// stderr: decision state, date, payee, counter-account, amount.
func printSummary(t Txn, idx, total int) {
	w := color.Error
	if len(t.Counter) > 0 && t.Counter != unknownAccount {
		color.New(color.BgGreen, color.FgBlack).Fprintf(w, " C ")
	} else {
		color.New(color.BgRed, color.FgWhite).Fprintf(w, " ? ")
	}
	color.New(color.BgBlue, color.FgWhite).Fprintf(w, " [%4d of %4d] ", idx, total)
	color.New(color.BgYellow, color.FgBlack).Fprintf(w, " %10s ", t.Date.Format(stamp))

	desc := t.Desc
	if len(desc) > descLength {
		desc = desc[:descLength]
	}
	color.New(color.BgWhite, color.FgBlack).Fprintf(w, " %-40s", desc)

	cat := t.Counter
	if len(cat) > catLength {
		cat = cat[len(cat)-catLength:]
	}
	color.New(color.BgGreen, color.FgBlack).Fprintf(w, " %-20s ", cat)
	color.New(color.BgRed, color.FgWhite).Fprintf(w, " %9.2f %3s ", t.Cur, t.CurName)
	fmt.Fprintln(w)
}

func main() {
	flag.Parse()

	if len(*journal) == 0 {
		oerr("Please specify the ledger journal to learn from with -l")
		return
	}
	if len(*csvFile) == 0 && len(*jsonFile) == 0 {
		oerr("Please specify a CSV file (-f) or JSON file (-json) with new transactions")
		return
	}

	checkf(os.MkdirAll(*configDir, 0o755), "Unable to create directory: %v", *configDir)

	var conf configs
	configPath := path.Join(*configDir, "config.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		checkf(yaml.Unmarshal(data, &conf), "Unable to unmarshal yaml config at %v", configPath)
		if ac, has := conf.Accounts[*account]; has {
			fmt.Fprintf(os.Stderr, "Using flags from config: %+v\n", ac)
			for k, v := range ac {
				flag.Set(k, v)
			}
		}
	}

	// -a is either an account name or a CSV column index carrying
	// bank-side identifiers to resolve through csv-account mappings.
	accountColIdx, accountName := -1, ""
	if colIdx, err := strconv.Atoi(*account); err == nil {
		accountColIdx = colIdx
	} else {
		accountName = *account
	}

	data, err := os.ReadFile(*journal)
	checkf(err, "Unable to read file: %v", *journal)

	p := parser{data: includeAll(path.Dir(*journal), data)}
	p.parseAccounts()
	p.parseAccountMappings()
	p.parseHistory()
	p.buildModel()

	var txns []Txn
	if len(*jsonFile) > 0 {
		in, err := os.ReadFile(*jsonFile)
		checkf(err, "Unable to read json file: %v", *jsonFile)
		txns = parseTxnsFromJSON(in)
	} else {
		in, err := os.ReadFile(*csvFile)
		checkf(err, "Unable to read csv file: %v", *csvFile)
		txns = parseTxnsFromCSV(in, accountColIdx)
	}

	for i := range txns {
		t := &txns[i]
		if len(t.CSVAccount) > 0 {
			if acc := p.matchAccountToLedger(t.CSVAccount); len(acc) > 0 {
				t.Account = acc
			} else if accountColIdx >= 0 {
				fmt.Fprintf(os.Stderr, "WARNING: Could not map CSV account %q to any journal account. "+
					"Consider adding csv-account mappings to your journal.\n", t.CSVAccount)
			}
		}
		if len(t.Account) == 0 {
			t.Account = accountName
		}
		if len(t.Account) == 0 {
			oerr("Unable to determine account for transaction. Please specify -a as an account" +
				" name, or as a CSV column index with csv-account mappings in the journal")
			return
		}
	}

	sort.Sort(byTime(txns))

	var seen *seenLog
	if *skipSeen {
		seen, err = openSeenLog(path.Join(*configDir, "seen.db"))
		checkf(err, "Unable to open seen-transaction log in %v", *configDir)
		defer seen.close()
		txns = seen.skipSeenTxns(txns)
	}

	rules := loadRules(path.Join(*configDir, "rules.yaml"))
	applyRules(rules, txns)

	for i := range txns {
		t := &txns[i]
		if len(t.Counter) == 0 {
			t.Counter = p.model.decide(t.Desc, t.Account)
		}
	}

	if *bayesFB {
		if fb := newFallback(p.hist); fb != nil {
			var count int
			for i := range txns {
				t := &txns[i]
				if t.Counter != unknownAccount {
					continue
				}
				if acc := fb.guess(t.Desc); len(acc) > 0 && !strings.Contains(acc, t.Account) {
					t.Counter = acc
					t.Comment = "bayes fallback guess"
					count++
				}
			}
			if count > 0 {
				fmt.Fprintf(os.Stderr, "\t%d transactions categorized by the bayes fallback.\n\n", count)
			}
		}
	}

	if *aiReview {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if len(conf.AI.APIKey) > 0 {
			apiKey = conf.AI.APIKey
		}
		var unknowns []*Txn
		for i := range txns {
			if txns[i].Counter == unknownAccount {
				unknowns = append(unknowns, &txns[i])
			}
		}
		reviewUnknowns(unknowns, p.accounts, p.accountComments, apiKey, conf.AI.Model)
	}

	hooks := loadHooks(path.Join(*configDir, *hooksFile))

	var out io.Writer = os.Stdout
	if len(*output) > 0 {
		of, err := os.OpenFile(*output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		checkf(err, "Unable to open output file: %v", *output)
		defer func() {
			checkf(of.Close(), "Unable to close output file: %v", *output)
		}()
		_, err = fmt.Fprintf(of, "; csv2ledger run at %v\n\n", time.Now())
		checkf(err, "Unable to write into output file: %v", *output)
		out = of
	}

	var written, unknown, dropped int
	for i, t := range txns {
		printSummary(t, i+1, len(txns))
		s, keep := hooks.format(t)
		if keep {
			_, err := io.WriteString(out, s)
			checkf(err, "Unable to write entry for: %v", t.Desc)
			written++
			if t.Counter == unknownAccount {
				unknown++
			}
		} else {
			dropped++
		}
		if seen != nil {
			checkf(seen.add(t), "Unable to record transaction in seen log")
		}
	}
	fmt.Fprintf(os.Stderr, "\n%d entries written, %d left for manual categorization, %d dropped by hooks.\n",
		written, unknown, dropped)
}
