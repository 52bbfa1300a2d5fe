package main

import (
	"math"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// entryContext is the data visible to entry templates.
type entryContext struct {
	Date     time.Time
	Ref      string
	Payee    string
	To       string // decided counter-account
	From     string // originating account
	Amount   float64
	Currency string
	Comment  string
}

func toEntryContext(t Txn) entryContext {
	return entryContext{
		Date:     t.Date,
		Ref:      t.Ref,
		Payee:    t.Desc,
		To:       t.Counter,
		From:     t.Account,
		Amount:   t.Cur,
		Currency: t.CurName,
		Comment:  t.Comment,
	}
}

const defaultEntryTemplate = `{{.Date.Format "2006/01/02"}}{{with .Ref}} ({{.}}){{end}} {{.Payee}}
{{with .Comment}}    ; {{.}}
{{end}}    {{printf "%-28s" .To}}{{printf "%.2f" .Amount}} {{.Currency}}
    {{.From}}

`

func newEntryTemplate(text string) (*template.Template, error) {
	return template.New("entry").Funcs(template.FuncMap{
		"abs": math.Abs,
	}).Parse(text)
}

// hook intercepts entries whose payee matches a pattern, either to
// format them with a custom template or to drop them entirely.
type hook struct {
	re   *regexp.Regexp
	tmpl *template.Template
	drop bool
}

type hookConfig struct {
	Match    string `yaml:"match"`
	Template string `yaml:"template"`
	Drop     bool   `yaml:"drop"`
}

// formatter renders decided transactions as journal entries. Hooks are
// evaluated in file order, first match wins, and entries no hook claims
// fall through to the default template.
type formatter struct {
	hooks []hook
	def   *template.Template
}

// loadHooks builds a formatter from the hooks file in the config dir:
//
//	- match: ^PAYPAL
//	  template: |
//	    {{.Date.Format "2006/01/02"}} * {{.Payee}}
//	        ...
//	- match: ^INTERNAL TRANSFER
//	  drop: true
//
// A missing file means default formatting only.
func loadHooks(fpath string) *formatter {
	def, err := newEntryTemplate(defaultEntryTemplate)
	checkf(err, "Unable to parse default entry template")
	f := &formatter{def: def}

	data, err := os.ReadFile(fpath)
	if err != nil {
		return f
	}
	var cfgs []hookConfig
	checkf(yaml.Unmarshal(data, &cfgs), "Unable to parse hooks config at %s", fpath)

	for _, cfg := range cfgs {
		re, err := regexp.Compile(cfg.Match)
		checkf(err, "Unable to parse hook pattern %q in %s", cfg.Match, fpath)
		h := hook{re: re, drop: cfg.Drop, tmpl: def}
		if len(cfg.Template) > 0 {
			h.tmpl, err = newEntryTemplate(cfg.Template)
			checkf(err, "Unable to parse hook template for %q in %s", cfg.Match, fpath)
		}
		f.hooks = append(f.hooks, h)
	}
	return f
}

// format renders one transaction. The second return is false when a
// drop hook claimed it.
func (f *formatter) format(t Txn) (string, bool) {
	ctx := toEntryContext(t)
	for _, h := range f.hooks {
		if !h.re.MatchString(t.Desc) {
			continue
		}
		if h.drop {
			return "", false
		}
		return render(h.tmpl, ctx), true
	}
	return render(f.def, ctx), true
}

func render(tmpl *template.Template, ctx entryContext) string {
	var b strings.Builder
	checkf(tmpl.Execute(&b, ctx), "Unable to render entry for %v", ctx.Payee)
	return b.String()
}
