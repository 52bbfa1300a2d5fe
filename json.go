package main

import (
	"encoding/json"
	"time"
)

// jsonTxn is the shape of one record in a JSON transaction export, as
// produced by bank APIs and aggregators.
type jsonTxn struct {
	Date     string  `json:"date"`
	Desc     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"iso_currency_code"`
	Ref      string  `json:"transaction_id"`
	Account  string  `json:"account_id"`
	Pending  bool    `json:"pending"`
}

// parseTxnsFromJSON reads a JSON array of transactions as an alternate
// input to CSV. Pending transactions are dropped; they reappear with a
// final amount in a later export.
func parseTxnsFromJSON(in []byte) []Txn {
	var raw []jsonTxn
	checkf(json.Unmarshal(in, &raw), "Unable to parse JSON transactions")

	result := make([]Txn, 0, len(raw))
	for _, j := range raw {
		if j.Pending {
			continue
		}
		date, err := time.Parse("2006-01-02", j.Date)
		checkf(err, "Unable to parse JSON transaction date: %v", j.Date)

		t := Txn{
			Date:       date,
			Desc:       j.Desc,
			Cur:        j.Amount,
			CurName:    j.Currency,
			Ref:        j.Ref,
			CSVAccount: j.Account,
			amountOK:   true,
		}
		if t.CurName == "" {
			t.CurName = *currency
		}
		if *invert {
			t.Cur = -t.Cur
		}
		result = append(result, t)
	}
	return result
}
