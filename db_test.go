package main

import (
	"bytes"
	"path"
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	date, _ := time.Parse("2006-01-02", "2016-12-30")
	base := Txn{Date: date, Desc: "GROCERY STORE", Cur: -123.45}

	t.Run("punctuationInsensitive", func(t *testing.T) {
		noisy := base
		noisy.Desc = "GROCERY  STORE!"
		if !bytes.Equal(fingerprint(base), fingerprint(noisy)) {
			t.Errorf("fingerprints differ: %s vs %s", fingerprint(base), fingerprint(noisy))
		}
	})

	t.Run("signInsensitive", func(t *testing.T) {
		flipped := base
		flipped.Cur = 123.45
		if !bytes.Equal(fingerprint(base), fingerprint(flipped)) {
			t.Error("fingerprint changed with the amount sign")
		}
	})

	t.Run("dateSensitive", func(t *testing.T) {
		other := base
		other.Date = base.Date.AddDate(0, 0, 1)
		if bytes.Equal(fingerprint(base), fingerprint(other)) {
			t.Error("fingerprint identical across different dates")
		}
	})

	t.Run("amountSensitive", func(t *testing.T) {
		other := base
		other.Cur = -123.46
		if bytes.Equal(fingerprint(base), fingerprint(other)) {
			t.Error("fingerprint identical across different amounts")
		}
	})
}

func TestSeenLog(t *testing.T) {
	sl, err := openSeenLog(path.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatalf("openSeenLog: %v", err)
	}
	defer sl.close()

	date, _ := time.Parse("2006-01-02", "2016-12-30")
	txn := Txn{Date: date, Desc: "GROCERY STORE", Cur: -123.45, CurName: "USD"}

	if sl.has(txn) {
		t.Error("fresh log reports a transaction as seen")
	}
	if err := sl.add(txn); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !sl.has(txn) {
		t.Error("added transaction not found")
	}

	t.Run("skipSeenTxns", func(t *testing.T) {
		other := txn
		other.Desc = "EMPLOYER PAYOUT"
		other.Cur = 3000.00
		left := sl.skipSeenTxns([]Txn{txn, other})
		if len(left) != 1 || left[0].Desc != "EMPLOYER PAYOUT" {
			t.Errorf("skipSeenTxns left %+v, want only the unseen transaction", left)
		}
	})
}
