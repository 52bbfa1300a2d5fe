package main

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/boltdb/bolt"
)

var seenBucket = []byte("seen")

// seenLog records the fingerprint of every transaction written out, so
// re-running over an overlapping bank export does not import the same
// transaction twice.
type seenLog struct {
	db *bolt.DB
}

// sanitize reduces a description to the characters banks keep stable
// across exports. Whitespace and punctuation jitter must not change a
// transaction's identity.
func sanitize(a string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		if r >= 'A' && r <= 'Z' {
			return r
		}
		if r >= '0' && r <= '9' {
			return r
		}
		switch r {
		case '*', ':', '/', '.', '-':
			return r
		}
		return -1
	}, a)
}

// fingerprint identifies a transaction across runs: sanitized
// description, date and absolute amount. The sign is excluded since
// some banks flip it between preliminary and final exports.
func fingerprint(t Txn) []byte {
	return fmt.Appendf(nil, "%s|%s|%.2f", sanitize(t.Desc), t.Date.Format(stamp), math.Abs(t.Cur))
}

func openSeenLog(path string) (*seenLog, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &seenLog{db: db}, nil
}

func (s *seenLog) close() {
	s.db.Close()
}

func (s *seenLog) has(t Txn) bool {
	var found bool
	s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(seenBucket).Get(fingerprint(t)) != nil
		return nil
	})
	return found
}

func (s *seenLog) add(t Txn) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var val bytes.Buffer
		if err := gob.NewEncoder(&val).Encode(t); err != nil {
			return err
		}
		return tx.Bucket(seenBucket).Put(fingerprint(t), val.Bytes())
	})
}

// skipSeenTxns filters out transactions already recorded in the log.
func (s *seenLog) skipSeenTxns(txns []Txn) []Txn {
	final := txns[:0]
	var dups int
	for _, t := range txns {
		if s.has(t) {
			dups++
			continue
		}
		final = append(final, t)
	}
	if dups > 0 {
		fmt.Fprintf(os.Stderr, "\t%d previously imported transactions skipped.\n\n", dups)
	}
	return final
}
