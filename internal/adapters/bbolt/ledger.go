// Package bbolt implements the ports.Ledger interface using bbolt (embedded B+ tree).
// Runs live in a single "runs" bucket keyed by a big-endian sequence number, so
// a reverse cursor walk yields newest-first. Values are JSON-serialized
// BuildRecords. Writes are transactional; a crash mid-write cannot corrupt
// previously committed runs.
package bbolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/corey/tsbuild/internal/ports"
	bolt "go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

// Ledger implements ports.Ledger backed by bbolt.
type Ledger struct {
	db *bolt.DB
}

// NewLedger opens (or creates) a ledger database at the given path.
// The parent directory is created if needed.
func NewLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying bbolt database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func runKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// Record appends rec and assigns its ID.
func (l *Ledger) Record(rec *ports.BuildRecord) error {
	if rec == nil {
		return fmt.Errorf("nil build record")
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = id
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		return b.Put(runKey(id), data)
	})
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (l *Ledger) Recent(limit int) ([]*ports.BuildRecord, error) {
	var out []*ports.BuildRecord
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			rec, err := decode(v)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// LastSuccess returns the newest successful run for grammarFile.
// Returns nil, nil if none exists.
func (l *Ledger) LastSuccess(grammarFile string) (*ports.BuildRecord, error) {
	var found *ports.BuildRecord
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			rec, err := decode(v)
			if err != nil {
				return err
			}
			if rec.GrammarFile == grammarFile && rec.OK() {
				found = rec
				return nil
			}
		}
		return nil
	})
	return found, err
}

// decode unmarshals a record. json.Unmarshal copies, so the result stays
// valid after the transaction closes.
func decode(v []byte) (*ports.BuildRecord, error) {
	var rec ports.BuildRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}
