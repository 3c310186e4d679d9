package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pixperk/lamlock/pkg/types"
	"go.etcd.io/bbolt"
)

var intervalsBucket = []byte("intervals")

// Journal is a bbolt file holding every critical section interval of one
// peer, keyed by the bucket sequence so iteration follows record order.
type Journal struct {
	db *bbolt.DB
}

func NewJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(intervalsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Record appends interval to the journal.
func (j *Journal) Record(_ context.Context, interval types.Interval) error {
	value, err := json.Marshal(interval)
	if err != nil {
		return err
	}

	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(intervalsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), value)
	})
}

// Intervals returns every recorded interval in record order.
func (j *Journal) Intervals() ([]types.Interval, error) {
	return readIntervals(j.db)
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// LoadIntervals opens the journal at path read-only and returns its content.
func LoadIntervals(path string) ([]types.Interval, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	defer db.Close()

	return readIntervals(db)
}

func readIntervals(db *bbolt.DB) ([]types.Interval, error) {
	var out []types.Interval
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(intervalsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var interval types.Interval
			if err := json.Unmarshal(v, &interval); err != nil {
				return fmt.Errorf("interval %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, interval)
			return nil
		})
	})
	return out, err
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
