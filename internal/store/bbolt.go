package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	rowsBucket      = []byte("failed_events")
	byAttemptBucket = []byte("failed_events_by_attempt")
	byIMEIBucket    = []byte("failed_events_by_imei")
)

// BoltStore is the embedded-database implementation of Store, backed by
// go.etcd.io/bbolt. Rows are JSON-encoded under an auto-incrementing id key
// in rowsBucket; two secondary index buckets keep ordering by global
// attempt time (for NextFailedImei) and by per-IMEI attempt time (for
// List) without needing a query engine.
type BoltStore struct {
	db *bbolt.DB
}

// Open creates or opens a bbolt-backed failed-event store at path.
func Open(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{rowsBucket, byAttemptBucket, byIMEIBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func idKey(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}

func attemptIndexKey(attemptedAt int64, id uint64) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(attemptedAt))
	binary.BigEndian.PutUint64(b[8:16], id)
	return b
}

func imeiIndexKey(imei string, attemptedAt int64, id uint64) []byte {
	b := make([]byte, 0, len(imei)+1+16)
	b = append(b, []byte(imei)...)
	b = append(b, 0x00)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(attemptedAt))
	b = append(b, ts[:]...)
	var idb [8]byte
	binary.BigEndian.PutUint64(idb[:], id)
	return append(b, idb[:]...)
}

func (s *BoltStore) Persist(imei, handlerName string, eventData json.RawMessage, eventTimestamp time.Time) (uint64, error) {
	var id uint64
	now := time.Now().Unix()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		rows := tx.Bucket(rowsBucket)
		seq, err := rows.NextSequence()
		if err != nil {
			return err
		}
		id = seq

		row := FailedEvent{
			ID:          id,
			Timestamp:   eventTimestamp.Unix(),
			AttemptedAt: now,
			IMEI:        imei,
			HandlerName: handlerName,
			EventData:   eventData,
		}
		buf, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if err := rows.Put(idKey(id), buf); err != nil {
			return err
		}
		if err := tx.Bucket(byAttemptBucket).Put(attemptIndexKey(now, id), idKey(id)); err != nil {
			return err
		}
		return tx.Bucket(byIMEIBucket).Put(imeiIndexKey(imei, now, id), idKey(id))
	})
	return id, err
}

func (s *BoltStore) NextFailedImei() (string, bool, error) {
	var imei string
	var found bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(byAttemptBucket).Cursor()
		k, v := c.Last()
		if k == nil {
			return nil
		}
		row, err := s.getRow(tx, v)
		if err != nil {
			return err
		}
		imei = row.IMEI
		found = true
		return nil
	})
	return imei, found, err
}

func (s *BoltStore) List(imei string, limit int) ([]FailedEvent, error) {
	var out []FailedEvent

	err := s.db.View(func(tx *bbolt.Tx) error {
		prefix := append([]byte(imei), 0x00)
		c := tx.Bucket(byIMEIBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			row, err := s.getRow(tx, v)
			if err != nil {
				return err
			}
			out = append(out, row)
		}
		return nil
	})
	return out, err
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (s *BoltStore) getRow(tx *bbolt.Tx, idBytes []byte) (FailedEvent, error) {
	buf := tx.Bucket(rowsBucket).Get(idBytes)
	if buf == nil {
		return FailedEvent{}, ErrNotFound
	}
	var row FailedEvent
	if err := json.Unmarshal(buf, &row); err != nil {
		return FailedEvent{}, err
	}
	return row, nil
}

func (s *BoltStore) UpdateAttemptedAt(id uint64, t time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rows := tx.Bucket(rowsBucket)
		buf := rows.Get(idKey(id))
		if buf == nil {
			return ErrNotFound
		}
		var row FailedEvent
		if err := json.Unmarshal(buf, &row); err != nil {
			return err
		}

		if err := tx.Bucket(byAttemptBucket).Delete(attemptIndexKey(row.AttemptedAt, id)); err != nil {
			return err
		}
		if err := tx.Bucket(byIMEIBucket).Delete(imeiIndexKey(row.IMEI, row.AttemptedAt, id)); err != nil {
			return err
		}

		row.AttemptedAt = t.Unix()
		newBuf, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if err := rows.Put(idKey(id), newBuf); err != nil {
			return err
		}
		if err := tx.Bucket(byAttemptBucket).Put(attemptIndexKey(row.AttemptedAt, id), idKey(id)); err != nil {
			return err
		}
		return tx.Bucket(byIMEIBucket).Put(imeiIndexKey(row.IMEI, row.AttemptedAt, id), idKey(id))
	})
}

func (s *BoltStore) Delete(id uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rows := tx.Bucket(rowsBucket)
		buf := rows.Get(idKey(id))
		if buf == nil {
			return ErrNotFound
		}
		var row FailedEvent
		if err := json.Unmarshal(buf, &row); err != nil {
			return err
		}

		if err := tx.Bucket(byAttemptBucket).Delete(attemptIndexKey(row.AttemptedAt, id)); err != nil {
			return err
		}
		if err := tx.Bucket(byIMEIBucket).Delete(imeiIndexKey(row.IMEI, row.AttemptedAt, id)); err != nil {
			return err
		}
		return rows.Delete(idKey(id))
	})
}
