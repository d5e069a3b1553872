package glimpse

import (
	"bytes"
	"encoding/gob"
	"log/slog"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// payloadStore persists each widget's last successful payload so a restart
// serves stale data instead of an empty dashboard. Writes go through a single
// async writer loop; the scheduler never blocks on disk.
type payloadStore struct {
	db *leveldb.DB

	ops  chan storeOp
	done chan struct{}
}

type storeOp struct {
	id  string
	rec storedPayload
}

type storedPayload struct {
	Payload   Payload
	SuccessAt int64 // unix nanoseconds
}

func openPayloadStore(path string) (*payloadStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	s := &payloadStore{
		db:   db,
		ops:  make(chan storeOp, 256),
		done: make(chan struct{}),
	}
	go s.writerLoop()
	return s, nil
}

func (s *payloadStore) close() {
	close(s.ops)
	<-s.done
	_ = s.db.Close()
}

func (s *payloadStore) writerLoop() {
	defer close(s.done)
	for op := range s.ops {
		b, err := encodeGob(op.rec)
		if err != nil {
			slog.Warn("payload store encode failed", "widget", op.id, "error", err)
			continue
		}
		if err := s.db.Put([]byte("p:"+op.id), b, nil); err != nil {
			slog.Warn("payload store write failed", "widget", op.id, "error", err)
		}
	}
}

// PutAsync queues a successful payload for persistence.
func (s *payloadStore) PutAsync(id string, p Payload, at time.Time) {
	s.ops <- storeOp{id: id, rec: storedPayload{Payload: p, SuccessAt: at.UnixNano()}}
}

// LoadAll returns every persisted payload keyed by widget id.
func (s *payloadStore) LoadAll() map[string]storedPayload {
	out := map[string]storedPayload{}
	it := s.db.NewIterator(util.BytesPrefix([]byte("p:")), nil)
	defer it.Release()
	for it.Next() {
		id := string(bytes.TrimPrefix(it.Key(), []byte("p:")))
		var rec storedPayload
		if err := decodeGob(it.Value(), &rec); err != nil {
			slog.Warn("payload store decode failed, skipping", "widget", id, "error", err)
			continue
		}
		out[id] = rec
	}
	return out
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
