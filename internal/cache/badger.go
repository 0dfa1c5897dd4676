package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Badger usa una base embebida con TTL nativo. Cada ámbito antepone su
// prefijo a las claves y FlushAll solo descarta ese prefijo.
type Badger struct {
	db     *badger.DB
	prefix []byte
}

// OpenBadger abre la base en path; con path vacío se usa solo memoria.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

// Scope devuelve una vista sobre la misma base limitada a un ámbito.
func (b *Badger) Scope(name string) *Badger {
	return &Badger{db: b.db, prefix: []byte(name + ":")}
}

func (b *Badger) Name() string { return "badger" }

func (b *Badger) Close() error { return b.db.Close() }

func (b *Badger) key(k string) []byte {
	return append(append([]byte(nil), b.prefix...), k...)
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, bool) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(b.key(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (b *Badger) FlushAll(context.Context) error {
	if len(b.prefix) == 0 {
		return b.db.DropAll()
	}
	return b.db.DropPrefix(b.prefix)
}
