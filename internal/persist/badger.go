package persist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "program/"

// Record is the value saved for a session.
type Record struct {
	Text      string    `msgpack:"text"`
	Session   string    `msgpack:"session"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

// BadgerOptions configures the badger Store.
type BadgerOptions struct {
	// Dir holds the data files. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in memory.
	InMemory bool

	// Session selects the record. A new random session is used when empty.
	Session string

	Logger *slog.Logger
}

// Badger is a Store saving one Record per session in badger.
type Badger struct {
	db      *badger.DB
	session string
	now     func() time.Time
}

// NewBadger opens the database.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger directory is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logger: logger})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open badger")
	}

	session := opts.Session
	if session == "" {
		session = uuid.NewString()
	}

	return &Badger{db: db, session: session, now: time.Now}, nil
}

// Session returns the id the record is saved under.
func (b *Badger) Session() string {
	return b.session
}

func (b *Badger) key() []byte {
	return []byte(keyPrefix + b.session)
}

func (b *Badger) Save(_ context.Context, text string) error {
	data, err := msgpack.Marshal(&Record{Text: text, Session: b.session, UpdatedAt: b.now().UTC()})
	if err != nil {
		return errors.Wrap(err, "unable to encode record")
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(), data)
	})
	if err != nil {
		return errors.Wrap(err, "unable to save record")
	}

	return nil
}

func (b *Badger) Load(ctx context.Context) (string, error) {
	rec, err := b.Record(ctx)
	if err != nil {
		return "", err
	}

	return rec.Text, nil
}

// Record returns the full record of the session.
func (b *Badger) Record(_ context.Context) (*Record, error) {
	var val []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key())
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, errors.Wrap(err, "unable to load record")
	}

	rec := &Record{}

	err = msgpack.Unmarshal(val, rec)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode record")
	}

	return rec, nil
}

func (b *Badger) Close() error {
	return errors.Wrap(b.db.Close(), "unable to close badger")
}

// badgerLogger forwards warnings and errors, dropping info and debug messages.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...any) {
	l.logger.Error(fmt.Sprintf(f, v...), "component", "badger")
}

func (l badgerLogger) Warningf(f string, v ...any) {
	l.logger.Warn(fmt.Sprintf(f, v...), "component", "badger")
}

func (badgerLogger) Infof(string, ...any)  {}
func (badgerLogger) Debugf(string, ...any) {}

var _ Store = (*Badger)(nil)
