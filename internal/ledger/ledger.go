package ledger

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
)

// Store persists the full record snapshot.
type Store interface {
	// Load returns the saved records in saved order, or an empty slice when
	// nothing has been saved yet.
	Load(ctx context.Context) ([]Record, error)

	// Save replaces the saved snapshot with records.
	Save(ctx context.Context, records []Record) error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used for record keys. A clock that also has an
// Observe(int64) method is advanced past the loaded keys on Open; Create skips
// any key still in use either way.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithTokenGenerator sets the generator for the session token.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(l *Ledger) { l.tokens = g }
}

// Ledger owns the record collection and the active session.
//
// A Ledger is not safe for concurrent use: it is driven by one caller at a
// time and every method runs to completion before the next call.
type Ledger struct {
	store   Store
	clock   Clock
	log     *slog.Logger
	tokens  TokenGenerator
	session session
	records []Record
}

// Open creates a Ledger and loads the collection from store.
// Load is called exactly once.
func Open(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{store: store}
	for _, opt := range opts {
		opt(l)
	}
	if l.clock == nil {
		l.clock = NewMonotonicClock()
	}
	if l.tokens == nil {
		l.tokens = UUIDv7Generator{}
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	l.session.token = l.tokens.Generate()
	l.log = l.log.With("component", "ledger", "session", l.session.token)

	records, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	seen := make(map[int64]struct{}, len(records))
	var maxKey int64
	for _, r := range records {
		if _, dup := seen[r.CreatedAt]; dup {
			return nil, fmt.Errorf("load records: duplicate created_at %d", r.CreatedAt)
		}
		seen[r.CreatedAt] = struct{}{}
		maxKey = max(maxKey, r.CreatedAt)
	}
	if o, ok := l.clock.(observer); ok {
		o.Observe(maxKey)
	}

	l.records = slices.Clone(records)
	if l.records == nil {
		l.records = []Record{}
	}

	l.log.Debug("ledger loaded", slog.Int("records", len(l.records)))
	return l, nil
}

// SessionToken returns the token identifying this process's session in logs.
func (l *Ledger) SessionToken() string {
	return l.session.token
}

// SetIdentity declares the active identity. The value is trimmed and must be
// non-empty. It replaces any previous identity without verification.
func (l *Ledger) SetIdentity(raw string) error {
	if err := l.session.set(raw); err != nil {
		return err
	}
	l.log.Info("identity set", slog.String("identity", l.session.identity))
	return nil
}

// Identity returns the active identity, or "" if none is set.
func (l *Ledger) Identity() string {
	return l.session.identity
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of the collection in insertion order.
func (l *Ledger) Records() []Record {
	return slices.Clone(l.records)
}

// Get returns the record with the given key.
func (l *Ledger) Get(key int64) (Record, error) {
	i := l.indexOf(key)
	if i < 0 {
		return Record{}, newNotFound(key)
	}
	return l.records[i], nil
}

// Create appends a new record owned by the active identity.
//
// Serial is len(records)+1 at the moment of insertion and ID is derived from
// it. Existing records are never renumbered.
func (l *Ledger) Create(ctx context.Context, f Fields) (Record, error) {
	owner, err := l.session.require()
	if err != nil {
		return Record{}, err
	}

	f, missing := f.normalize()
	if len(missing) > 0 {
		return Record{}, newMissingField(missing)
	}

	serial := len(l.records) + 1
	r := Record{
		Serial:     serial,
		ID:         formatID(serial),
		Name:       f.Name,
		Topic:      f.Topic,
		OwnerID:    owner,
		Referenced: false,
		CreatedAt:  l.nextKey(),
	}
	l.records = append(l.records, r)

	l.log.InfoContext(ctx, "record created",
		slog.Int64("key", r.CreatedAt),
		slog.String("id", r.ID),
		slog.String("owner", owner),
	)
	return r, l.save(ctx)
}

// ToggleReferenced flips the referenced flag. Any session may do this,
// with or without an identity.
func (l *Ledger) ToggleReferenced(ctx context.Context, key int64) (Record, error) {
	i := l.indexOf(key)
	if i < 0 {
		return Record{}, newNotFound(key)
	}
	l.records[i].Referenced = !l.records[i].Referenced
	r := l.records[i]

	l.log.InfoContext(ctx, "record reference toggled",
		slog.Int64("key", key),
		slog.Bool("referenced", r.Referenced),
	)
	return r, l.save(ctx)
}

// Edit applies patch to a record owned by the active identity.
// Referenced records may still be edited.
func (l *Ledger) Edit(ctx context.Context, key int64, patch Patch) (Record, error) {
	i, err := l.ownedIndex(key)
	if err != nil {
		return Record{}, err
	}

	patch, missing := patch.normalize()
	if len(missing) > 0 {
		e := newMissingField(missing)
		e.Key = key
		return Record{}, e
	}
	if patch.Empty() {
		return l.records[i], nil
	}

	patch.applyTo(&l.records[i])
	r := l.records[i]

	l.log.InfoContext(ctx, "record edited", slog.Int64("key", key), slog.String("id", r.ID))
	return r, l.save(ctx)
}

// Delete removes a record owned by the active identity. Referenced records
// cannot be deleted, not even by their owner.
func (l *Ledger) Delete(ctx context.Context, key int64) error {
	i, err := l.ownedIndex(key)
	if err != nil {
		return err
	}
	if l.records[i].Referenced {
		return newReferenced(key)
	}

	l.records = slices.Delete(l.records, i, i+1)

	l.log.InfoContext(ctx, "record deleted", slog.Int64("key", key))
	return l.save(ctx)
}

// ClearAll removes every record regardless of owner or reference state.
// Callers are expected to confirm with the user first.
func (l *Ledger) ClearAll(ctx context.Context) error {
	n := len(l.records)
	l.records = []Record{}

	l.log.InfoContext(ctx, "records cleared", slog.Int("removed", n))
	return l.save(ctx)
}

// Filter returns the records matching query, sorted by serial ascending with
// ties broken by key. The sequence is lazy: each iteration reads the
// collection as it is at that moment.
func (l *Ledger) Filter(query string) iter.Seq[Record] {
	m := NewMatcher(query)
	return func(yield func(Record) bool) {
		for _, r := range l.sorted() {
			if !m.Match(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

func (l *Ledger) sorted() []Record {
	out := slices.Clone(l.records)
	slices.SortStableFunc(out, func(a, b Record) int {
		if a.Serial != b.Serial {
			return a.Serial - b.Serial
		}
		switch {
		case a.CreatedAt < b.CreatedAt:
			return -1
		case a.CreatedAt > b.CreatedAt:
			return 1
		}
		return 0
	})
	return out
}

// nextKey draws keys until one is unused. Next is strictly increasing, so
// this ends within len(records)+1 draws.
func (l *Ledger) nextKey() int64 {
	key := l.clock.Next()
	for l.indexOf(key) >= 0 {
		key = l.clock.Next()
	}
	return key
}

func (l *Ledger) indexOf(key int64) int {
	return slices.IndexFunc(l.records, func(r Record) bool { return r.CreatedAt == key })
}

// ownedIndex runs the shared identity, existence and ownership checks.
func (l *Ledger) ownedIndex(key int64) (int, error) {
	identity, err := l.session.require()
	if err != nil {
		return -1, err
	}
	i := l.indexOf(key)
	if i < 0 {
		return -1, newNotFound(key)
	}
	if !l.records[i].OwnedBy(identity) {
		return -1, newNotOwner(key)
	}
	return i, nil
}

// save writes the snapshot. A failure does not roll back the in-memory change.
func (l *Ledger) save(ctx context.Context) error {
	if err := l.store.Save(ctx, l.Records()); err != nil {
		l.log.WarnContext(ctx, "snapshot not saved", slog.String("error", err.Error()))
		return newIOError(err)
	}
	return nil
}
