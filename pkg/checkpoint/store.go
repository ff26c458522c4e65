package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
	"github.com/Sumatoshi-tech/docsplice/pkg/persist"
)

// Sentinel errors for checkpoint operations.
var (
	ErrMissingCount    = errors.New("checkpoint does not exist and no expected count was given")
	ErrInvalidCount    = errors.New("expected count must not be negative")
	ErrCorrupt         = errors.New("checkpoint is corrupt")
	ErrStaleCheckpoint = errors.New("checkpoint does not match the source")
	ErrAlreadyComplete = errors.New("checkpoint is already complete")
)

type options struct {
	expectedCount int
	hasCount      bool
	codec         persist.Codec
}

// Option configures [Open].
type Option func(*options)

// WithExpectedCount sets the number of units a new checkpoint expects. It is ignored
// when the checkpoint already exists on disk.
func WithExpectedCount(n int) Option {
	return func(o *options) {
		o.expectedCount = n
		o.hasCount = true
	}
}

// WithCodec sets the file codec. The default is pretty-printed JSON.
func WithCodec(codec persist.Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// Store is an open checkpoint. Every mutation is persisted before it returns.
type Store struct {
	mu        sync.Mutex
	persister *persist.Persister[Record]
	record    Record
	resumed   bool
}

// Open opens the checkpoint at path, creating it when it does not exist. An existing
// checkpoint keeps its stored expected count; a new one requires [WithExpectedCount] and
// is written to disk before Open returns.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{codec: persist.NewJSONCodec()}
	for _, opt := range opts {
		opt(&o)
	}

	store := &Store{
		persister: persist.NewPersister[Record](path, o.codec).WithValidator(validateDocument),
	}

	_, statErr := os.Stat(path)

	switch {
	case statErr == nil:
		record, err := store.load()
		if err != nil {
			return nil, err
		}

		store.record = record
		store.resumed = true
	case errors.Is(statErr, fs.ErrNotExist):
		if !o.hasCount {
			return nil, fmt.Errorf("open %s: %w", path, ErrMissingCount)
		}

		if o.expectedCount < 0 {
			return nil, fmt.Errorf("open %s: %w: %d", path, ErrInvalidCount, o.expectedCount)
		}

		store.record = Record{ExpectedCount: o.expectedCount, Completed: []docstring.Unit{}}

		err := store.save(&store.record)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("stat checkpoint: %w", statErr)
	}

	return store, nil
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.persister.Path()
}

// Resumed reports whether Open found an existing checkpoint.
func (s *Store) Resumed() bool {
	return s.resumed
}

// ExpectedCount returns the number of units the checkpoint was created for.
func (s *Store) ExpectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.record.ExpectedCount
}

// Len returns the number of completed units.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.record.Completed)
}

// Append records one completed unit. The checkpoint is re-read, extended and atomically
// rewritten; once Append returns without error the unit is on disk.
func (s *Store) Append(unit docstring.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.load()
	if err != nil {
		return err
	}

	if record.Done() {
		return fmt.Errorf("append to %s: %w", s.Path(), ErrAlreadyComplete)
	}

	record.Completed = append(record.Completed, unit)

	err = s.save(&record)
	if err != nil {
		return err
	}

	s.record = record

	return nil
}

// IsComplete re-reads the checkpoint from disk and reports whether every expected unit
// has been completed.
func (s *Store) IsComplete() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.load()
	if err != nil {
		return false, err
	}

	s.record = record

	return record.Done(), nil
}

// AllCompleted returns the completed units in append order.
func (s *Store) AllCompleted() []docstring.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.record.Completed)
}

// Verify checks that the checkpoint belongs to the given freshly located units: the
// expected count must equal len(units), and each completed entry must describe the unit
// at the same position.
func (s *Store) Verify(units []docstring.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record.ExpectedCount != len(units) {
		return fmt.Errorf("%w: checkpoint expects %d units, source has %d",
			ErrStaleCheckpoint, s.record.ExpectedCount, len(units))
	}

	for i, done := range s.record.Completed {
		if !done.SameOrigin(units[i]) {
			return fmt.Errorf("%w: entry %d (lines %d-%d) no longer matches the source",
				ErrStaleCheckpoint, i, done.StartLine, done.EndLine)
		}
	}

	return nil
}

// Delete removes the checkpoint file. A later Open starts a fresh checkpoint.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete checkpoint: %w", err)
	}

	return nil
}

func (s *Store) load() (Record, error) {
	record, err := s.persister.Load()
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) || errors.Is(err, ErrCorrupt) {
			return Record{}, fmt.Errorf("load checkpoint %s: %w", s.Path(), err)
		}

		return Record{}, fmt.Errorf("load checkpoint %s: %w: %w", s.Path(), ErrCorrupt, err)
	}

	if record.Completed == nil {
		record.Completed = []docstring.Unit{}
	}

	err = record.check()
	if err != nil {
		return Record{}, fmt.Errorf("load checkpoint %s: %w", s.Path(), err)
	}

	return *record, nil
}

func (s *Store) save(record *Record) error {
	err := s.persister.Save(record)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	return nil
}
