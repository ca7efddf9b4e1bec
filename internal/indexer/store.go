package indexer

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer/lock"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

const (
	docPrefix   = "doc:"
	metaCreated = "meta:created"
	metaSeq     = "meta:seq"

	lockFileName = "writer.lock"
	docsDirName  = "docs"
)

type record struct {
	Seq uint64       `json:"seq"`
	Doc TestDocument `json:"doc"`
}

// snapshot is an immutable read view of the committed documents.
type snapshot struct {
	generation uint64
	idx        *index.MemoryIndex
	docs       map[string]record
	byFile     map[string][]string
}

func (s *snapshot) Search(term string) index.PostingList { return s.idx.Search(term) }
func (s *snapshot) DocCount() int                        { return s.idx.DocCount() }
func (s *snapshot) AvgDocLength() float64                { return s.idx.AvgDocLength() }
func (s *snapshot) DocLength(docID string) int           { return s.idx.DocLength(docID) }
func (s *snapshot) Seq(docID string) uint64              { return s.docs[docID].Seq }

// Stats describes the store at one point in time. Docs counts the documents
// visible to Search.
type Stats struct {
	Docs       int    `json:"docs"`
	Pending    int    `json:"pending"`
	Generation uint64 `json:"generation"`
}

// Store is the document index of one project namespace. A single Store owns
// the namespace directory for its lifetime. Insert, RemoveByKey and Refresh
// are serialized; Search runs against the snapshot from the latest Refresh
// and may be called concurrently with writes.
type Store struct {
	mu       sync.Mutex
	db       *badger.DB
	lock     *lock.FileLock
	dir      string
	existed  bool
	created  bool
	nextSeq  uint64
	pending  map[string]*record
	current  atomic.Pointer[snapshot]
	closed   atomic.Bool
	executor *executor.Executor
	logger   *slog.Logger
}

// Open opens or creates the index for namespace under cfg.DataDir. An empty
// namespace falls back to cfg.Namespace. If another writer holds the
// namespace the error wraps errors.ErrStoreLocked; Open does not wait.
func Open(cfg config.IndexConfig, namespace string) (*Store, error) {
	if namespace == "" {
		namespace = cfg.Namespace
	}
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "indexer", "namespace", namespace)
	s := &Store{
		pending:  make(map[string]*record),
		executor: executor.New(),
		logger:   logger,
	}

	opts := badger.DefaultOptions("").WithInMemory(true)
	if !cfg.InMemory {
		s.dir = filepath.Join(cfg.DataDir, namespace)
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
		l, err := lock.Acquire(filepath.Join(s.dir, lockFileName))
		if err != nil {
			logger.Warn("index unavailable", "dir", s.dir, "error", err)
			return nil, err
		}
		s.lock = l
		logger.Debug("writer lock acquired", "path", l.Path())
		opts = badger.DefaultOptions(filepath.Join(s.dir, docsDirName))
	}
	opts = opts.WithLogger(newBadgerLogger(logger))

	db, err := badger.Open(opts)
	if err != nil {
		s.releaseLock()
		return nil, fmt.Errorf("opening document store %s: %w: %w", s.dir, errors.ErrStoreCorrupt, err)
	}
	s.db = db

	if err := s.loadMeta(); err != nil {
		s.shutdown()
		return nil, err
	}
	snap, err := s.loadSnapshot(0)
	if err != nil {
		s.shutdown()
		return nil, err
	}
	s.current.Store(snap)
	s.created = s.existed

	logger.Info("index opened",
		"dir", s.dir,
		"in_memory", cfg.InMemory,
		"existed", s.existed,
		"docs", snap.idx.DocCount(),
	)
	return s, nil
}

func validateNamespace(ns string) error {
	if ns == "" || ns == "." || ns == ".." || strings.ContainsAny(ns, `/\`) {
		return errors.Newf(errors.ErrInvalidInput, errors.ExitUsage, "invalid index namespace %q", ns)
	}
	return nil
}

// Existed reports whether a committed index was present when the store was
// opened.
func (s *Store) Existed() bool {
	return s.existed
}

// Insert stages doc. It is invisible to Search until Refresh. A live document
// with the same identity key is replaced.
func (s *Store) Insert(doc TestDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return errors.ErrStoreClosed
	}

	key := doc.Key()
	prev, staged := s.pending[key]
	_, committed := s.current.Load().docs[key]
	if (staged && prev != nil) || (!staged && committed) {
		s.logger.Warn("ambiguous identity, replacing document", "key", key)
	}

	s.nextSeq++
	s.pending[key] = &record{Seq: s.nextSeq, Doc: doc}
	return nil
}

// RemoveByKey stages the removal of the document with the full identity key
// and returns it. The bool is false when no such document exists.
func (s *Store) RemoveByKey(className, methodName, parameters string) (*TestDocument, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return nil, false, errors.ErrStoreClosed
	}

	key := Key(className, methodName, parameters)
	if rec, staged := s.pending[key]; staged {
		if rec == nil {
			return nil, false, nil
		}
		s.pending[key] = nil
		doc := rec.Doc
		return &doc, true, nil
	}
	rec, ok := s.current.Load().docs[key]
	if !ok {
		return nil, false, nil
	}
	s.pending[key] = nil
	doc := rec.Doc
	return &doc, true, nil
}

// DocumentsIn returns the live documents last indexed from relPath, staged
// writes included, ordered by identity key.
func (s *Store) DocumentsIn(relPath string) ([]TestDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return nil, errors.ErrStoreClosed
	}

	found := make(map[string]TestDocument)
	snap := s.current.Load()
	for _, key := range snap.byFile[relPath] {
		if _, staged := s.pending[key]; staged {
			continue
		}
		found[key] = snap.docs[key].Doc
	}
	for key, rec := range s.pending {
		if rec != nil && rec.Doc.SourcePath == relPath {
			found[key] = rec.Doc
		}
	}

	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]TestDocument, len(keys))
	for i, k := range keys {
		out[i] = found[k]
	}
	return out, nil
}

// Refresh commits staged writes and swaps in a snapshot that observes them.
func (s *Store) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return errors.ErrStoreClosed
	}

	start := time.Now()
	ops := len(s.pending)
	if err := s.commitLocked(); err != nil {
		return err
	}
	next, err := s.loadSnapshot(s.current.Load().generation + 1)
	if err != nil {
		return err
	}
	s.current.Store(next)

	s.logger.Info("index refreshed",
		"ops", ops,
		"docs", next.idx.DocCount(),
		"terms", next.idx.Terms(),
		"generation", next.generation,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// commitLocked writes the pending set in one batch. The first commit also
// marks the namespace as created.
func (s *Store) commitLocked() error {
	if len(s.pending) == 0 && s.created {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec := s.pending[k]
		if rec == nil {
			if err := wb.Delete([]byte(docPrefix + k)); err != nil {
				return fmt.Errorf("staging delete of %s: %w", k, err)
			}
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", k, err)
		}
		if err := wb.Set([]byte(docPrefix+k), data); err != nil {
			return fmt.Errorf("staging %s: %w", k, err)
		}
	}

	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], s.nextSeq)
	if err := wb.Set([]byte(metaSeq), seq[:]); err != nil {
		return fmt.Errorf("staging sequence: %w", err)
	}
	if !s.created {
		stamp := []byte(time.Now().UTC().Format(time.RFC3339))
		if err := wb.Set([]byte(metaCreated), stamp); err != nil {
			return fmt.Errorf("staging created marker: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("committing index writes: %w", err)
	}

	s.created = true
	s.pending = make(map[string]*record)
	return nil
}

func (s *Store) loadMeta() error {
	return s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(metaCreated)); err == nil {
			s.existed = true
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("reading created marker: %w", err)
		}

		item, err := txn.Get([]byte(metaSeq))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading sequence: %w", err)
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("sequence has %d bytes: %w", len(val), errors.ErrStoreCorrupt)
			}
			s.nextSeq = binary.BigEndian.Uint64(val)
			return nil
		})
	})
}

// loadSnapshot reads every committed document and indexes it in insertion
// order.
func (s *Store) loadSnapshot(generation uint64) (*snapshot, error) {
	snap := &snapshot{
		generation: generation,
		idx:        index.NewMemoryIndex(),
		docs:       make(map[string]record),
		byFile:     make(map[string][]string),
	}
	var records []record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var rec record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decoding %s: %w: %w", item.Key(), errors.ErrStoreCorrupt, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	for _, rec := range records {
		key := rec.Doc.Key()
		snap.docs[key] = rec
		snap.idx.AddDocument(key, rec.Doc.Content)
		if rec.Doc.SourcePath != "" {
			snap.byFile[rec.Doc.SourcePath] = append(snap.byFile[rec.Doc.SourcePath], key)
		}
	}
	return snap, nil
}

// Search returns at most n documents matching query, best first, from the
// latest refreshed snapshot. An unparsable query returns an error wrapping
// errors.ErrBadQuery and no hits.
func (s *Store) Search(query string, n int) ([]Hit, error) {
	if s.closed.Load() {
		return nil, errors.ErrStoreClosed
	}
	plan, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	snap := s.current.Load()
	res := s.executor.Execute(snap, plan, n)

	hits := make([]Hit, 0, len(res.Results))
	for _, r := range res.Results {
		rec, ok := snap.docs[r.DocID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Doc: rec.Doc, Score: r.Score})
	}
	return hits, nil
}

// Documents returns the committed documents in insertion order.
func (s *Store) Documents() []TestDocument {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	recs := make([]record, 0, len(snap.docs))
	for _, rec := range snap.docs {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	out := make([]TestDocument, len(recs))
	for i, rec := range recs {
		out[i] = rec.Doc
	}
	return out
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	pending := len(s.pending)
	s.mu.Unlock()
	st := Stats{Pending: pending}
	if snap := s.current.Load(); snap != nil {
		st.Docs = snap.idx.DocCount()
		st.Generation = snap.generation
	}
	return st
}

// Close commits outstanding writes, closes the store and releases the writer
// lock. It is idempotent and always returns nil; failures are logged.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Swap(true) {
		return nil
	}
	if len(s.pending) > 0 {
		s.logger.Info("committing pending writes on close", "ops", len(s.pending))
		if err := s.commitLocked(); err != nil {
			s.logger.Error("final commit on close failed", "error", err)
		}
	}
	s.shutdown()
	s.logger.Info("index closed")
	return nil
}

func (s *Store) shutdown() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("closing document store", "error", err)
		}
		s.db = nil
	}
	s.releaseLock()
}

func (s *Store) releaseLock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Release(); err != nil {
		s.logger.Error("releasing writer lock", "error", err)
	}
	s.lock = nil
}
