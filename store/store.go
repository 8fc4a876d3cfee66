package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/indexer"
	"github.com/omni/bridge-explorer/linker"
	"github.com/omni/bridge-explorer/logging"
	"github.com/omni/bridge-explorer/normalizer"
)

const (
	DefaultBatchSize = 500
	DefaultPageSize  = 50
	DefaultMaxSize   = 1000

	LookupLimit = 10
)

var ErrInvalidConfig = errors.New("invalid store config")

type Config struct {
	BatchSize int `yaml:"batch_size"`
	PageSize  int `yaml:"page_size"`
	MaxSize   int `yaml:"max_size"`
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}
	return c
}

func (c Config) Validate() error {
	c = c.withDefaults()
	if c.PageSize > c.BatchSize {
		return fmt.Errorf("page size %d exceeds batch size %d: %w", c.PageSize, c.BatchSize, ErrInvalidConfig)
	}
	if c.BatchSize > c.MaxSize {
		return fmt.Errorf("batch size %d exceeds max size %d: %w", c.BatchSize, c.MaxSize, ErrInvalidConfig)
	}
	return nil
}

// Store keeps the in-memory mirror of bridge transactions consistent with
// the indexer. All reconciliation happens under a single mutex, fetching and
// normalization happen outside of it.
type Store struct {
	source indexer.Client
	cfg    Config
	logger logging.Logger

	mu         sync.RWMutex
	byID       map[string]*entity.BridgeTransaction
	filter     entity.Filter
	watermark  *time.Time
	generation uint64
	loading    int
	lastErr    error

	subsMu  sync.Mutex
	subs    map[int]func(*entity.Diff)
	nextSub int
}

func New(source indexer.Client, cfg Config, logger logging.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.New()
	}
	return &Store{
		source: source,
		cfg:    cfg.withDefaults(),
		logger: logger.WithField("component", "store"),
		byID:   make(map[string]*entity.BridgeTransaction),
		subs:   make(map[int]func(*entity.Diff)),
	}, nil
}

func (s *Store) Config() Config {
	return s.cfg
}

// beginReplace registers an explicit replace under a new generation, so every
// fetch started before it is superseded.
func (s *Store) beginReplace() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.loading++
	s.lastErr = nil
	return s.generation
}

// beginScheduled registers a scheduler fetch under the current generation.
// It refuses while another fetch is in flight, and any replace started
// afterwards supersedes it.
func (s *Store) beginScheduled() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading > 0 {
		return 0, false
	}
	s.loading++
	s.lastErr = nil
	return s.generation, true
}

func (s *Store) end() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

func (s *Store) fail(mode entity.ReconcileMode, gen uint64, err error) error {
	kind, ok := entity.ErrorKindOf(err)
	if !ok {
		kind = "other"
	}
	FetchErrors.WithLabelValues(string(mode), string(kind)).Inc()

	s.mu.Lock()
	if gen == s.generation {
		s.lastErr = err
	}
	s.mu.Unlock()
	return err
}

func (s *Store) fetch(ctx context.Context, mode entity.ReconcileMode, gen uint64, filter entity.Filter) ([]*entity.BridgeTransaction, error) {
	logger := s.logger.WithFields(logrus.Fields{
		"fetch_id":   uuid.NewString(),
		"mode":       mode,
		"generation": gen,
	})
	logger.Debug("fetching bridge operations")
	raws, err := s.source.FetchOperations(ctx, filter)
	if err != nil {
		logger.WithError(err).Warn("failed to fetch bridge operations")
		return nil, s.fail(mode, gen, fmt.Errorf("can't fetch bridge operations: %w", err))
	}
	txs, err := normalizer.NormalizeBatch(raws)
	if err != nil {
		logger.WithError(err).Warn("failed to normalize bridge operations")
		return nil, s.fail(mode, gen, fmt.Errorf("can't normalize bridge operations: %w", err))
	}
	logger.WithField("count", len(txs)).Debug("fetched bridge operations")
	return txs, nil
}

// superseded must be called with s.mu held.
func (s *Store) superseded(mode entity.ReconcileMode, gen uint64) bool {
	if gen == s.generation {
		return false
	}
	SupersededResponses.WithLabelValues(string(mode)).Inc()
	s.logger.WithFields(logrus.Fields{
		"mode":       mode,
		"generation": gen,
		"current":    s.generation,
	}).Info("discarding superseded indexer response")
	return true
}

// Replace clears the cache and seeds it from one fresh batch matching filter.
// The filter becomes the active filter of subsequent merges.
func (s *Store) Replace(ctx context.Context, filter entity.Filter) (*entity.Diff, error) {
	gen := s.beginReplace()
	defer s.end()
	return s.replace(ctx, gen, filter)
}

// Reload re-seeds the cache from the active filter on behalf of the scheduler.
// It fails with entity.ErrBusy while another fetch is in flight.
func (s *Store) Reload(ctx context.Context) (*entity.Diff, error) {
	gen, ok := s.beginScheduled()
	if !ok {
		return nil, busyError(entity.ReconcileModeReplace)
	}
	defer s.end()

	s.mu.RLock()
	filter := s.filter
	s.mu.RUnlock()
	return s.replace(ctx, gen, filter)
}

func (s *Store) replace(ctx context.Context, gen uint64, filter entity.Filter) (*entity.Diff, error) {
	const mode = entity.ReconcileModeReplace

	active := filter
	active.Since = nil
	active.Limit = 0
	active.Offset = 0

	req := active
	req.Limit = s.cfg.BatchSize
	txs, err := s.fetch(ctx, mode, gen, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.superseded(mode, gen) {
		s.mu.Unlock()
		return nil, supersededError(mode)
	}
	linked := linker.Link(txs, nil)
	diff := &entity.Diff{Mode: mode, Generation: gen, Folded: linked.Folded}
	folded := make(map[string]bool, len(linked.Folded))
	for _, id := range linked.Folded {
		folded[id] = true
	}
	next := make(map[string]*entity.BridgeTransaction, len(linked.Kept))
	for _, tx := range linked.Kept {
		if _, ok := s.byID[tx.ID]; ok {
			diff.Updated = append(diff.Updated, tx.ID)
		} else {
			diff.Inserted = append(diff.Inserted, tx.ID)
		}
		next[tx.ID] = tx
	}
	for id := range s.byID {
		if _, ok := next[id]; !ok && !folded[id] {
			diff.Evicted = append(diff.Evicted, id)
		}
	}
	s.byID = next
	s.filter = active
	s.evict(diff)
	s.refreshWatermark()
	s.mu.Unlock()

	s.report(diff)
	return diff, nil
}

// Merge fetches records updated since the watermark under the active filter
// and folds them into the cache, updating existing entries in place.
// It fails with entity.ErrBusy while another fetch is in flight.
func (s *Store) Merge(ctx context.Context) (*entity.Diff, error) {
	const mode = entity.ReconcileModeMerge

	gen, ok := s.beginScheduled()
	if !ok {
		return nil, busyError(mode)
	}
	defer s.end()

	s.mu.RLock()
	req := s.filter
	if s.watermark != nil {
		since := *s.watermark
		req.Since = &since
	}
	s.mu.RUnlock()
	req.Limit = s.cfg.BatchSize

	txs, err := s.fetch(ctx, mode, gen, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.superseded(mode, gen) {
		s.mu.Unlock()
		return nil, supersededError(mode)
	}
	diff := &entity.Diff{Mode: mode, Generation: gen}
	seen := make(map[string]bool)
	markUpdated := func(id string) {
		if !seen[id] {
			seen[id] = true
			diff.Updated = append(diff.Updated, id)
		}
	}

	linked := linker.Link(txs, s.cacheIndex())
	for _, id := range linked.Folded {
		// a cached orphan snapshot of a payout folded just now
		delete(s.byID, id)
		diff.Folded = append(diff.Folded, id)
	}
	for _, tx := range linked.Kept {
		cur, ok := s.byID[tx.ID]
		if !ok {
			s.byID[tx.ID] = tx
			seen[tx.ID] = true
			diff.Inserted = append(diff.Inserted, tx.ID)
			continue
		}
		payout := cur.LinkedPayout
		cur.Update(tx)
		if cur.LinkedPayout == nil && payout != nil {
			linker.Fold(cur, payout)
		}
		markUpdated(cur.ID)
	}
	for _, parent := range linked.Parents {
		markUpdated(parent.ID)
	}
	s.foldOrphans(diff, markUpdated)
	s.evict(diff)
	s.refreshWatermark()
	s.mu.Unlock()

	s.report(diff)
	return diff, nil
}

// cacheIndex must be called with s.mu held.
func (s *Store) cacheIndex() linker.Index {
	txs := make([]*entity.BridgeTransaction, 0, len(s.byID))
	for _, tx := range s.byID {
		txs = append(txs, tx)
	}
	return linker.NewIndex(txs)
}

// foldOrphans retires cached standalone payouts whose parent is now held.
func (s *Store) foldOrphans(diff *entity.Diff, markUpdated func(string)) {
	idx := s.cacheIndex()
	if len(idx) == 0 {
		return
	}
	for id, tx := range s.byID {
		if tx.Kind != entity.KindPayout {
			continue
		}
		parent := idx.ServiceProviderByHash(tx.DestinationChainHash)
		if parent == nil {
			continue
		}
		linker.Fold(parent, tx)
		delete(s.byID, id)
		diff.Folded = append(diff.Folded, id)
		diff.Inserted = removeID(diff.Inserted, id)
		diff.Updated = removeID(diff.Updated, id)
		markUpdated(parent.ID)
	}
}

// evict drops the oldest entries above MaxSize. Must be called with s.mu held.
func (s *Store) evict(diff *entity.Diff) {
	if len(s.byID) <= s.cfg.MaxSize {
		return
	}
	sorted := s.sortedLocked()
	for _, tx := range sorted[s.cfg.MaxSize:] {
		delete(s.byID, tx.ID)
		diff.Evicted = append(diff.Evicted, tx.ID)
		diff.Inserted = removeID(diff.Inserted, tx.ID)
		diff.Updated = removeID(diff.Updated, tx.ID)
	}
}

func (s *Store) refreshWatermark() {
	var newest *time.Time
	for _, tx := range s.byID {
		if newest == nil || tx.SubmittedAt.After(*newest) {
			ts := tx.SubmittedAt
			newest = &ts
		}
	}
	s.watermark = newest
	CacheSize.Set(float64(len(s.byID)))
	if newest != nil {
		Watermark.Set(float64(newest.Unix()))
	}
}

func (s *Store) report(diff *entity.Diff) {
	mode := string(diff.Mode)
	ReconciledTransactions.WithLabelValues(mode, "inserted").Add(float64(len(diff.Inserted)))
	ReconciledTransactions.WithLabelValues(mode, "updated").Add(float64(len(diff.Updated)))
	ReconciledTransactions.WithLabelValues(mode, "evicted").Add(float64(len(diff.Evicted)))
	ReconciledTransactions.WithLabelValues(mode, "folded").Add(float64(len(diff.Folded)))

	s.logger.WithFields(logrus.Fields{
		"mode":       diff.Mode,
		"generation": diff.Generation,
		"inserted":   len(diff.Inserted),
		"updated":    len(diff.Updated),
		"evicted":    len(diff.Evicted),
		"folded":     len(diff.Folded),
	}).Debug("reconciled bridge transactions")

	if diff.Mode == entity.ReconcileModeMerge && diff.IsEmpty() {
		return
	}
	s.subsMu.Lock()
	subs := make([]func(*entity.Diff), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.subsMu.Unlock()
	for _, f := range subs {
		f(diff)
	}
}

// Subscribe registers f to be called after every reconciliation that changed
// the cache. The returned function removes the subscription.
func (s *Store) Subscribe(f func(*entity.Diff)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = f
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Lookup fetches the transactions matching hash without touching the cache.
func (s *Store) Lookup(ctx context.Context, hash string) ([]*entity.BridgeTransaction, error) {
	raws, err := s.source.FetchOperations(ctx, entity.Filter{TxHash: hash, Limit: LookupLimit})
	if err != nil {
		return nil, fmt.Errorf("can't fetch bridge operations: %w", err)
	}
	txs, err := normalizer.NormalizeBatch(raws)
	if err != nil {
		return nil, fmt.Errorf("can't normalize bridge operations: %w", err)
	}
	linked := linker.Link(txs, nil)
	if len(linked.Kept) == 0 {
		return nil, entity.ErrNotFound
	}
	sortNewestFirst(linked.Kept)
	return linked.Kept, nil
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Err returns the error of the latest fetch, nil if it succeeded or is in flight.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) ActiveFilter() entity.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Store) Watermark() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.watermark == nil {
		return nil
	}
	ts := *s.watermark
	return &ts
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) Get(id string) (*entity.BridgeTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.byID[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return tx.Clone(), nil
}

// Sorted returns copies of all cached transactions, newest first.
func (s *Store) Sorted() []*entity.BridgeTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.sortedLocked())
}

// Page returns the n-th page (1-based) of the sorted view.
func (s *Store) Page(n int) []*entity.BridgeTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 1 {
		return []*entity.BridgeTransaction{}
	}
	sorted := s.sortedLocked()
	from := (n - 1) * s.cfg.PageSize
	if from >= len(sorted) {
		return []*entity.BridgeTransaction{}
	}
	to := from + s.cfg.PageSize
	if to > len(sorted) {
		to = len(sorted)
	}
	return cloneAll(sorted[from:to])
}

func (s *Store) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (len(s.byID) + s.cfg.PageSize - 1) / s.cfg.PageSize
}

func (s *Store) sortedLocked() []*entity.BridgeTransaction {
	res := make([]*entity.BridgeTransaction, 0, len(s.byID))
	for _, tx := range s.byID {
		res = append(res, tx)
	}
	sortNewestFirst(res)
	return res
}

func sortNewestFirst(txs []*entity.BridgeTransaction) {
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].IsNewerThan(txs[j])
	})
}

func cloneAll(txs []*entity.BridgeTransaction) []*entity.BridgeTransaction {
	res := make([]*entity.BridgeTransaction, len(txs))
	for i, tx := range txs {
		res[i] = tx.Clone()
	}
	return res
}

func removeID(ids []string, id string) []string {
	for i := range ids {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func supersededError(mode entity.ReconcileMode) error {
	return fmt.Errorf("%s: %w", mode, entity.ErrSuperseded)
}

func busyError(mode entity.ReconcileMode) error {
	return fmt.Errorf("%s: %w", mode, entity.ErrBusy)
}
