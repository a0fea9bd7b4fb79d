// Package memory is the fixture-backed DataSource. It keeps everything in
// mutex-guarded maps with the same uniqueness rules as the database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

type key struct {
	subjectID string
	period    string
}

// Store is an in-memory implementation of contracts.DataSource.
type Store struct {
	mu          sync.RWMutex
	subjects    []contracts.Subject
	snapshots   map[key]contracts.Snapshot
	spotlights  map[key]contracts.Spotlight
	reports     map[string]contracts.MarketReport
	news        map[string][]contracts.NewsItem
	newsletters map[string]contracts.Newsletter
	subscribers map[string]struct{}
	requests    map[string]*contracts.CityRequest
	now         func() time.Time
}

// Compile-time interface check.
var _ contracts.DataSource = (*Store)(nil)

// New creates an empty store tracking subjects.
func New(subjects []contracts.Subject) *Store {
	return &Store{
		subjects:    append([]contracts.Subject(nil), subjects...),
		snapshots:   make(map[key]contracts.Snapshot),
		spotlights:  make(map[key]contracts.Spotlight),
		reports:     make(map[string]contracts.MarketReport),
		news:        make(map[string][]contracts.NewsItem),
		newsletters: make(map[string]contracts.Newsletter),
		subscribers: make(map[string]struct{}),
		requests:    make(map[string]*contracts.CityRequest),
		now:         time.Now,
	}
}

// Name identifies the implementation.
func (s *Store) Name() string { return "fixture" }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// ListSubjects returns subjects ordered by name.
func (s *Store) ListSubjects(_ context.Context) ([]contracts.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]contracts.Subject(nil), s.subjects...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetSubject returns a subject by ID, or contracts.ErrNotFound.
func (s *Store) GetSubject(_ context.Context, id string) (*contracts.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, subj := range s.subjects {
		if subj.ID == id {
			c := subj
			return &c, nil
		}
	}
	return nil, contracts.ErrNotFound
}

// GetSubjectBySlug returns a subject by slug, or contracts.ErrNotFound.
func (s *Store) GetSubjectBySlug(_ context.Context, slug string) (*contracts.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, subj := range s.subjects {
		if subj.Slug == slug {
			c := subj
			return &c, nil
		}
	}
	return nil, contracts.ErrNotFound
}

// Exists reports whether a snapshot for (subjectID, period) is stored.
func (s *Store) Exists(_ context.Context, subjectID, period string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.snapshots[key{subjectID, period}]
	return ok, nil
}

// GetPrevious returns the latest snapshot strictly before period, or nil.
func (s *Store) GetPrevious(_ context.Context, subjectID, before string) (*contracts.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *contracts.Snapshot
	for k, snap := range s.snapshots {
		if k.subjectID != subjectID || k.period >= before {
			continue
		}
		if best == nil || k.period > best.Period {
			c := copySnapshot(snap)
			best = &c
		}
	}
	return best, nil
}

// Insert stores a new snapshot. Returns ErrConflict if (subject, period) exists.
func (s *Store) Insert(_ context.Context, snap *contracts.Snapshot) error {
	if snap == nil || snap.SubjectID == "" || snap.Period == "" {
		return fmt.Errorf("%w: snapshot needs subject and period", contracts.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{snap.SubjectID, snap.Period}
	if _, exists := s.snapshots[k]; exists {
		return fmt.Errorf("insert snapshot %s/%s: %w", snap.SubjectID, snap.Period, contracts.ErrConflict)
	}

	// Store a copy to prevent external mutation
	c := copySnapshot(*snap)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.snapshots[k] = c
	return nil
}

func (s *Store) filterSnapshots(keep func(contracts.Snapshot) bool) []contracts.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []contracts.Snapshot{}
	for _, snap := range s.snapshots {
		if keep(snap) {
			out = append(out, copySnapshot(snap))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].SubjectID < out[j].SubjectID
	})
	return out
}

// ListByPeriod returns every snapshot of a period, highest score first.
func (s *Store) ListByPeriod(_ context.Context, period string) ([]contracts.Snapshot, error) {
	out := s.filterSnapshots(func(snap contracts.Snapshot) bool { return snap.Period == period })
	sort.SliceStable(out, func(i, j int) bool { return out[i].IndexScore.GreaterThan(out[j].IndexScore) })
	return out, nil
}

// ListBySubject returns a subject's snapshots, oldest first.
func (s *Store) ListBySubject(_ context.Context, subjectID string) ([]contracts.Snapshot, error) {
	return s.filterSnapshots(func(snap contracts.Snapshot) bool { return snap.SubjectID == subjectID }), nil
}

// ListAll returns every snapshot, oldest first.
func (s *Store) ListAll(_ context.Context) ([]contracts.Snapshot, error) {
	return s.filterSnapshots(func(contracts.Snapshot) bool { return true }), nil
}

// ListPeriods returns distinct periods with data, most recent first.
func (s *Store) ListPeriods(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	periods := []string{}
	for k := range s.snapshots {
		if _, ok := seen[k.period]; !ok {
			seen[k.period] = struct{}{}
			periods = append(periods, k.period)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	if limit > 0 && len(periods) > limit {
		periods = periods[:limit]
	}
	return periods, nil
}

// InsertSpotlight stores a spotlight. Returns ErrConflict if (subject, period) exists.
func (s *Store) InsertSpotlight(_ context.Context, sp *contracts.Spotlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{sp.SubjectID, sp.Period}
	if _, exists := s.spotlights[k]; exists {
		return fmt.Errorf("insert spotlight %s/%s: %w", sp.SubjectID, sp.Period, contracts.ErrConflict)
	}
	c := *sp
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.spotlights[k] = c
	return nil
}

// LatestSpotlight returns the subject's most recent spotlight, or nil.
func (s *Store) LatestSpotlight(_ context.Context, subjectID string) (*contracts.Spotlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *contracts.Spotlight
	for k, sp := range s.spotlights {
		if k.subjectID == subjectID && (best == nil || k.period > best.Period) {
			c := sp
			best = &c
		}
	}
	return best, nil
}

// UpsertReport stores the period's market report, replacing any earlier one.
func (s *Store) UpsertReport(_ context.Context, r *contracts.MarketReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *r
	c.Factors = append([]contracts.MarketFactor(nil), r.Factors...)
	s.reports[r.Period] = c
	return nil
}

// LatestReport returns the most recent market report, or nil.
func (s *Store) LatestReport(_ context.Context) (*contracts.MarketReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *contracts.MarketReport
	for period, r := range s.reports {
		if best == nil || period > best.Period {
			c := r
			best = &c
		}
	}
	return best, nil
}

// ReplaceNews swaps the period's news batch.
func (s *Store) ReplaceNews(_ context.Context, period string, items []contracts.NewsItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make([]contracts.NewsItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Created.IsZero() {
			item.Created = s.now().UTC()
		}
		item.Period = period
		batch[i] = item
	}
	s.news[period] = batch
	return nil
}

// ListNews returns the period's news in generation order.
func (s *Store) ListNews(_ context.Context, period string) ([]contracts.NewsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]contracts.NewsItem{}, s.news[period]...), nil
}

// NewsletterExists reports whether an edition is stored for period.
func (s *Store) NewsletterExists(_ context.Context, period string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.newsletters[period]
	return ok, nil
}

// UpsertNewsletter stores an edition, replacing any earlier one for the period.
func (s *Store) UpsertNewsletter(_ context.Context, n *contracts.Newsletter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *n
	if existing, ok := s.newsletters[n.Period]; ok {
		c.CreatedAt = existing.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.newsletters[n.Period] = c
	return nil
}

// GetNewsletter returns the edition for period, or contracts.ErrNotFound.
func (s *Store) GetNewsletter(_ context.Context, period string) (*contracts.Newsletter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.newsletters[period]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &n, nil
}

// ListNewsletters returns the archive, most recent first.
func (s *Store) ListNewsletters(_ context.Context) ([]contracts.NewsletterSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.NewsletterSummary, 0, len(s.newsletters))
	for _, n := range s.newsletters {
		out = append(out, contracts.NewsletterSummary{Period: n.Period, Headline: n.Headline})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}

// AddSubscriber stores an email. Returns ErrConflict if already subscribed.
func (s *Store) AddSubscriber(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := strings.ToLower(email)
	if _, exists := s.subscribers[k]; exists {
		return fmt.Errorf("subscribe %s: %w", email, contracts.ErrConflict)
	}
	s.subscribers[k] = struct{}{}
	return nil
}

// AddCityRequest records one request for a city and returns the updated count.
func (s *Store) AddCityRequest(_ context.Context, city, state string) (int, error) {
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city == "" || state == "" {
		return 0, fmt.Errorf("%w: city and state are required", contracts.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := strings.ToLower(city) + "|" + strings.ToLower(state)
	req, ok := s.requests[k]
	if !ok {
		req = &contracts.CityRequest{City: city, State: state}
		s.requests[k] = req
	}
	req.RequestCount++
	return req.RequestCount, nil
}

func copySnapshot(s contracts.Snapshot) contracts.Snapshot {
	c := s
	if s.ChangePct != nil {
		v := *s.ChangePct
		c.ChangePct = &v
	}
	c.RawSamples = append([]contracts.PriceSample(nil), s.RawSamples...)
	return c
}
