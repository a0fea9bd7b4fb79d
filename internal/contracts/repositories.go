package contracts

import "context"

// ⭐ SSOT: storage interfaces are defined here only

// SubjectRepository reads tracked subjects.
type SubjectRepository interface {
	ListSubjects(ctx context.Context) ([]Subject, error)
	GetSubject(ctx context.Context, id string) (*Subject, error)
	GetSubjectBySlug(ctx context.Context, slug string) (*Subject, error)
}

// SnapshotRepository is the append-only log of BPI snapshots.
type SnapshotRepository interface {
	// Exists reports whether a snapshot for (subjectID, period) is stored.
	Exists(ctx context.Context, subjectID, period string) (bool, error)

	// GetPrevious returns the most recent snapshot strictly before period,
	// or nil when there is none.
	GetPrevious(ctx context.Context, subjectID, before string) (*Snapshot, error)

	// Insert stores a new snapshot. Returns ErrConflict if (subject_id, period)
	// is already taken.
	Insert(ctx context.Context, s *Snapshot) error

	ListByPeriod(ctx context.Context, period string) ([]Snapshot, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Snapshot, error)
	ListAll(ctx context.Context) ([]Snapshot, error)

	// ListPeriods returns distinct periods with data, most recent first.
	// limit <= 0 means no limit.
	ListPeriods(ctx context.Context, limit int) ([]string, error)
}

// ArtifactRepository stores the secondary artifacts derived from snapshots.
type ArtifactRepository interface {
	// InsertSpotlight returns ErrConflict if (subject_id, period) is taken.
	InsertSpotlight(ctx context.Context, s *Spotlight) error
	LatestSpotlight(ctx context.Context, subjectID string) (*Spotlight, error)

	UpsertReport(ctx context.Context, r *MarketReport) error
	LatestReport(ctx context.Context) (*MarketReport, error)

	// ReplaceNews swaps the whole news batch for a period atomically.
	ReplaceNews(ctx context.Context, period string, items []NewsItem) error
	ListNews(ctx context.Context, period string) ([]NewsItem, error)

	NewsletterExists(ctx context.Context, period string) (bool, error)
	UpsertNewsletter(ctx context.Context, n *Newsletter) error
	GetNewsletter(ctx context.Context, period string) (*Newsletter, error)
	ListNewsletters(ctx context.Context) ([]NewsletterSummary, error)
}

// CityRequestRepository counts requests for cities that are not tracked yet.
type CityRequestRepository interface {
	// AddCityRequest records one request and returns the updated count.
	AddCityRequest(ctx context.Context, city, state string) (int, error)
}

// SubscriberRepository stores newsletter subscribers.
type SubscriberRepository interface {
	// AddSubscriber returns ErrConflict if the email is already subscribed.
	AddSubscriber(ctx context.Context, email string) error
}
