package contracts

import "context"

// DataSource is everything the pipeline and the read API need from storage.
// Implementations are chosen once at construction time (Postgres-backed or
// fixture-backed), never per call.
type DataSource interface {
	SubjectRepository
	SnapshotRepository
	ArtifactRepository
	SubscriberRepository
	CityRequestRepository

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Name identifies the implementation in logs and health output.
	Name() string
}
