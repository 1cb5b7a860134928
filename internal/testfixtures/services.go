package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/health-portal/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks, and hashing.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// SessionServiceDeps captures dependencies for constructing a session service.
type SessionServiceDeps struct {
	Directory application.DirectoryStore
	Snapshots application.IdentitySnapshotStore
	Hash      application.SecretHasher
	Verify    application.SecretVerifier
	Logger    *slog.Logger
}

// NewSessionService builds a session service using the supplied dependencies
// combined with the factory defaults. Hashing defaults to the plain test pair
// rather than argon2id so unit tests stay fast.
func (f *ServiceFactory) NewSessionService(deps SessionServiceDeps) *application.SessionService {
	hash := deps.Hash
	if hash == nil {
		hash = PlainHasher
	}
	verify := deps.Verify
	if verify == nil {
		verify = PlainVerifier
	}
	return application.NewSessionServiceWithLogger(
		deps.Directory,
		deps.Snapshots,
		hash,
		verify,
		deps.Logger,
	)
}

// SchedulingServiceDeps captures dependencies for constructing a scheduling service.
type SchedulingServiceDeps struct {
	Providers application.ProviderCatalog
	Slots     application.SlotDirectory
	Bookings  application.BookingRepository
	Reference func() string
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewSchedulingService builds a scheduling service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewSchedulingService(deps SchedulingServiceDeps) *application.SchedulingService {
	reference := deps.Reference
	if reference == nil {
		reference = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewSchedulingServiceWithLogger(
		deps.Providers,
		deps.Slots,
		deps.Bookings,
		reference,
		now,
		deps.Logger,
	)
}

// RecordsServiceDeps captures dependencies for constructing a records service.
type RecordsServiceDeps struct {
	Records   application.RecordStore
	Hash      application.SecretHasher
	Verify    application.SecretVerifier
	UnlockTTL time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewRecordsService builds a records service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewRecordsService(deps RecordsServiceDeps) *application.RecordsService {
	hash := deps.Hash
	if hash == nil {
		hash = PlainHasher
	}
	verify := deps.Verify
	if verify == nil {
		verify = PlainVerifier
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewRecordsServiceWithLogger(
		deps.Records,
		hash,
		verify,
		application.RecordsServiceConfig{
			UnlockTTL: deps.UnlockTTL,
			Now:       now,
		},
		deps.Logger,
	)
}
