package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/health-portal/internal/application"
	"github.com/example/health-portal/internal/config"
	httptransport "github.com/example/health-portal/internal/http"
	"github.com/example/health-portal/internal/persistence"
	"github.com/example/health-portal/internal/persistence/memory"
	"github.com/example/health-portal/internal/persistence/seed"
	"github.com/example/health-portal/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	hashSecret := application.HasherWith(application.DefaultArgon2idParams)

	var seeded persistence.Seed
	if cfg.SeedFile != "" {
		seeded, err = seed.FromFile(cfg.SeedFile, seed.Hasher(hashSecret))
	} else {
		seeded, err = seed.Demo(seed.Hasher(hashSecret))
	}
	if err != nil {
		logger.Error("failed to materialize seed data", "error", err)
		os.Exit(1)
	}

	store := memory.NewStore(memory.Config{Seed: seeded, Latency: cfg.SimulatedLatency})

	directory := newDirectoryAdapter(store)
	snapshots := newSnapshotAdapter(sqlite.NewSnapshotStore(storage))
	providerCatalog := newProviderCatalogAdapter(store)
	slotDirectory := newSlotDirectoryAdapter(store)
	bookingRepo := newBookingRepositoryAdapter(store)
	recordStore := newRecordStoreAdapter(store)

	sessionService := application.NewSessionServiceWithLogger(directory, snapshots, hashSecret, application.VerifySecret, logger)
	schedulingService := application.NewSchedulingServiceWithLogger(providerCatalog, slotDirectory, bookingRepo, uuid.NewString, time.Now, logger)
	recordsService := application.NewRecordsServiceWithLogger(recordStore, hashSecret, application.VerifySecret, application.RecordsServiceConfig{
		UnlockTTL: cfg.UnlockTTL,
	}, logger)

	if err := sessionService.Restore(ctx); err != nil {
		logger.Error("failed to restore identity snapshot", "error", err)
		os.Exit(1)
	}

	authHandler := httptransport.NewAuthHandler(sessionService, logger)
	schedulingHandler := httptransport.NewSchedulingHandler(schedulingService, logger)
	recordsHandler := httptransport.NewRecordsHandler(recordsService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       authHandler,
		Scheduling: schedulingHandler,
		Records:    recordsHandler,
		Protect:    httptransport.RequireSession(sessionService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("portal API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// toApplicationError maps persistence sentinels onto the application's so
// services can branch on their own error vocabulary.
func toApplicationError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrAlreadyExists):
		return application.ErrAlreadyExists
	case errors.Is(err, persistence.ErrCorrupt):
		return fmt.Errorf("%w: %v", application.ErrCorruptSnapshot, err)
	default:
		return err
	}
}

type directoryAdapter struct {
	repo persistence.DirectoryRepository
}

func newDirectoryAdapter(repo persistence.DirectoryRepository) *directoryAdapter {
	return &directoryAdapter{repo: repo}
}

func (a *directoryAdapter) CreateEntry(ctx context.Context, entry application.DirectoryEntry) (application.DirectoryEntry, error) {
	stored, err := a.repo.CreateEntry(ctx, toPersistenceEntry(entry))
	if err != nil {
		return application.DirectoryEntry{}, toApplicationError(err)
	}
	return toApplicationEntry(stored), nil
}

func (a *directoryAdapter) GetEntryByEmail(ctx context.Context, email string) (application.DirectoryEntry, error) {
	stored, err := a.repo.GetEntryByEmail(ctx, email)
	if err != nil {
		return application.DirectoryEntry{}, toApplicationError(err)
	}
	return toApplicationEntry(stored), nil
}

type snapshotAdapter struct {
	store persistence.SnapshotStore
}

func newSnapshotAdapter(store persistence.SnapshotStore) *snapshotAdapter {
	return &snapshotAdapter{store: store}
}

func (a *snapshotAdapter) SaveSnapshot(ctx context.Context, identity application.Identity) error {
	return toApplicationError(a.store.SaveSnapshot(ctx, persistence.Identity{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  string(identity.Role),
	}))
}

func (a *snapshotAdapter) LoadSnapshot(ctx context.Context) (application.Identity, error) {
	stored, err := a.store.LoadSnapshot(ctx)
	if err != nil {
		return application.Identity{}, toApplicationError(err)
	}
	return application.Identity{
		ID:    stored.ID,
		Name:  stored.Name,
		Email: stored.Email,
		Role:  application.Role(stored.Role),
	}, nil
}

func (a *snapshotAdapter) ClearSnapshot(ctx context.Context) error {
	return toApplicationError(a.store.ClearSnapshot(ctx))
}

type providerCatalogAdapter struct {
	repo persistence.ProviderRepository
}

func newProviderCatalogAdapter(repo persistence.ProviderRepository) *providerCatalogAdapter {
	return &providerCatalogAdapter{repo: repo}
}

func (a *providerCatalogAdapter) ListProviders(ctx context.Context) ([]application.Provider, error) {
	models, err := a.repo.ListProviders(ctx)
	if err != nil {
		return nil, toApplicationError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	providers := make([]application.Provider, 0, len(models))
	for _, model := range models {
		providers = append(providers, toApplicationProvider(model))
	}
	return providers, nil
}

func (a *providerCatalogAdapter) GetProvider(ctx context.Context, id string) (application.Provider, error) {
	stored, err := a.repo.GetProvider(ctx, id)
	if err != nil {
		return application.Provider{}, toApplicationError(err)
	}
	return toApplicationProvider(stored), nil
}

type slotDirectoryAdapter struct {
	repo persistence.SlotRepository
}

func newSlotDirectoryAdapter(repo persistence.SlotRepository) *slotDirectoryAdapter {
	return &slotDirectoryAdapter{repo: repo}
}

func (a *slotDirectoryAdapter) ListSlots(ctx context.Context, providerID, date string) ([]application.TimeSlot, error) {
	models, err := a.repo.ListSlots(ctx, providerID, date)
	if err != nil {
		return nil, toApplicationError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	slots := make([]application.TimeSlot, 0, len(models))
	for _, model := range models {
		slots = append(slots, application.TimeSlot{ID: model.ID, Time: model.Time, Available: model.Available})
	}
	return slots, nil
}

type bookingRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func newBookingRepositoryAdapter(repo persistence.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	stored, err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking))
	if err != nil {
		return application.Booking{}, toApplicationError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, toApplicationError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) UpdateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	stored, err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking))
	if err != nil {
		return application.Booking{}, toApplicationError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) ListBookings(ctx context.Context, query application.BookingQuery) ([]application.Booking, error) {
	filter := persistence.BookingFilter{}
	switch query.Role {
	case application.RoleDoctor:
		filter.ProviderID = query.UserID
	default:
		filter.PatientID = query.UserID
	}

	models, err := a.repo.ListBookings(ctx, filter)
	if err != nil {
		return nil, toApplicationError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

type recordStoreAdapter struct {
	repo persistence.RecordRepository
}

func newRecordStoreAdapter(repo persistence.RecordRepository) *recordStoreAdapter {
	return &recordStoreAdapter{repo: repo}
}

func (a *recordStoreAdapter) CreateRecord(ctx context.Context, entry application.RecordEntry) (application.RecordEntry, error) {
	stored, err := a.repo.CreateRecord(ctx, toPersistenceRecord(entry))
	if err != nil {
		return application.RecordEntry{}, toApplicationError(err)
	}
	return toApplicationRecord(stored), nil
}

func (a *recordStoreAdapter) GetRecord(ctx context.Context, id string) (application.RecordEntry, error) {
	stored, err := a.repo.GetRecord(ctx, id)
	if err != nil {
		return application.RecordEntry{}, toApplicationError(err)
	}
	return toApplicationRecord(stored), nil
}

func (a *recordStoreAdapter) UpdateRecord(ctx context.Context, entry application.RecordEntry) (application.RecordEntry, error) {
	stored, err := a.repo.UpdateRecord(ctx, toPersistenceRecord(entry))
	if err != nil {
		return application.RecordEntry{}, toApplicationError(err)
	}
	return toApplicationRecord(stored), nil
}

func (a *recordStoreAdapter) DeleteRecord(ctx context.Context, id string) error {
	return toApplicationError(a.repo.DeleteRecord(ctx, id))
}

func (a *recordStoreAdapter) ListRecordsForPatient(ctx context.Context, patientID string) ([]application.RecordEntry, error) {
	models, err := a.repo.ListRecordsForPatient(ctx, patientID)
	if err != nil {
		return nil, toApplicationError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	entries := make([]application.RecordEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationRecord(model))
	}
	return entries, nil
}

func toApplicationEntry(model persistence.DirectoryEntry) application.DirectoryEntry {
	return application.DirectoryEntry{
		Identity: application.Identity{
			ID:    model.ID,
			Name:  model.Name,
			Email: model.Email,
			Role:  application.Role(model.Role),
		},
		SecretHash: model.SecretHash,
	}
}

func toPersistenceEntry(entry application.DirectoryEntry) persistence.DirectoryEntry {
	return persistence.DirectoryEntry{
		Identity: persistence.Identity{
			ID:    entry.Identity.ID,
			Name:  entry.Identity.Name,
			Email: entry.Identity.Email,
			Role:  string(entry.Identity.Role),
		},
		SecretHash: entry.SecretHash,
	}
}

func toApplicationProvider(model persistence.Provider) application.Provider {
	return application.Provider{
		ID:        model.ID,
		Name:      model.Name,
		Specialty: model.Specialty,
		Fee:       model.Fee,
		Available: model.Available,
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:            model.ID,
		PatientID:     model.PatientID,
		PatientName:   model.PatientName,
		ProviderID:    model.ProviderID,
		ProviderName:  model.ProviderName,
		Date:          model.Date,
		Time:          model.Time,
		Status:        application.BookingStatus(model.Status),
		PaymentStatus: application.PaymentStatus(model.PaymentStatus),
		Fee:           model.Fee,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:            booking.ID,
		PatientID:     booking.PatientID,
		PatientName:   booking.PatientName,
		ProviderID:    booking.ProviderID,
		ProviderName:  booking.ProviderName,
		Date:          booking.Date,
		Time:          booking.Time,
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		Fee:           booking.Fee,
	}
}

func toApplicationRecord(model persistence.MedicalRecord) application.RecordEntry {
	return application.RecordEntry{
		Record: application.MedicalRecord{
			ID:          model.ID,
			PatientID:   model.PatientID,
			Title:       model.Title,
			Date:        model.Date,
			Description: model.Description,
			AuthorName:  model.AuthorName,
		},
		AccessSecretHash: model.AccessSecretHash,
	}
}

func toPersistenceRecord(entry application.RecordEntry) persistence.MedicalRecord {
	return persistence.MedicalRecord{
		ID:               entry.Record.ID,
		PatientID:        entry.Record.PatientID,
		Title:            entry.Record.Title,
		Date:             entry.Record.Date,
		Description:      entry.Record.Description,
		AuthorName:       entry.Record.AuthorName,
		AccessSecretHash: entry.AccessSecretHash,
	}
}
