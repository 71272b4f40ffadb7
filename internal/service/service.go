// Package service ties the scanner to its memory sources and to the
// optional scan history and report storage.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/memscope/internal/classify"
	"github.com/memscope/internal/demangle"
	"github.com/memscope/internal/repository"
	"github.com/memscope/internal/storage"
	"github.com/memscope/pkg/config"
	apperrors "github.com/memscope/pkg/errors"
	"github.com/memscope/pkg/utils"
)

// Service runs scans. It is stateless between calls apart from the
// process-wide type name cache, so every call re-reads live memory.
type Service struct {
	config   *config.Config
	layout   classify.Layout
	logger   utils.Logger
	clock    utils.Clock
	resolver *demangle.Resolver
	newRunID func() string

	runs  repository.ScanRunRepository
	store storage.Storage
	repos *repository.Repositories
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used for scan timings.
func WithClock(clock utils.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithResolver sets the type name resolver.
func WithResolver(resolver *demangle.Resolver) Option {
	return func(s *Service) { s.resolver = resolver }
}

// WithRunIDFunc sets the generator of run IDs.
func WithRunIDFunc(fn func() string) Option {
	return func(s *Service) { s.newRunID = fn }
}

// WithRunRepository sets the scan history repository.
func WithRunRepository(runs repository.ScanRunRepository) Option {
	return func(s *Service) { s.runs = runs }
}

// WithStorage sets the report storage.
func WithStorage(store storage.Storage) Option {
	return func(s *Service) { s.store = store }
}

// New creates a Service from configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	layout := LayoutFromConfig(&cfg.Platform)
	if err := layout.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "platform layout", err)
	}

	s := &Service{
		config:   cfg,
		layout:   layout,
		logger:   &utils.NullLogger{},
		clock:    utils.NewRealClock(),
		resolver: demangle.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LayoutFromConfig builds the classifier layout from the platform section.
func LayoutFromConfig(p *config.PlatformConfig) classify.Layout {
	return classify.Layout{
		Name:                 p.Name,
		WordSize:             p.WordSize,
		Stride:               p.Stride,
		RTTIBackOffset:       p.RTTIBackOffset,
		SignatureOffset:      p.SignatureOffset,
		ExpectedSignature:    p.ExpectedSignature,
		DescriptorOffset:     p.DescriptorOffset,
		NameOffset:           p.NameOffset,
		MaxNameLength:        p.MaxNameLength,
		StringSizeOffset:     p.StringSizeOffset,
		StringCapacityOffset: p.StringCapacityOffset,
		InlineCapacity:       p.InlineCapacity,
		MaxCapacity:          p.MaxCapacity,
		PreviewLength:        p.PreviewLength,
	}
}

// Layout returns the layout scans use.
func (s *Service) Layout() classify.Layout {
	return s.layout
}

// InitDatabase connects to the history database and migrates it, unless a
// repository was injected.
func (s *Service) InitDatabase(ctx context.Context) error {
	if s.runs != nil {
		return nil
	}
	if !s.config.Database.Enabled {
		return apperrors.New(apperrors.CodeConfigError, "history database is disabled (set database.enabled)")
	}

	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)
	db, err := repository.NewGormDB(&s.config.Database)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "connect", err)
	}

	repos := repository.NewRepositories(db)
	if err := repos.Migrate(ctx); err != nil {
		repos.Close()
		return apperrors.Wrap(apperrors.CodeDatabaseError, "migrate", err)
	}

	s.repos = repos
	s.runs = repos.Runs
	s.logger.Info("Database connection established")
	return nil
}

// InitStorage creates the report storage, unless one was injected.
func (s *Service) InitStorage() error {
	if s.store != nil {
		return nil
	}

	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)
	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUploadError, "storage", err)
	}
	s.store = store
	return nil
}

// Close releases the database connection opened by InitDatabase.
func (s *Service) Close() error {
	if s.repos == nil {
		return nil
	}
	if err := s.repos.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
