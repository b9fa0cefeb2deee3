package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Defaults applied by NewService when an option is left zero.
const (
	DefaultBatchSize     = 100
	DefaultMaxFileSize   = 8192 * 1024
	DefaultUploadTimeout = 10 * time.Minute
	DefaultJobRetention  = time.Hour
	DefaultTokenTTL      = 12 * time.Hour
)

// Page sizes of the listing endpoints.
const (
	PlansPerPage        = 150
	CoordinatorsPerPage = 100
	SchoolPlansPerPage  = 10
)

// Options tunes a Service. Zero values take the package defaults.
type Options struct {
	BatchSize     int
	MaxFileSize   int64
	UploadTimeout time.Duration
	JobRetention  time.Duration
	JWTSecret     []byte
	TokenTTL      time.Duration
	BcryptCost    int
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = DefaultUploadTimeout
	}
	if o.JobRetention <= 0 {
		o.JobRetention = DefaultJobRetention
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = DefaultTokenTTL
	}
}

// Service is the entry point for every action-plan, user, coordinator and
// school operation. Web handlers and the CLI both go through it.
type Service struct {
	store   Store
	clock   Clock
	limiter *UploadLimiter
	opts    Options

	// jobCtx is the parent of every background import; Shutdown cancels it.
	jobCtx     context.Context
	cancelJobs context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*importJob
}

// NewService wires a Service. A nil limiter gets the default limits.
func NewService(store Store, clock Clock, limiter *UploadLimiter, opts Options) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if limiter == nil {
		limiter = NewUploadLimiter(0, 0)
	}
	opts.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:      store,
		clock:      clock,
		limiter:    limiter,
		opts:       opts,
		jobCtx:     ctx,
		cancelJobs: cancel,
		jobs:       make(map[string]*importJob),
	}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// MaxFileSize is the upload ceiling in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.opts.MaxFileSize
}

// LimiterStatus reports the import slots in use.
func (s *Service) LimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

// WaitForImports blocks until running background imports finish or ctx
// ends, then cancels whatever is still running.
func (s *Service) WaitForImports(ctx context.Context) error {
	err := s.limiter.Drain(ctx)
	s.cancelJobs()
	return err
}
