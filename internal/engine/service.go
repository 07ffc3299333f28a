package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/buildcheck/internal/ir"
	"github.com/roach88/buildcheck/internal/store"
)

// Generator builds reports. *snapshot.Aggregator implements it.
type Generator interface {
	Generate(ctx context.Context, address string) (ir.SnapshotResult, error)
	CatalogVersion() string
}

// Ledger persists reports and answered requests. *store.Store implements it.
type Ledger interface {
	Snapshot(ctx context.Context, id string) (ir.SnapshotResult, error)
	SnapshotByAddress(ctx context.Context, addressKey, catalogVersion string) (ir.SnapshotResult, error)
	PutSnapshot(ctx context.Context, snap ir.SnapshotResult, seq int64) error
	Request(ctx context.Context, key string) (store.Request, error)
	RecordRequest(ctx context.Context, snap ir.SnapshotResult, req store.Request) (store.Request, bool, error)
	Requests(ctx context.Context, userID string, limit int) ([]store.Request, error)
	MaxSeq(ctx context.Context) (int64, error)
}

// Request asks for the full report on an address.
type Request struct {
	Address        string `json:"address" validate:"required"`
	UserID         string `json:"userId" validate:"required"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// Response is an answered Request.
type Response struct {
	Snapshot       ir.SnapshotResult
	IdempotencyKey string
	// Replayed is true when the key had already been answered.
	Replayed bool
}

// Service answers report requests.
type Service struct {
	gen    Generator
	ledger Ledger
	clock  *Clock
	keys   KeyGenerator
	logger *slog.Logger
	group  singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithKeyGenerator sets the idempotency key generator.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(s *Service) { s.keys = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a service whose clock resumes after the highest seq in ledger.
func New(ctx context.Context, gen Generator, ledger Ledger, opts ...Option) (*Service, error) {
	seq, err := ledger.MaxSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	s := &Service{
		gen:    gen,
		ledger: ledger,
		clock:  NewClockAt(seq),
		keys:   UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Clock returns the service clock.
func (s *Service) Clock() *Clock { return s.clock }

// Purchase answers a full report request. The address is checked before
// the user. A missing idempotency key is generated.
func (s *Service) Purchase(ctx context.Context, req Request) (Response, error) {
	address := ir.CleanAddress(req.Address)
	if address == "" {
		return Response{}, missingAddress()
	}
	user := strings.TrimSpace(req.UserID)
	if user == "" {
		return Response{}, missingUser()
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = s.keys.Generate()
	}

	// Callers share a flight only when the whole request matches. A key
	// reused for another user or address runs alone and meets the ledger.
	// The flight outlives any one caller's cancellation.
	flight := "key:" + key + "|" + user + "|" + ir.AddressKey(address)
	v, err, _ := s.group.Do(flight, func() (any, error) {
		return s.purchase(context.WithoutCancel(ctx), key, user, address)
	})
	if err != nil {
		return Response{}, err
	}
	return v.(Response), nil
}

func (s *Service) purchase(ctx context.Context, key, user, address string) (Response, error) {
	addressKey := ir.AddressKey(address)

	existing, err := s.ledger.Request(ctx, key)
	switch {
	case err == nil:
		return s.replay(ctx, existing, key, user, addressKey)
	case !errors.Is(err, store.ErrNotFound):
		return Response{}, fmt.Errorf("purchase: %w", err)
	}

	snap, err := s.report(ctx, address)
	if err != nil {
		return Response{}, err
	}

	stored, created, err := s.ledger.RecordRequest(ctx, snap, store.Request{
		IdempotencyKey: key,
		UserID:         user,
		AddressKey:     addressKey,
		SnapshotID:     snap.ID,
		Seq:            s.clock.Next(),
	})
	if err != nil {
		return Response{}, fmt.Errorf("purchase: %w", err)
	}
	if !created {
		// Another writer answered the key first.
		return s.replay(ctx, stored, key, user, addressKey)
	}

	s.logger.Info("snapshot purchased",
		"snapshot_id", snap.ID,
		"user_id", user,
		"idempotency_key", key,
		"overall_status", snap.OverallStatus,
		"seq", stored.Seq,
	)
	return Response{Snapshot: snap, IdempotencyKey: key}, nil
}

func (s *Service) replay(ctx context.Context, existing store.Request, key, user, addressKey string) (Response, error) {
	switch {
	case existing.AddressKey != addressKey:
		return Response{}, conflict(key, "address")
	case existing.UserID != user:
		return Response{}, conflict(key, "user")
	}
	snap, err := s.ledger.Snapshot(ctx, existing.SnapshotID)
	if err != nil {
		return Response{}, fmt.Errorf("replay %s: %w", key, err)
	}
	s.logger.Debug("idempotent replay", "idempotency_key", key, "snapshot_id", snap.ID)
	return Response{Snapshot: snap, IdempotencyKey: key, Replayed: true}, nil
}

// Preview returns the redacted report for an address.
func (s *Service) Preview(ctx context.Context, address string) (ir.SnapshotPreview, error) {
	address = ir.CleanAddress(address)
	if address == "" {
		return ir.SnapshotPreview{}, missingAddress()
	}
	snap, err := s.report(ctx, address)
	if err != nil {
		return ir.SnapshotPreview{}, err
	}
	return snap.Preview(), nil
}

// History lists a user's answered requests, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]store.Request, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, missingUser()
	}
	return s.ledger.Requests(ctx, userID, limit)
}

// report returns the cached report for an address, generating and caching
// it on a miss.
func (s *Service) report(ctx context.Context, address string) (ir.SnapshotResult, error) {
	addressKey := ir.AddressKey(address)
	version := s.gen.CatalogVersion()

	v, err, shared := s.group.Do("address:"+addressKey+"@"+version, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		snap, err := s.ledger.SnapshotByAddress(ctx, addressKey, version)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("cache lookup: %w", err)
		}

		snap, err = s.gen.Generate(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		if err := s.ledger.PutSnapshot(ctx, snap, s.clock.Next()); err != nil {
			return nil, fmt.Errorf("cache snapshot: %w", err)
		}
		s.logger.Debug("snapshot generated", "snapshot_id", snap.ID, "address_key", addressKey)
		return snap, nil
	})
	if err != nil {
		return ir.SnapshotResult{}, err
	}
	if shared {
		s.logger.Debug("snapshot generation shared", "address_key", addressKey)
	}
	return v.(ir.SnapshotResult), nil
}
