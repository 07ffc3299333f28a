package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildcheck/internal/catalog"
	"github.com/roach88/buildcheck/internal/ir"
	"github.com/roach88/buildcheck/internal/snapshot"
	"github.com/roach88/buildcheck/internal/store"
	"github.com/roach88/buildcheck/internal/testutil"
)

// countingGenerator counts Generate calls.
type countingGenerator struct {
	*snapshot.Aggregator
	calls atomic.Int32
}

func (g *countingGenerator) Generate(ctx context.Context, address string) (ir.SnapshotResult, error) {
	g.calls.Add(1)
	return g.Aggregator.Generate(ctx, address)
}

// gatedGenerator blocks Generate until release is closed.
type gatedGenerator struct {
	*snapshot.Aggregator
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedGenerator() *gatedGenerator {
	return &gatedGenerator{
		Aggregator: snapshot.New(catalog.MustDefault()),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gatedGenerator) Generate(ctx context.Context, address string) (ir.SnapshotResult, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.Aggregator.Generate(ctx, address)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *countingGenerator, *store.Store) {
	t.Helper()
	gen := &countingGenerator{Aggregator: snapshot.New(catalog.MustDefault())}
	st := testutil.NewStore(t)
	opts = append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)
	svc, err := New(context.Background(), gen, st, opts...)
	require.NoError(t, err)
	return svc, gen, st
}

func TestPurchaseValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want RequestErrorCode
	}{
		{"missing address", Request{UserID: "u1"}, ErrCodeMissingAddress},
		{"blank address", Request{Address: "   ", UserID: "u1"}, ErrCodeMissingAddress},
		{"address checked before user", Request{}, ErrCodeMissingAddress},
		{"missing user", Request{Address: "1 Main St"}, ErrCodeMissingUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Purchase(ctx, tt.req)
			code, ok := CodeOf(err)
			require.True(t, ok, "expected RequestError, got %v", err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestPurchaseGeneratesKey(t *testing.T) {
	svc, _, _ := newTestService(t, WithKeyGenerator(NewFixedGenerator("generated-1")))

	resp, err := svc.Purchase(context.Background(), Request{Address: "1 Main St, Kent, WA", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "generated-1", resp.IdempotencyKey)
	assert.False(t, resp.Replayed)
	assert.NotEmpty(t, resp.Snapshot.ID)
}

func TestPurchaseReplay(t *testing.T) {
	svc, gen, _ := newTestService(t)
	ctx := context.Background()
	req := Request{Address: "1 Main St, Kent, WA", UserID: "u1", IdempotencyKey: "k1"}

	first, err := svc.Purchase(ctx, req)
	require.NoError(t, err)
	second, err := svc.Purchase(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Snapshot, second.Snapshot)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestPurchaseConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Purchase(ctx, Request{Address: "1 Main St", UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, Request{Address: "2 Main St", UserID: "u1", IdempotencyKey: "k1"})
	assert.True(t, IsConflict(err))

	_, err = svc.Purchase(ctx, Request{Address: "1 Main St", UserID: "u2", IdempotencyKey: "k1"})
	assert.True(t, IsConflict(err))

	// Same address spelled differently is a replay, not a conflict.
	resp, err := svc.Purchase(ctx, Request{Address: "1  MAIN st.", UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.True(t, resp.Replayed)
}

func TestPurchaseCachesByAddress(t *testing.T) {
	svc, gen, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Purchase(ctx, Request{Address: "5 Elm St", UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)
	b, err := svc.Purchase(ctx, Request{Address: "5 elm st", UserID: "u2", IdempotencyKey: "k2"})
	require.NoError(t, err)

	assert.Equal(t, a.Snapshot.ID, b.Snapshot.ID)
	assert.False(t, b.Replayed)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestPurchaseConcurrentSameKey(t *testing.T) {
	svc, gen, st := newTestService(t)
	ctx := context.Background()
	req := Request{Address: "77 Oak Ave, Renton, WA", UserID: "u1", IdempotencyKey: "same"}

	const n = 16
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Purchase(ctx, req)
			ids[i], errs[i] = resp.Snapshot.ID, err
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int32(1), gen.calls.Load())

	reqs, err := st.Requests(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestPurchaseConcurrentKeyReuse(t *testing.T) {
	gen := newGatedGenerator()
	svc, err := New(context.Background(), gen, testutil.NewStore(t), WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)

	reqs := []Request{
		{Address: "1 Main St", UserID: "alice", IdempotencyKey: "k"},
		{Address: "2 Other Rd", UserID: "bob", IdempotencyKey: "k"},
		{Address: "1 Main St", UserID: "bob", IdempotencyKey: "k"},
	}
	resps := make([]Response, len(reqs))
	errs := make([]error, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resps[i], errs[i] = svc.Purchase(context.Background(), req)
		}()
	}
	<-gen.entered
	time.Sleep(50 * time.Millisecond)
	close(gen.release)
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "only one request may own the key")
			winner = i
			continue
		}
		assert.True(t, IsConflict(err), "request %d: %v", i, err)
	}
	require.NotEqual(t, -1, winner)
	assert.Equal(t, reqs[winner].UserID, userOf(t, svc, "k"))
	assert.Equal(t, ir.CleanAddress(reqs[winner].Address), resps[winner].Snapshot.Address)
}

func TestPurchaseSurvivesCallerCancel(t *testing.T) {
	gen := newGatedGenerator()
	svc, err := New(context.Background(), gen, testutil.NewStore(t), WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	req := Request{Address: "3 Birch Ln", UserID: "u1", IdempotencyKey: "k1"}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.Purchase(ctx, req)
		first <- err
	}()
	<-gen.entered

	second := make(chan error, 1)
	go func() {
		_, err := svc.Purchase(context.Background(), req)
		second <- err
	}()
	cancel()
	close(gen.release)

	require.NoError(t, <-first)
	require.NoError(t, <-second)
}

func userOf(t *testing.T, svc *Service, key string) string {
	t.Helper()
	req, err := svc.ledger.Request(context.Background(), key)
	require.NoError(t, err)
	return req.UserID
}

func TestPreview(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Preview(ctx, "")
	code, _ := CodeOf(err)
	assert.Equal(t, ErrCodeMissingAddress, code)

	preview, err := svc.Preview(ctx, "9 Pine St, Auburn, WA")
	require.NoError(t, err)
	resp, err := svc.Purchase(ctx, Request{Address: "9 Pine St, Auburn, WA", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, resp.Snapshot.Preview(), preview)
}

func TestServiceResumesClock(t *testing.T) {
	gen := snapshot.New(catalog.MustDefault())
	st := testutil.NewStore(t)
	ctx := context.Background()

	svc, err := New(ctx, gen, st)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, Request{Address: "1 Main St", UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)
	last := svc.Clock().Current()
	require.Positive(t, last)

	restarted, err := New(ctx, gen, st)
	require.NoError(t, err)
	assert.Equal(t, last, restarted.Clock().Current())
}

func TestHistory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, addr := range []string{"1 A St", "2 B St"} {
		_, err := svc.Purchase(ctx, Request{Address: addr, UserID: "u1"})
		require.NoError(t, err)
	}

	reqs, err := svc.History(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, ir.AddressKey("2 B St"), reqs[0].AddressKey)

	_, err = svc.History(ctx, "", 10)
	code, _ := CodeOf(err)
	assert.Equal(t, ErrCodeMissingUser, code)
}

func TestRequestErrorMessage(t *testing.T) {
	err := conflict("k1", "address")
	assert.Equal(t, "IDEMPOTENCY_CONFLICT: idempotency key was already used for a different address (key=k1)", err.Error())
	assert.Equal(t, "MISSING_USER: userId is required", missingUser().Error())

	wrapped := errors.Join(errors.New("outer"), err)
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsConflict(errors.New("plain")))
}
