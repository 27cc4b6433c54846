package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/domain"
	"github.com/olyamironova/order-execution-engine/internal/notify"
)

type fakeRouter struct {
	quote    domain.Quote
	quoteErr error
	swap     domain.Swap
	swapErr  error

	mu     sync.Mutex
	gotDex string
}

func (f *fakeRouter) BestQuote(ctx context.Context, in, out string, amount decimal.Decimal) (domain.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeRouter) ExecuteSwap(ctx context.Context, dex string, o *domain.Order) (domain.Swap, error) {
	f.mu.Lock()
	f.gotDex = dex
	f.mu.Unlock()
	return f.swap, f.swapErr
}

type captureConn struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (c *captureConn) Send(ev domain.StatusEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captureConn) Open() bool { return true }

func (c *captureConn) statuses() []domain.OrderStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.OrderStatus, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Status
	}
	return out
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:          "order-1",
		Type:        domain.Market,
		Side:        domain.Buy,
		InputToken:  "SOL",
		OutputToken: "USDC",
		Amount:      decimal.NewFromInt(5),
		CreatedAt:   time.Now(),
	}
}

func setup(router *fakeRouter) (*Pool, *captureConn) {
	registry := notify.NewRegistry(zap.NewNop())
	conn := &captureConn{}
	registry.Attach("order-1", conn)
	return NewPool(router, registry, 2, zap.NewNop()), conn
}

func TestPipelineHappyPath(t *testing.T) {
	price := decimal.NewFromInt(99)
	router := &fakeRouter{
		quote: domain.Quote{Dex: "Raydium", Price: price},
		swap:  domain.Swap{TxHash: "Axabc123", Price: decimal.NewFromInt(500)},
	}
	pool, conn := setup(router)

	require.NoError(t, pool.Do(testOrder()))

	assert.Equal(t, []domain.OrderStatus{
		domain.StatusProcessing,
		domain.StatusRouting,
		domain.StatusRouting,
		domain.StatusBuilding,
		domain.StatusConfirmed,
	}, conn.statuses())

	events := conn.events
	// Second routing event announces the selected venue with its price.
	assert.Equal(t, "Raydium", events[2].Dex)
	require.NotNil(t, events[2].Price)
	assert.True(t, events[2].Price.Equal(price))

	final := events[4]
	assert.Equal(t, "Axabc123", final.TxHash)
	assert.Equal(t, "Raydium", final.Dex)
	require.NotNil(t, final.Price)
	assert.True(t, final.Price.Equal(price))

	assert.Equal(t, "Raydium", router.gotDex)
}

func TestQuoteFailureEndsInFailed(t *testing.T) {
	router := &fakeRouter{quoteErr: errors.New("all venues down")}
	pool, conn := setup(router)

	err := pool.Do(testOrder())
	require.Error(t, err)

	assert.Equal(t, []domain.OrderStatus{
		domain.StatusProcessing,
		domain.StatusRouting,
		domain.StatusFailed,
	}, conn.statuses())
	assert.Equal(t, "all venues down", conn.events[2].Error)
}

func TestSwapFailureEndsInFailed(t *testing.T) {
	router := &fakeRouter{
		quote:   domain.Quote{Dex: "Meteora", Price: decimal.NewFromInt(100)},
		swapErr: errors.New("settlement reverted"),
	}
	pool, conn := setup(router)

	err := pool.Do(testOrder())
	require.Error(t, err)

	assert.Equal(t, []domain.OrderStatus{
		domain.StatusProcessing,
		domain.StatusRouting,
		domain.StatusRouting,
		domain.StatusBuilding,
		domain.StatusFailed,
	}, conn.statuses())
	assert.Equal(t, "settlement reverted", conn.events[4].Error)
}

// blockingRouter holds every pipeline inside BestQuote until released, so the
// test can observe how many pipelines run at once.
type blockingRouter struct {
	started chan string
	release chan struct{}
}

func (b *blockingRouter) BestQuote(ctx context.Context, in, out string, amount decimal.Decimal) (domain.Quote, error) {
	b.started <- in
	<-b.release
	return domain.Quote{Dex: "Raydium", Price: decimal.NewFromInt(100)}, nil
}

func (b *blockingRouter) ExecuteSwap(ctx context.Context, dex string, o *domain.Order) (domain.Swap, error) {
	return domain.Swap{TxHash: "Ax1", Price: o.Amount}, nil
}

func TestPoolBoundsConcurrency(t *testing.T) {
	router := &blockingRouter{
		started: make(chan string, 3),
		release: make(chan struct{}),
	}
	registry := notify.NewRegistry(zap.NewNop())
	pool := NewPool(router, registry, 2, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		o := testOrder()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(o)
		}()
	}

	// Two pipelines reach the router; the third waits for a pool slot.
	<-router.started
	<-router.started
	select {
	case <-router.started:
		t.Fatal("third pipeline ran before a slot freed up")
	case <-time.After(50 * time.Millisecond):
	}

	close(router.release)
	wg.Wait()
}
