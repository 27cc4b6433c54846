package routing

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/domain"
)

const (
	DexRaydium = "Raydium"
	DexMeteora = "Meteora"

	// txPrefix marks every settlement reference produced by ExecuteSwap.
	txPrefix = "Ax"

	basePrice = 100
)

// Service simulates venue quoting and swap execution. Quotes jitter around a
// fixed base price per venue, and execution produces a reference hash after a
// settlement delay.
type Service struct {
	log *zap.Logger

	quoteDelay time.Duration
	execDelay  time.Duration
}

func NewService(log *zap.Logger) *Service {
	return &Service{
		log:        log,
		quoteDelay: 200 * time.Millisecond,
		execDelay:  2 * time.Second,
	}
}

// NewServiceWithDelays overrides the simulated venue latencies. Useful for
// demos and tests that should not wait out the realistic defaults.
func NewServiceWithDelays(log *zap.Logger, quoteDelay, execDelay time.Duration) *Service {
	return &Service{log: log, quoteDelay: quoteDelay, execDelay: execDelay}
}

// Raydium quotes between 0.97x and 1.01x of base.
func (s *Service) raydiumQuote() domain.Quote {
	time.Sleep(s.quoteDelay)
	price := basePrice * (0.97 + rand.Float64()*0.04)
	return domain.Quote{Dex: DexRaydium, Price: decimal.NewFromFloat(price)}
}

// Meteora quotes between 0.96x and 1.02x of base.
func (s *Service) meteoraQuote() domain.Quote {
	time.Sleep(s.quoteDelay)
	price := basePrice * (0.96 + rand.Float64()*0.06)
	return domain.Quote{Dex: DexMeteora, Price: decimal.NewFromFloat(price)}
}

// BestQuote queries both venues concurrently and returns the one with the
// higher price. The comparison is side-blind: the caller's buy/sell side does
// not influence which quote wins.
func (s *Service) BestQuote(ctx context.Context, inputToken, outputToken string, amount decimal.Decimal) (domain.Quote, error) {
	raydiumCh := make(chan domain.Quote, 1)
	meteoraCh := make(chan domain.Quote, 1)

	go func() { raydiumCh <- s.raydiumQuote() }()
	go func() { meteoraCh <- s.meteoraQuote() }()

	raydium := <-raydiumCh
	meteora := <-meteoraCh

	best := meteora
	if raydium.Price.GreaterThan(meteora.Price) {
		best = raydium
	}
	s.log.Debug("quotes collected",
		zap.String("pair", inputToken+"/"+outputToken),
		zap.String("raydium", raydium.Price.String()),
		zap.String("meteora", meteora.Price.String()),
		zap.String("best", best.Dex))
	return best, nil
}

// ExecuteSwap settles the order on the chosen venue and returns the
// settlement reference together with the executed notional.
func (s *Service) ExecuteSwap(ctx context.Context, dex string, o *domain.Order) (domain.Swap, error) {
	time.Sleep(s.execDelay)
	return domain.Swap{
		TxHash: txPrefix + randomRef(26),
		Price:  o.Amount.Mul(decimal.NewFromInt(basePrice)),
	}, nil
}

const refAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomRef(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = refAlphabet[rand.Intn(len(refAlphabet))]
	}
	return string(b)
}
