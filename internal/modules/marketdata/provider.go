package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/riskdesk/internal/clients/alphavantage"
	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/internal/metrics"
)

// ErrNoQuote is returned when neither upstream nor stored history has a price
var ErrNoQuote = errors.New("no price available")

// compactBars is how many bars the compact output size returns
const compactBars = 100

// Options tune the provider
type Options struct {
	QuoteTTL   time.Duration
	SeriesTTL  time.Duration
	StaleAfter time.Duration
}

// Provider serves price series and quotes cache-first, then from stored
// history, refreshing history from upstream when it is stale.
// It implements domain.MarketDataProvider.
type Provider struct {
	history  *HistoryDB
	cache    Cache
	upstream alphavantage.ClientInterface // nil = history only
	metrics  *metrics.Registry
	opts     Options
	group    singleflight.Group
	now      func() time.Time
	log      zerolog.Logger
}

// NewProvider creates a provider. cache, upstream and m may be nil.
func NewProvider(history *HistoryDB, cache Cache, upstream alphavantage.ClientInterface, m *metrics.Registry, opts Options, log zerolog.Logger) *Provider {
	if opts.QuoteTTL <= 0 {
		opts.QuoteTTL = TTLQuote
	}
	if opts.SeriesTTL <= 0 {
		opts.SeriesTTL = TTLPriceSeries
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = StaleHistoryAfter
	}
	return &Provider{
		history:  history,
		cache:    cache,
		upstream: upstream,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
		log:      log.With().Str("component", "market_data").Logger(),
	}
}

// GetPriceSeries returns up to period.Observations() daily closes, oldest first.
// A ticker with no data yields an empty series and no error.
func (p *Provider) GetPriceSeries(ctx context.Context, ticker string, period domain.Period) (domain.PriceSeries, error) {
	ticker = domain.NormalizeTicker(ticker)
	n := period.Observations()
	if n == 0 {
		return domain.PriceSeries{}, fmt.Errorf("unknown period %q", period)
	}

	key := seriesKey(ticker, period)
	var cached domain.PriceSeries
	if p.cacheGet(ctx, cacheSeries, key, &cached) {
		return cached, nil
	}

	if err := p.refreshIfStale(ctx, ticker, n); err != nil {
		// Stored history is still usable
		p.log.Warn().Err(err).Str("ticker", ticker).Msg("History refresh failed, serving stored prices")
	}

	series, err := p.history.GetSeries(ctx, ticker, n)
	if err != nil {
		return domain.PriceSeries{}, err
	}

	if series.Len() > 0 {
		p.cacheSet(ctx, key, series, p.opts.SeriesTTL)
	}
	return series, nil
}

// GetQuote returns the latest price: cached, then upstream, then the last stored close
func (p *Provider) GetQuote(ctx context.Context, ticker string) (domain.Quote, error) {
	ticker = domain.NormalizeTicker(ticker)
	key := quoteKey(ticker)

	var cached domain.Quote
	if p.cacheGet(ctx, cacheQuote, key, &cached) {
		return cached, nil
	}

	if p.upstream != nil {
		gq, err := p.upstream.GetGlobalQuote(ctx, ticker)
		if err == nil && gq.Price > 0 {
			quote := domain.Quote{
				Ticker:        ticker,
				Price:         gq.Price,
				PreviousClose: gq.PreviousClose,
				Change:        gq.Change,
				ChangePercent: gq.ChangePercent,
				Volume:        gq.Volume,
				Timestamp:     p.now().UTC(),
			}
			p.cacheSet(ctx, key, quote, p.opts.QuoteTTL)
			return quote, nil
		}
		if err != nil {
			p.log.Debug().Err(err).Str("ticker", ticker).Msg("Upstream quote failed, trying stored history")
		}
	}

	latest, ok, err := p.history.LatestClose(ctx, ticker)
	if err != nil {
		return domain.Quote{}, err
	}
	if !ok {
		return domain.Quote{}, fmt.Errorf("%s: %w", ticker, ErrNoQuote)
	}

	p.log.Debug().Str("ticker", ticker).Time("as_of", latest.Date).Msg("Using last stored close as quote")
	return domain.Quote{Ticker: ticker, Price: latest.Close, Timestamp: latest.Date}, nil
}

// SyncTicker pulls daily bars from upstream into stored history.
// full requests the complete history instead of the latest 100 bars.
func (p *Provider) SyncTicker(ctx context.Context, ticker string, full bool) (int, error) {
	if p.upstream == nil {
		return 0, fmt.Errorf("no upstream market data configured")
	}
	ticker = domain.NormalizeTicker(ticker)

	v, err, _ := p.group.Do(ticker, func() (interface{}, error) {
		outputSize := alphavantage.OutputCompact
		if full {
			outputSize = alphavantage.OutputFull
		}

		bars, fetchErr := p.upstream.GetDailyPrices(ctx, ticker, outputSize)
		if markErr := p.history.MarkSynced(ctx, ticker, p.now(), fetchErr); markErr != nil {
			p.log.Warn().Err(markErr).Str("ticker", ticker).Msg("Failed to record sync state")
		}
		if fetchErr != nil {
			return 0, fmt.Errorf("failed to fetch %s: %w", ticker, fetchErr)
		}

		prices := make([]DailyPrice, len(bars))
		for i, b := range bars {
			prices[i] = DailyPrice{Date: b.Date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
		}
		if err := p.history.SaveDailyPrices(ctx, ticker, prices); err != nil {
			return 0, err
		}

		p.invalidateSeries(ctx, ticker)
		p.log.Info().Str("ticker", ticker).Int("bars", len(prices)).Msg("Synced price history")
		return len(prices), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// refreshIfStale syncs ticker when its last sync is older than StaleAfter
func (p *Provider) refreshIfStale(ctx context.Context, ticker string, observations int) error {
	if p.upstream == nil {
		return nil
	}

	last, err := p.history.LastSynced(ctx, ticker)
	if err != nil {
		return err
	}
	if !last.IsZero() && p.now().Sub(last) < p.opts.StaleAfter {
		return nil
	}

	// First sync of a long window needs the full history
	_, err = p.SyncTicker(ctx, ticker, last.IsZero() && observations > compactBars)
	return err
}

func (p *Provider) invalidateSeries(ctx context.Context, ticker string) {
	if p.cache == nil {
		return
	}
	for _, period := range []domain.Period{
		domain.Period1M, domain.Period3M, domain.Period6M, domain.Period1Y,
		domain.PeriodYTD, domain.Period5Y, domain.PeriodMax,
	} {
		_ = p.cache.Delete(ctx, seriesKey(ticker, period))
	}
}

func (p *Provider) cacheGet(ctx context.Context, name, key string, dest interface{}) bool {
	if p.cache == nil {
		return false
	}
	hit, err := p.cache.Get(ctx, key, dest)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		hit = false
	}
	p.metrics.CacheLookup(name, hit)
	return hit
}

func (p *Provider) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, key, value, ttl); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
