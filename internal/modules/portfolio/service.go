package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/folioworks/folio/internal/auth"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/events"
	"github.com/rs/zerolog"
)

// ErrInvalid marks requests rejected by validation
var ErrInvalid = errors.New("invalid input")

// moduleName tags events emitted by this package
const moduleName = "portfolio"

// RefreshResult summarizes a price refresh
type RefreshResult struct {
	Updated    int                `json:"updated"`
	Failed     []string           `json:"failed"`
	Prices     map[string]float64 `json:"prices"`
	Portfolios []string           `json:"portfolios"`
}

// PortfolioService orchestrates portfolio storage, price refresh and value
// recording. It implements domain.SnapshotSource for the analytics modules.
//
// When the context carries an authenticated user, only that user's
// portfolios are visible; everything else reports domain.ErrNotFound.
// Contexts without a user (scheduler jobs, the CLI) see every portfolio.
type PortfolioService struct {
	repo   *Repository
	prices domain.PriceProvider
	alerts domain.ConcentrationAlertProvider
	events events.Emitter
	now    func() time.Time
	log    zerolog.Logger
}

// NewPortfolioService creates a new portfolio service.
// prices, alerts and emitter may be nil.
func NewPortfolioService(
	repo *Repository,
	prices domain.PriceProvider,
	alerts domain.ConcentrationAlertProvider,
	emitter events.Emitter,
	log zerolog.Logger,
) *PortfolioService {
	return &PortfolioService{
		repo:   repo,
		prices: prices,
		alerts: alerts,
		events: emitter,
		now:    time.Now,
		log:    log.With().Str("service", "portfolio").Logger(),
	}
}

// CreatePortfolio creates an empty portfolio owned by the caller
func (s *PortfolioService) CreatePortfolio(ctx context.Context, name string, target map[domain.AssetType]float64) (*Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", ErrInvalid)
	}
	if err := ValidateTargetAllocation(target); err != nil {
		return nil, err
	}

	userID, _ := auth.UserFromContext(ctx)
	p, err := s.repo.CreatePortfolio(ctx, userID, name, target)
	if err != nil {
		return nil, err
	}

	s.emit(&events.PortfolioChangedData{PortfolioID: p.ID, Change: "created", UserID: userID})
	return p, nil
}

// GetPortfolio returns a portfolio visible to the caller
func (s *PortfolioService) GetPortfolio(ctx context.Context, id string) (*Portfolio, error) {
	p, err := s.repo.GetPortfolio(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID, ok := auth.UserFromContext(ctx); ok && p.UserID != userID {
		return nil, fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// ListPortfolios returns the caller's portfolios
func (s *PortfolioService) ListPortfolios(ctx context.Context) ([]Portfolio, error) {
	userID, _ := auth.UserFromContext(ctx)
	return s.repo.ListPortfolios(ctx, userID)
}

// DeletePortfolio removes a portfolio with its holdings and history
func (s *PortfolioService) DeletePortfolio(ctx context.Context, id string) error {
	p, err := s.GetPortfolio(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePortfolio(ctx, id); err != nil {
		return err
	}
	s.emit(&events.PortfolioChangedData{PortfolioID: id, Change: "deleted", UserID: p.UserID})
	return nil
}

// SetTargetAllocation replaces the stored target; an empty map clears it
func (s *PortfolioService) SetTargetAllocation(ctx context.Context, id string, target map[domain.AssetType]float64) error {
	if err := ValidateTargetAllocation(target); err != nil {
		return err
	}
	p, err := s.GetPortfolio(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetTargetAllocation(ctx, id, target); err != nil {
		return err
	}
	s.emit(&events.PortfolioChangedData{PortfolioID: id, Change: "target_changed", UserID: p.UserID})
	return nil
}

// AddHolding validates and appends a holding, then re-checks concentration
func (s *PortfolioService) AddHolding(ctx context.Context, portfolioID string, h domain.Holding) (domain.Holding, error) {
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
	if h.CurrentPrice.IsZero() {
		h.CurrentPrice = h.PurchasePrice
	}
	if err := h.Validate(); err != nil {
		return domain.Holding{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return domain.Holding{}, err
	}

	added, err := s.repo.AddHolding(ctx, portfolioID, h)
	if err != nil {
		return domain.Holding{}, err
	}

	s.log.Info().
		Str("portfolio_id", portfolioID).
		Str("symbol", added.Symbol).
		Str("asset_type", string(added.AssetType)).
		Msg("Holding added")

	s.emit(&events.PortfolioChangedData{PortfolioID: portfolioID, Change: "holding_added", HoldingID: added.ID, UserID: p.UserID})
	s.checkConcentration(ctx, portfolioID)
	return added, nil
}

// RemoveHolding deletes a holding and re-checks concentration
func (s *PortfolioService) RemoveHolding(ctx context.Context, portfolioID, holdingID string) error {
	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveHolding(ctx, portfolioID, holdingID); err != nil {
		return err
	}

	s.emit(&events.PortfolioChangedData{PortfolioID: portfolioID, Change: "holding_removed", HoldingID: holdingID, UserID: p.UserID})
	s.checkConcentration(ctx, portfolioID)
	return nil
}

// Snapshot implements domain.SnapshotSource
func (s *PortfolioService) Snapshot(ctx context.Context, portfolioID string) (domain.Snapshot, error) {
	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return p.Snapshot(), nil
}

// ValueHistory implements domain.SnapshotSource
func (s *PortfolioService) ValueHistory(ctx context.Context, portfolioID string, limit int) ([]float64, error) {
	points, err := s.GetValueHistory(ctx, portfolioID, limit)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.TotalValue
	}
	return values, nil
}

// GetValueHistory returns recorded values with their timestamps, oldest first
func (s *PortfolioService) GetValueHistory(ctx context.Context, portfolioID string, limit int) ([]ValuePoint, error) {
	if _, err := s.GetPortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	return s.repo.GetValueHistory(ctx, portfolioID, limit)
}

// RefreshPrices updates the current price of every quoted symbol
func (s *PortfolioService) RefreshPrices(ctx context.Context) (RefreshResult, error) {
	symbols, err := s.repo.ListQuotedSymbols(ctx)
	if err != nil {
		return RefreshResult{}, err
	}
	return s.refreshSymbols(ctx, symbols)
}

// RefreshPortfolio updates the prices of one portfolio's holdings and
// returns the refreshed portfolio
func (s *PortfolioService) RefreshPortfolio(ctx context.Context, portfolioID string) (*Portfolio, RefreshResult, error) {
	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, RefreshResult{}, err
	}

	seen := make(map[string]bool)
	symbols := []string{}
	for _, h := range p.Holdings {
		if h.AssetType == domain.AssetTypeCash || seen[h.Symbol] {
			continue
		}
		seen[h.Symbol] = true
		symbols = append(symbols, h.Symbol)
	}

	result, err := s.refreshSymbols(ctx, symbols)
	if err != nil {
		return nil, RefreshResult{}, err
	}

	p, err = s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, RefreshResult{}, err
	}
	return p, result, nil
}

// refreshSymbols fetches quotes and stores them. Symbols the provider does
// not quote keep their previous price and are reported as failed.
func (s *PortfolioService) refreshSymbols(ctx context.Context, symbols []string) (RefreshResult, error) {
	result := RefreshResult{
		Failed:     []string{},
		Prices:     map[string]float64{},
		Portfolios: []string{},
	}
	if len(symbols) == 0 {
		return result, nil
	}
	if s.prices == nil {
		return result, fmt.Errorf("no price provider configured")
	}

	quotes, err := s.prices.GetPrices(ctx, symbols)
	if err != nil {
		s.emit(&events.ErrorEventData{
			Error:   err.Error(),
			Context: map[string]interface{}{"operation": "refresh_prices", "symbols": len(symbols)},
		})
		return result, fmt.Errorf("failed to fetch prices: %w", err)
	}

	affected := make(map[string]bool)
	for _, symbol := range symbols {
		price, ok := quotes[symbol]
		if !ok || !price.IsPositive() {
			result.Failed = append(result.Failed, symbol)
			continue
		}

		ids, err := s.repo.UpdatePrice(ctx, symbol, price)
		if err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to store price")
			result.Failed = append(result.Failed, symbol)
			continue
		}
		result.Updated++
		result.Prices[symbol] = price.InexactFloat64()
		for _, id := range ids {
			affected[id] = true
		}
	}

	for id := range affected {
		result.Portfolios = append(result.Portfolios, id)
	}
	sort.Strings(result.Portfolios)

	s.log.Info().
		Int("requested", len(symbols)).
		Int("updated", result.Updated).
		Int("failed", len(result.Failed)).
		Msg("Prices refreshed")

	s.emit(&events.PriceUpdatedData{Prices: result.Prices, Updated: result.Updated, Failed: result.Failed})

	for _, id := range result.Portfolios {
		s.checkConcentration(ctx, id)
	}
	return result, nil
}

// RecordValues stores the current total value of every portfolio and
// returns how many were recorded
func (s *PortfolioService) RecordValues(ctx context.Context) (int, error) {
	ids, err := s.repo.ListPortfolioIDs(ctx)
	if err != nil {
		return 0, err
	}

	at := s.now().UTC().Truncate(time.Second)
	recorded := 0
	for _, id := range ids {
		p, err := s.repo.GetPortfolio(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", id).Msg("Skipping value snapshot")
			continue
		}
		if err := s.repo.RecordValue(ctx, id, at, p.Snapshot().TotalValue()); err != nil {
			return recorded, err
		}
		recorded++
	}

	s.log.Info().Int("portfolios", recorded).Msg("Portfolio values recorded")
	s.emit(&events.ValuesRecordedData{Portfolios: recorded})
	return recorded, nil
}

func (s *PortfolioService) checkConcentration(ctx context.Context, portfolioID string) {
	if s.alerts == nil {
		return
	}
	p, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("Concentration check skipped")
		return
	}

	alerts := s.alerts.CheckConcentration(p.Snapshot())
	if len(alerts) == 0 {
		return
	}
	s.emit(&events.RiskAlertData{PortfolioID: portfolioID, Alerts: alerts, UserID: p.UserID})
}

func (s *PortfolioService) emit(data events.EventData) {
	if s.events != nil {
		s.events.Emit(moduleName, data)
	}
}

// ValidateTargetAllocation checks asset types and that every percentage is
// within 0..100. The sum is not enforced.
func ValidateTargetAllocation(target map[domain.AssetType]float64) error {
	for t, pct := range target {
		if parsed, err := domain.ParseAssetType(string(t)); err != nil || parsed != t {
			return fmt.Errorf("%w: unknown asset type %q", ErrInvalid, t)
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: target for %s must be between 0 and 100", ErrInvalid, t)
		}
	}
	return nil
}
