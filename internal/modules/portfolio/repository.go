package portfolio

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/folioworks/folio/internal/database"
	"github.com/folioworks/folio/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// holdingColumns is the column list scanned by scanHolding, in order
const holdingColumns = `id, symbol, name, asset_type, quantity, purchase_price,
current_price, purchase_date, details`

// Repository handles portfolio database operations
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// CreatePortfolio inserts an empty portfolio with a fresh id
func (r *Repository) CreatePortfolio(ctx context.Context, userID, name string, target map[domain.AssetType]float64) (*Portfolio, error) {
	targetJSON, err := encodeTarget(target)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC().Truncate(time.Second)
	p := &Portfolio{
		ID:               uuid.New().String(),
		UserID:           userID,
		Name:             name,
		TargetAllocation: target,
		Holdings:         []domain.Holding{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO portfolios (id, user_id, name, target_allocation, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.Name, targetJSON, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	r.log.Info().Str("portfolio_id", p.ID).Str("name", name).Msg("Portfolio created")
	return p, nil
}

// GetPortfolio loads a portfolio with its holdings in insertion order
func (r *Repository) GetPortfolio(ctx context.Context, id string) (*Portfolio, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_allocation, created_at, updated_at
		FROM portfolios WHERE id = ?
	`, id)

	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %s: %w", id, err)
	}

	p.Holdings, err = r.getHoldings(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPortfolios returns the portfolios of a user ordered by creation.
// An empty userID lists every portfolio.
func (r *Repository) ListPortfolios(ctx context.Context, userID string) ([]Portfolio, error) {
	query := `SELECT id, user_id, name, target_allocation, created_at, updated_at FROM portfolios`
	var args []interface{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	for i := range portfolios {
		holdings, err := r.getHoldings(ctx, portfolios[i].ID)
		if err != nil {
			return nil, err
		}
		portfolios[i].Holdings = holdings
	}
	return portfolios, nil
}

// ListPortfolioIDs returns every portfolio id
func (r *Repository) ListPortfolioIDs(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT id FROM portfolios ORDER BY created_at, id`)
}

// DeletePortfolio removes a portfolio together with its holdings and history
func (r *Repository) DeletePortfolio(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", id, err)
	}
	return requireAffected(res, "portfolio "+id)
}

// SetTargetAllocation replaces the target allocation; nil clears it
func (r *Repository) SetTargetAllocation(ctx context.Context, id string, target map[domain.AssetType]float64) error {
	targetJSON, err := encodeTarget(target)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE portfolios SET target_allocation = ?, updated_at = ? WHERE id = ?
	`, targetJSON, r.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set target allocation: %w", err)
	}
	return requireAffected(res, "portfolio "+id)
}

// AddHolding appends a holding to the portfolio and returns it with its new id
func (r *Repository) AddHolding(ctx context.Context, portfolioID string, h domain.Holding) (domain.Holding, error) {
	details, err := encodeDetails(h.Details)
	if err != nil {
		return domain.Holding{}, err
	}

	h.ID = uuid.New().String()
	now := r.now().Unix()

	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM portfolios WHERE id = ?`, portfolioID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("portfolio %s: %w", portfolioID, domain.ErrNotFound)
		}

		var position int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), -1) + 1 FROM holdings WHERE portfolio_id = ?`, portfolioID,
		).Scan(&position); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO holdings (id, portfolio_id, position, symbol, name, asset_type, quantity,
				purchase_price, current_price, purchase_date, details, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, h.ID, portfolioID, position, h.Symbol, h.Name, string(h.AssetType),
			h.Quantity.String(), h.PurchasePrice.String(), h.CurrentPrice.String(),
			nullTimeUnix(h.PurchaseDate), details, now,
		); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `UPDATE portfolios SET updated_at = ? WHERE id = ?`, now, portfolioID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Holding{}, fmt.Errorf("failed to add holding: %w", err)
		}
		return domain.Holding{}, fmt.Errorf("failed to add holding %s: %w", h.Symbol, err)
	}

	return h, nil
}

// RemoveHolding deletes a single holding from a portfolio
func (r *Repository) RemoveHolding(ctx context.Context, portfolioID, holdingID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = ? AND portfolio_id = ?`, holdingID, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to remove holding %s: %w", holdingID, err)
	}
	return requireAffected(res, "holding "+holdingID)
}

// UpdatePrice sets the current price of every holding with symbol and
// returns the affected portfolio ids
func (r *Repository) UpdatePrice(ctx context.Context, symbol string, price decimal.Decimal) ([]string, error) {
	symbol = strings.ToUpper(symbol)

	ids, err := r.queryStrings(ctx, `SELECT DISTINCT portfolio_id FROM holdings WHERE symbol = ? ORDER BY portfolio_id`, symbol)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE holdings SET current_price = ?, updated_at = ? WHERE symbol = ?
	`, price.String(), r.now().Unix(), symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to update price for %s: %w", symbol, err)
	}
	return ids, nil
}

// ListQuotedSymbols returns the distinct symbols that have a market price.
// Cash is excluded.
func (r *Repository) ListQuotedSymbols(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT DISTINCT symbol FROM holdings WHERE asset_type != ? ORDER BY symbol`, string(domain.AssetTypeCash))
}

// RecordValue stores the total value of a portfolio at a point in time.
// Recording twice for the same second overwrites.
func (r *Repository) RecordValue(ctx context.Context, portfolioID string, at time.Time, value float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolio_values (portfolio_id, recorded_at, total_value) VALUES (?, ?, ?)
		ON CONFLICT(portfolio_id, recorded_at) DO UPDATE SET total_value = excluded.total_value
	`, portfolioID, at.Unix(), value)
	if err != nil {
		return fmt.Errorf("failed to record value for %s: %w", portfolioID, err)
	}
	return nil
}

// GetValueHistory returns up to limit most recent values, oldest first.
// A non-positive limit returns the whole history.
func (r *Repository) GetValueHistory(ctx context.Context, portfolioID string, limit int) ([]ValuePoint, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT recorded_at, total_value FROM (
			SELECT recorded_at, total_value FROM portfolio_values
			WHERE portfolio_id = ? ORDER BY recorded_at DESC LIMIT ?
		) ORDER BY recorded_at ASC
	`, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query value history: %w", err)
	}
	defer rows.Close()

	points := []ValuePoint{}
	for rows.Next() {
		var at int64
		var p ValuePoint
		if err := rows.Scan(&at, &p.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan value point: %w", err)
		}
		p.RecordedAt = time.Unix(at, 0).UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating value history: %w", err)
	}
	return points, nil
}

func (r *Repository) getHoldings(ctx context.Context, portfolioID string) ([]domain.Holding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE portfolio_id = ? ORDER BY position`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []domain.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

func (r *Repository) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPortfolio(row scanner) (*Portfolio, error) {
	var (
		p                    Portfolio
		target               sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &target, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if target.Valid && target.String != "" {
		if err := json.Unmarshal([]byte(target.String), &p.TargetAllocation); err != nil {
			return nil, fmt.Errorf("invalid target allocation for %s: %w", p.ID, err)
		}
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	p.Holdings = []domain.Holding{}
	return &p, nil
}

func scanHolding(row scanner) (domain.Holding, error) {
	var (
		h                           domain.Holding
		assetType                   string
		quantity, purchase, current string
		purchaseDate                sql.NullInt64
		details                     []byte
	)
	if err := row.Scan(&h.ID, &h.Symbol, &h.Name, &assetType, &quantity, &purchase, &current, &purchaseDate, &details); err != nil {
		return domain.Holding{}, err
	}
	h.AssetType = domain.AssetType(assetType)

	var err error
	if h.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return domain.Holding{}, fmt.Errorf("holding %s quantity: %w", h.ID, err)
	}
	if h.PurchasePrice, err = decimal.NewFromString(purchase); err != nil {
		return domain.Holding{}, fmt.Errorf("holding %s purchase price: %w", h.ID, err)
	}
	if h.CurrentPrice, err = decimal.NewFromString(current); err != nil {
		return domain.Holding{}, fmt.Errorf("holding %s current price: %w", h.ID, err)
	}
	if purchaseDate.Valid {
		t := time.Unix(purchaseDate.Int64, 0).UTC()
		h.PurchaseDate = &t
	}
	if len(details) > 0 {
		h.Details = &domain.Details{}
		if err := msgpack.Unmarshal(details, h.Details); err != nil {
			return domain.Holding{}, fmt.Errorf("holding %s details: %w", h.ID, err)
		}
	}
	return h, nil
}

func encodeTarget(target map[domain.AssetType]float64) (interface{}, error) {
	if len(target) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("failed to encode target allocation: %w", err)
	}
	return string(raw), nil
}

func encodeDetails(details *domain.Details) ([]byte, error) {
	if details == nil || details.Kind() == "" {
		return nil, nil
	}
	raw, err := msgpack.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode holding details: %w", err)
	}
	return raw, nil
}

func nullTimeUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
