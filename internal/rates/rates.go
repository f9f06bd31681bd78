package rates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/cleanquote/internal/db"
	"github.com/Simplici0/cleanquote/internal/pricing"
)

// Config holds the rates applied when a quote request leaves them out.
type Config struct {
	HourlyRate             float64   `json:"hourlyRate"`
	CleanerRate            float64   `json:"cleanerRate"`
	DefaultDiscountPercent float64   `json:"defaultDiscountPercentage"`
	DefaultDepositPercent  float64   `json:"defaultDepositPercentage"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Defaults returns the rates used to seed an empty database.
func Defaults() Config {
	return Config{
		HourlyRate:             60,
		CleanerRate:            35,
		DefaultDiscountPercent: 20,
		DefaultDepositPercent:  0,
	}
}

// Validate applies the same bounds the quote engine enforces.
func (c Config) Validate() error {
	if err := pricing.ValidateRates(c.HourlyRate, c.CleanerRate, c.DefaultDepositPercent); err != nil {
		return err
	}
	if math.IsNaN(c.DefaultDiscountPercent) || c.DefaultDiscountPercent < 0 || c.DefaultDiscountPercent > 100 {
		return &pricing.ValidationError{
			Kind:    pricing.KindInvalidPercentage,
			Field:   "defaultDiscountPercentage",
			Message: fmt.Sprintf("must be between 0 and 100, got %v", c.DefaultDiscountPercent),
		}
	}
	return nil
}

// Store reads and writes the rate_config singleton row.
type Store struct {
	db  *db.DB
	now func() time.Time
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Ensure inserts the default row when none exists. It reports whether a row was inserted.
func (s *Store) Ensure(ctx context.Context) (bool, error) {
	d := Defaults()
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO rate_config (id, hourly_rate, cleaner_rate, default_discount_percent, default_deposit_percent, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`),
		decimal.NewFromFloat(d.HourlyRate),
		decimal.NewFromFloat(d.CleanerRate),
		decimal.NewFromFloat(d.DefaultDiscountPercent),
		decimal.NewFromFloat(d.DefaultDepositPercent),
		s.db.Timestamp(s.now()),
	)
	if err != nil {
		return false, fmt.Errorf("insert rate_config singleton: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert rate_config singleton: %w", err)
	}
	return affected > 0, nil
}

// Get returns the stored rates, creating the default row on first use.
func (s *Store) Get(ctx context.Context) (Config, error) {
	if _, err := s.Ensure(ctx); err != nil {
		return Config{}, err
	}

	var (
		hourly, cleaner, discount, deposit decimal.Decimal
		updatedAt                          db.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT hourly_rate, cleaner_rate, default_discount_percent, default_deposit_percent, updated_at
		FROM rate_config
		WHERE id = 1
	`).Scan(&hourly, &cleaner, &discount, &deposit, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Config{}, fmt.Errorf("rate_config singleton not found")
		}
		return Config{}, fmt.Errorf("query rate_config: %w", err)
	}

	return Config{
		HourlyRate:             hourly.InexactFloat64(),
		CleanerRate:            cleaner.InexactFloat64(),
		DefaultDiscountPercent: discount.InexactFloat64(),
		DefaultDepositPercent:  deposit.InexactFloat64(),
		UpdatedAt:              updatedAt.Time,
	}, nil
}

// Update validates cfg and stores it. The returned Config carries the new timestamp.
func (s *Store) Update(ctx context.Context, cfg Config) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if _, err := s.Ensure(ctx); err != nil {
		return Config{}, err
	}

	cfg.UpdatedAt = s.now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE rate_config
		SET
			hourly_rate = ?,
			cleaner_rate = ?,
			default_discount_percent = ?,
			default_deposit_percent = ?,
			updated_at = ?
		WHERE id = 1
	`),
		decimal.NewFromFloat(cfg.HourlyRate),
		decimal.NewFromFloat(cfg.CleanerRate),
		decimal.NewFromFloat(cfg.DefaultDiscountPercent),
		decimal.NewFromFloat(cfg.DefaultDepositPercent),
		s.db.Timestamp(cfg.UpdatedAt),
	)
	if err != nil {
		return Config{}, fmt.Errorf("update rate_config: %w", err)
	}

	return cfg, nil
}
