package quotes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/cleanquote/internal/db"
	"github.com/Simplici0/cleanquote/internal/pricing"
)

// ErrNotFound is returned when no quote has the requested ID.
var ErrNotFound = errors.New("quote not found")

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Record is a saved quote.
type Record struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"createdAt"`
	AddonKeys []string  `json:"addonKeys"`
	pricing.Result
}

// Filter narrows List. Query matches customer name, email, suburb or postcode.
type Filter struct {
	Query string
	Limit int
}

// Store persists quotes in the quotes table.
type Store struct {
	db  *db.DB
	now func() time.Time
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Save stores res under a new reference and returns the saved record.
func (s *Store) Save(ctx context.Context, res pricing.Result) (Record, error) {
	rec := Record{
		Reference: uuid.NewString(),
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
		AddonKeys: addonKeys(res.Addons),
		Result:    res,
	}
	if rec.Addons == nil {
		rec.Addons = []pricing.AddonLine{}
	}
	if rec.CustomAddons == nil {
		rec.CustomAddons = []pricing.CustomAddon{}
	}

	keysJSON, err := json.Marshal(rec.AddonKeys)
	if err != nil {
		return Record{}, fmt.Errorf("encode addon keys: %w", err)
	}
	addonsJSON, err := json.Marshal(rec.Addons)
	if err != nil {
		return Record{}, fmt.Errorf("encode addon lines: %w", err)
	}
	customJSON, err := json.Marshal(rec.CustomAddons)
	if err != nil {
		return Record{}, fmt.Errorf("encode custom addons: %w", err)
	}

	err = s.db.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO quotes (
			reference, created_at, service, bedrooms, bathrooms,
			addon_keys_json, addons_json, custom_addons_json,
			hourly_rate, cleaner_rate,
			main_service_hours, main_service_cost, pre_multiplier_subtotal, suburb_multiplier, subtotal,
			discount_applied, discount_type, discount_percentage, discount_amount,
			net_revenue, gst, total,
			total_hours, cleaner_pay, profit, margin,
			deposit_percentage, deposit_amount,
			customer_name, customer_phone, customer_email, customer_suburb, customer_postcode
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?,
			?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?, ?,
			?, ?, ?, ?, ?
		)
		RETURNING id
	`),
		rec.Reference, s.db.Timestamp(rec.CreatedAt), string(rec.Service), rec.Bedrooms, rec.Bathrooms,
		string(keysJSON), string(addonsJSON), string(customJSON),
		dec(rec.HourlyRate), dec(rec.CleanerRate),
		dec(rec.MainServiceHours), dec(rec.MainServiceCost), dec(rec.PreMultiplierSubtotal), dec(rec.SuburbMultiplier), dec(rec.Subtotal),
		rec.DiscountApplied, string(rec.DiscountKind), dec(rec.DiscountPercentage), dec(rec.DiscountAmount),
		dec(rec.NetRevenue), dec(rec.GST), dec(rec.Total),
		dec(rec.TotalHours), dec(rec.CleanerPay), dec(rec.Profit), dec(rec.Margin),
		dec(rec.DepositPercentage), dec(rec.DepositAmount),
		rec.Customer.Name, rec.Customer.Phone, rec.Customer.Email, rec.Customer.Suburb, rec.Customer.Postcode,
	).Scan(&rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("insert quote: %w", err)
	}

	return rec, nil
}

const selectColumns = `
	SELECT
		id, reference, created_at, service, bedrooms, bathrooms,
		addon_keys_json, addons_json, custom_addons_json,
		hourly_rate, cleaner_rate,
		main_service_hours, main_service_cost, pre_multiplier_subtotal, suburb_multiplier, subtotal,
		discount_applied, discount_type, discount_percentage, discount_amount,
		net_revenue, gst, total,
		total_hours, cleaner_pay, profit, margin,
		deposit_percentage, deposit_amount,
		customer_name, customer_phone, customer_email, customer_suburb, customer_postcode
	FROM quotes
`

// Get loads the quote with id.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(selectColumns+` WHERE id = ?`), id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("query quote %d: %w", id, err)
	}
	return rec, nil
}

// List returns saved quotes, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	query := strings.TrimSpace(f.Query)
	search := "%" + strings.ToLower(query) + "%"

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(selectColumns+`
		WHERE (? = ''
			OR LOWER(customer_name) LIKE ?
			OR LOWER(customer_email) LIKE ?
			OR LOWER(customer_suburb) LIKE ?
			OR customer_postcode LIKE ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), query, search, search, search, search, limit)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                                 Record
		createdAt                           db.Time
		service, discountKind               string
		keysJSON, addonsJSON, customJSON    string
		hourly, cleaner                     decimal.Decimal
		mainHours, mainCost, pre, mult, sub decimal.Decimal
		discountPct, discountAmt            decimal.Decimal
		net, gst, total                     decimal.Decimal
		hours, pay, profit, margin          decimal.Decimal
		depositPct, depositAmt              decimal.Decimal
	)
	err := row.Scan(
		&rec.ID, &rec.Reference, &createdAt, &service, &rec.Bedrooms, &rec.Bathrooms,
		&keysJSON, &addonsJSON, &customJSON,
		&hourly, &cleaner,
		&mainHours, &mainCost, &pre, &mult, &sub,
		&rec.DiscountApplied, &discountKind, &discountPct, &discountAmt,
		&net, &gst, &total,
		&hours, &pay, &profit, &margin,
		&depositPct, &depositAmt,
		&rec.Customer.Name, &rec.Customer.Phone, &rec.Customer.Email, &rec.Customer.Suburb, &rec.Customer.Postcode,
	)
	if err != nil {
		return Record{}, err
	}

	rec.CreatedAt = createdAt.Time
	if err := json.Unmarshal([]byte(keysJSON), &rec.AddonKeys); err != nil {
		return Record{}, fmt.Errorf("decode addon keys: %w", err)
	}
	if err := json.Unmarshal([]byte(addonsJSON), &rec.Addons); err != nil {
		return Record{}, fmt.Errorf("decode addon lines: %w", err)
	}
	if err := json.Unmarshal([]byte(customJSON), &rec.CustomAddons); err != nil {
		return Record{}, fmt.Errorf("decode custom addons: %w", err)
	}

	rec.Service = pricing.Service(service)
	rec.DiscountKind = pricing.DiscountKind(discountKind)
	rec.HourlyRate = toFloat(hourly)
	rec.CleanerRate = toFloat(cleaner)
	rec.MainServiceHours = toFloat(mainHours)
	rec.MainServiceCost = toFloat(mainCost)
	rec.PreMultiplierSubtotal = toFloat(pre)
	rec.SuburbMultiplier = toFloat(mult)
	rec.Subtotal = toFloat(sub)
	rec.DiscountPercentage = toFloat(discountPct)
	rec.DiscountAmount = toFloat(discountAmt)
	rec.NetRevenue = toFloat(net)
	rec.GST = toFloat(gst)
	rec.Total = toFloat(total)
	rec.TotalHours = toFloat(hours)
	rec.CleanerPay = toFloat(pay)
	rec.Profit = toFloat(profit)
	rec.Margin = toFloat(margin)
	rec.DepositPercentage = toFloat(depositPct)
	rec.DepositAmount = toFloat(depositAmt)

	return rec, nil
}

func addonKeys(lines []pricing.AddonLine) []string {
	keys := make([]string, 0, len(lines))
	for _, l := range lines {
		if !l.Custom {
			keys = append(keys, l.Name)
		}
	}
	return keys
}

// dec keeps the shortest decimal that parses back to exactly f.
func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
