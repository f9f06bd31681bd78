package pricing

import (
	"strconv"
	"strings"
)

// GSTRate is applied to net revenue.
const GSTRate = 0.10

// Rate bounds accepted by the engine.
const (
	MinHourlyRate  = 1.0
	MaxHourlyRate  = 200.0
	MinCleanerRate = 1.0
	MaxCleanerRate = 100.0

	MaxSuburbMultiplier = 10.0
	MaxCustomAddonPrice = 100000.0
)

// Service is the type of clean being quoted.
type Service string

const (
	ServiceGeneral Service = "general"
	ServiceDeep    Service = "deep"
	ServiceMove    Service = "move"
)

// Valid reports whether s is a known service.
func (s Service) Valid() bool {
	_, ok := serviceTimes[s]
	return ok
}

// CustomAddon is a caller-priced extra. It adds cost but no hours.
type CustomAddon struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Customer details are carried through to the result untouched.
type Customer struct {
	Name     string `json:"customerName,omitempty"`
	Phone    string `json:"customerPhone,omitempty"`
	Email    string `json:"customerEmail,omitempty"`
	Suburb   string `json:"customerSuburb,omitempty"`
	Postcode string `json:"customerPostcode,omitempty"`
}

// Request holds every input of a quote calculation.
type Request struct {
	Service      Service
	Bedrooms     int
	Bathrooms    int
	Addons       []string
	CustomAddons []CustomAddon
	Discount     Discount
	HourlyRate   float64
	CleanerRate  float64
	// SuburbMultiplier scales the subtotal. Nil means no regional adjustment.
	SuburbMultiplier  *float64
	DepositPercentage float64
	Customer          Customer
}

// AddonLine is one row of the add-on breakdown.
type AddonLine struct {
	Name   string  `json:"name"`
	Hours  float64 `json:"hours"`
	Cost   float64 `json:"cost"`
	Custom bool    `json:"custom,omitempty"`
}

// Result is the fully derived quote.
type Result struct {
	Service      Service       `json:"service"`
	Bedrooms     int           `json:"bedrooms"`
	Bathrooms    int           `json:"bathrooms"`
	Addons       []AddonLine   `json:"addons"`
	CustomAddons []CustomAddon `json:"customAddons"`
	HourlyRate   float64       `json:"hourlyRate"`
	CleanerRate  float64       `json:"cleanerRate"`

	MainServiceHours      float64 `json:"mainServiceHours"`
	MainServiceCost       float64 `json:"mainServiceCost"`
	PreMultiplierSubtotal float64 `json:"preMultiplierSubtotal"`
	SuburbMultiplier      float64 `json:"suburbMultiplier"`
	Subtotal              float64 `json:"subtotal"`

	DiscountApplied    bool         `json:"discountApplied"`
	DiscountKind       DiscountKind `json:"discountType"`
	DiscountPercentage float64      `json:"discountPercentage"`
	DiscountAmount     float64      `json:"discountAmount"`

	NetRevenue float64 `json:"netRevenue"`
	GST        float64 `json:"gst"`
	Total      float64 `json:"total"`

	TotalHours float64 `json:"totalHours"`
	CleanerPay float64 `json:"cleanerPay"`
	Profit     float64 `json:"profit"`
	Margin     float64 `json:"margin"`

	DepositPercentage float64 `json:"depositPercentage"`
	DepositAmount     float64 `json:"depositAmount"`

	Customer
}

// Engine calculates quotes with a fixed service-time estimator.
type Engine struct {
	estimator Estimator
}

// NewEngine returns an engine using est, or the formula estimator when est is nil.
func NewEngine(est Estimator) *Engine {
	if est == nil {
		est = FormulaEstimator{}
	}
	return &Engine{estimator: est}
}

var defaultEngine = NewEngine(nil)

// Multiplier returns m as an explicit Request.SuburbMultiplier.
func Multiplier(m float64) *float64 {
	return &m
}

// Calculate prices req with the formula estimator.
func Calculate(req Request) (Result, error) {
	return defaultEngine.Calculate(req)
}

// Calculate validates req and derives the quote. It has no side effects and
// returns the zero Result whenever err is non-nil.
func (e *Engine) Calculate(req Request) (Result, error) {
	if !req.Service.Valid() {
		return Result{}, invalid(KindInvalidServiceType, "service", "unknown service %q", req.Service)
	}
	if err := validateRates(req); err != nil {
		return Result{}, err
	}
	if err := req.Discount.validate(); err != nil {
		return Result{}, err
	}

	mainHours, err := e.estimator.Estimate(req.Service, req.Bedrooms, req.Bathrooms)
	if err != nil {
		return Result{}, err
	}

	lines := make([]AddonLine, 0, len(req.Addons)+len(req.CustomAddons))
	addonHours := 0.0
	for i, key := range req.Addons {
		hours, ok := AddonHours(key)
		if !ok {
			return Result{}, invalid(KindInvalidAddonKey, fieldIndex("addons", i), "unknown add-on %q", key)
		}
		addonHours += hours
		lines = append(lines, AddonLine{Name: key, Hours: hours, Cost: hours * req.HourlyRate})
	}
	for i, c := range req.CustomAddons {
		if err := validateCustomAddon(i, c); err != nil {
			return Result{}, err
		}
		lines = append(lines, AddonLine{Name: c.Name, Cost: c.Price, Custom: true})
	}

	mainCost := mainHours * req.HourlyRate
	preMultiplier := mainCost
	for _, l := range lines {
		preMultiplier += l.Cost
	}

	multiplier := 1.0
	if req.SuburbMultiplier != nil {
		multiplier = *req.SuburbMultiplier
	}
	subtotal := preMultiplier * multiplier

	discountAmount := req.Discount.resolve(subtotal)
	netRevenue := subtotal - discountAmount
	gst := netRevenue * GSTRate
	total := netRevenue + gst

	totalHours := mainHours + addonHours
	cleanerPay := totalHours * req.CleanerRate
	profit := netRevenue - cleanerPay
	margin := 0.0
	if netRevenue > 0 {
		margin = profit / netRevenue * 100
	}
	if err := checkTotals(subtotal, total); err != nil {
		return Result{}, err
	}

	discountPct := 0.0
	if req.Discount.Kind == DiscountPercentage {
		discountPct = req.Discount.Value
	}
	kind := req.Discount.Kind
	if kind == "" {
		kind = DiscountNone
	}

	return Result{
		Service:      req.Service,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Addons:       lines,
		CustomAddons: append([]CustomAddon{}, req.CustomAddons...),
		HourlyRate:   req.HourlyRate,
		CleanerRate:  req.CleanerRate,

		MainServiceHours:      mainHours,
		MainServiceCost:       mainCost,
		PreMultiplierSubtotal: preMultiplier,
		SuburbMultiplier:      multiplier,
		Subtotal:              subtotal,

		DiscountApplied:    req.Discount.Applied(),
		DiscountKind:       kind,
		DiscountPercentage: discountPct,
		DiscountAmount:     discountAmount,

		NetRevenue: netRevenue,
		GST:        gst,
		Total:      total,

		TotalHours: totalHours,
		CleanerPay: cleanerPay,
		Profit:     profit,
		Margin:     margin,

		DepositPercentage: req.DepositPercentage,
		DepositAmount:     total * req.DepositPercentage / 100,

		Customer: req.Customer,
	}, nil
}

// ValidateRates checks the rate and percentage bounds shared with stored rate defaults.
func ValidateRates(hourlyRate, cleanerRate, depositPercentage float64) error {
	if !isFinite(hourlyRate) || hourlyRate < MinHourlyRate || hourlyRate > MaxHourlyRate {
		return invalid(KindInvalidRate, "hourlyRate", "must be between %v and %v, got %v", MinHourlyRate, MaxHourlyRate, hourlyRate)
	}
	if !isFinite(cleanerRate) || cleanerRate < MinCleanerRate || cleanerRate > MaxCleanerRate {
		return invalid(KindInvalidRate, "cleanerRate", "must be between %v and %v, got %v", MinCleanerRate, MaxCleanerRate, cleanerRate)
	}
	if !isFinite(depositPercentage) || depositPercentage < 0 || depositPercentage > 100 {
		return invalid(KindInvalidPercentage, "depositPercentage", "must be between 0 and 100, got %v", depositPercentage)
	}
	return nil
}

func validateRates(req Request) error {
	if err := ValidateRates(req.HourlyRate, req.CleanerRate, req.DepositPercentage); err != nil {
		return err
	}
	if m := req.SuburbMultiplier; m != nil && (!isFinite(*m) || *m <= 0 || *m > MaxSuburbMultiplier) {
		return invalid(KindInvalidRate, "suburbMultiplier", "must be greater than 0 and at most %v, got %v", MaxSuburbMultiplier, *m)
	}
	return nil
}

// checkTotals rejects derived amounts that overflowed float64.
func checkTotals(subtotal, total float64) error {
	if !isFinite(subtotal) {
		return invalid(KindInvalidRate, "subtotal", "subtotal is out of range")
	}
	if !isFinite(total) {
		return invalid(KindInvalidRate, "total", "total is out of range")
	}
	return nil
}

func validateCustomAddon(i int, c CustomAddon) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid(KindInvalidCustomAddon, fieldIndex("customAddons", i)+".name", "name is required")
	}
	if !isFinite(c.Price) || c.Price <= 0 || c.Price > MaxCustomAddonPrice {
		return invalid(KindInvalidCustomAddon, fieldIndex("customAddons", i)+".price", "must be greater than 0 and at most %v, got %v", MaxCustomAddonPrice, c.Price)
	}
	return nil
}

func fieldIndex(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
