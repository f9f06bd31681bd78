package pricing

import "math"

// Property size bounds accepted by the formula estimator.
const (
	MinBedrooms  = 1
	MaxBedrooms  = 20
	MinBathrooms = 1
	MaxBathrooms = 10
)

// Estimator returns the main-service hours for a property.
type Estimator interface {
	Estimate(service Service, bedrooms, bathrooms int) (float64, error)
}

type serviceTime struct {
	PerRoom float64
	Minimum float64
}

var serviceTimes = map[Service]serviceTime{
	ServiceGeneral: {PerRoom: 0.8, Minimum: 1.5},
	ServiceDeep:    {PerRoom: 1.2, Minimum: 2.0},
	ServiceMove:    {PerRoom: 1.5, Minimum: 2.5},
}

// FormulaEstimator scales hours with the room count and enforces a per-service
// minimum job time.
type FormulaEstimator struct{}

func (FormulaEstimator) Estimate(service Service, bedrooms, bathrooms int) (float64, error) {
	st, ok := serviceTimes[service]
	if !ok {
		return 0, invalid(KindInvalidServiceType, "service", "unknown service %q", service)
	}
	if bedrooms < MinBedrooms || bedrooms > MaxBedrooms {
		return 0, invalid(KindInvalidPropertyConfiguration, "bedrooms", "must be between %d and %d, got %d", MinBedrooms, MaxBedrooms, bedrooms)
	}
	if bathrooms < MinBathrooms || bathrooms > MaxBathrooms {
		return 0, invalid(KindInvalidPropertyConfiguration, "bathrooms", "must be between %d and %d, got %d", MinBathrooms, MaxBathrooms, bathrooms)
	}

	rooms := float64(bedrooms + bathrooms)
	return math.Max(rooms*st.PerRoom, st.Minimum), nil
}

type roomPair struct {
	Bedrooms  int
	Bathrooms int
}

// legacyHours is the fixed estimate table used before the formula was introduced.
var legacyHours = map[Service]map[roomPair]float64{
	ServiceGeneral: {
		{1, 1}: 2, {2, 1}: 2.5, {2, 2}: 3.5, {3, 2}: 4,
		{4, 2}: 4.75, {4, 3}: 5.75, {5, 3}: 6.5, {6, 3}: 7,
	},
	ServiceDeep: {
		{1, 1}: 3.5, {2, 1}: 4, {2, 2}: 5, {3, 2}: 6,
		{4, 2}: 7.25, {4, 3}: 8.5, {5, 3}: 9.75, {6, 3}: 11,
	},
	ServiceMove: {
		{1, 1}: 5, {2, 1}: 6, {2, 2}: 7, {3, 2}: 8,
		{4, 2}: 9.5, {4, 3}: 10.5, {5, 3}: 11, {6, 3}: 12.5,
	},
}

// TableEstimator only accepts the bedroom/bathroom pairs listed in the legacy
// estimate table.
type TableEstimator struct{}

func (TableEstimator) Estimate(service Service, bedrooms, bathrooms int) (float64, error) {
	table, ok := legacyHours[service]
	if !ok {
		return 0, invalid(KindInvalidServiceType, "service", "unknown service %q", service)
	}
	hours, ok := table[roomPair{bedrooms, bathrooms}]
	if !ok {
		return 0, invalid(KindInvalidPropertyConfiguration, "bedrooms", "no estimate for %d bedrooms and %d bathrooms", bedrooms, bathrooms)
	}
	return hours, nil
}

// EstimatorByName maps a configuration value to an estimator.
func EstimatorByName(name string) (Estimator, bool) {
	switch name {
	case "", "formula":
		return FormulaEstimator{}, true
	case "table":
		return TableEstimator{}, true
	default:
		return nil, false
	}
}
