package pricing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected quote request.
type ErrorKind string

const (
	KindInvalidServiceType           ErrorKind = "InvalidServiceType"
	KindInvalidPropertyConfiguration ErrorKind = "InvalidPropertyConfiguration"
	KindInvalidAddonKey              ErrorKind = "InvalidAddonKey"
	KindInvalidCustomAddon           ErrorKind = "InvalidCustomAddon"
	KindInvalidRate                  ErrorKind = "InvalidRate"
	KindInvalidPercentage            ErrorKind = "InvalidPercentage"
	KindInvalidDiscountType          ErrorKind = "InvalidDiscountType"
)

// Sentinels matched by errors.Is against a *ValidationError of the same kind.
var (
	ErrInvalidServiceType           = errors.New("invalid service type")
	ErrInvalidPropertyConfiguration = errors.New("invalid property configuration")
	ErrInvalidAddonKey              = errors.New("invalid add-on key")
	ErrInvalidCustomAddon           = errors.New("invalid custom add-on")
	ErrInvalidRate                  = errors.New("invalid rate")
	ErrInvalidPercentage            = errors.New("invalid percentage")
	ErrInvalidDiscountType          = errors.New("invalid discount type")
)

var sentinels = map[ErrorKind]error{
	KindInvalidServiceType:           ErrInvalidServiceType,
	KindInvalidPropertyConfiguration: ErrInvalidPropertyConfiguration,
	KindInvalidAddonKey:              ErrInvalidAddonKey,
	KindInvalidCustomAddon:           ErrInvalidCustomAddon,
	KindInvalidRate:                  ErrInvalidRate,
	KindInvalidPercentage:            ErrInvalidPercentage,
	KindInvalidDiscountType:          ErrInvalidDiscountType,
}

// ValidationError names the offending request field. A request that fails
// validation produces no result at all.
type ValidationError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return sentinels[e.Kind]
}

func invalid(kind ErrorKind, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}
