package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Simplici0/cleanquote/internal/pricing"
)

// Sentinel errors for handlers.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrMalformedBody = errors.New("malformed request body")
	ErrBadRequest    = errors.New("bad request")
)

// KindInvalidRequest marks wire-level failures caught before the engine runs.
const KindInvalidRequest = "InvalidRequest"

// RespondError maps errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verr *pricing.ValidationError
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		WriteProblem(w, ProblemDetail{
			Title:  "Invalid Quote Request",
			Status: http.StatusBadRequest,
			Detail: verr.Message,
			Kind:   string(verr.Kind),
			Field:  verr.Field,
		})
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		WriteProblem(w, ProblemDetail{
			Title:  "Invalid Request",
			Status: http.StatusBadRequest,
			Detail: describeFieldError(fe),
			Kind:   KindInvalidRequest,
			Field:  fieldPath(fe),
		})
	case errors.Is(err, ErrMalformedBody), errors.Is(err, ErrBadRequest):
		WriteProblem(w, ProblemDetail{
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
			Kind:   KindInvalidRequest,
		})
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// fieldPath drops the top-level struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
