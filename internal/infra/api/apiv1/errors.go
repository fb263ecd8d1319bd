package apiv1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/infra/api"
	"sandbox-billing/internal/infra/logging"
	"sandbox-billing/internal/usecase"
)

const msgInvalidData = "The given data was invalid."

// FieldErrors maps a request field to its messages.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

// InvalidParamFormatError is returned when a path or query parameter cannot
// be bound to its declared type.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// decodeError marks a body that is not a JSON object of the expected shape.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "invalid JSON body: " + e.err.Error() }

func validationMessage(fe validator.FieldError) string {
	field := fieldName(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
	case "len":
		return fmt.Sprintf("The %s must be %s characters.", field, fe.Param())
	default:
		return fmt.Sprintf("The %s is invalid.", field)
	}
}

// fieldName drops the request struct name from the namespace.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// writeError maps workflow and domain errors to the response envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErrs   validator.ValidationErrors
		ucVal   *usecase.ValidationError
		gwErr   *usecase.GatewayError
		opErr   *usecase.OperationError
		paramEr *InvalidParamFormatError
		decErr  *decodeError
	)

	switch {
	case errors.As(err, &vErrs):
		fields := FieldErrors{}
		for _, fe := range vErrs {
			fields.add(fieldName(fe), validationMessage(fe))
		}
		api.Error(w, http.StatusUnprocessableEntity, msgInvalidData, fields)
	case errors.As(err, &ucVal):
		api.Error(w, http.StatusUnprocessableEntity, msgInvalidData, FieldErrors{ucVal.Field: {ucVal.Message}})
	case errors.As(err, &paramEr):
		api.Error(w, http.StatusUnprocessableEntity, msgInvalidData, FieldErrors{paramEr.ParamName: {fmt.Sprintf("The %s is invalid.", paramEr.ParamName)}})
	case errors.As(err, &decErr):
		api.Error(w, http.StatusUnprocessableEntity, msgInvalidData, FieldErrors{"body": {"The request body must be a JSON object."}})
	case errors.As(err, &gwErr):
		api.Error(w, http.StatusBadRequest, gwErr.Message, map[string]interface{}{"gateway_error": gwErr.Code})
	case errors.Is(err, domain.ErrPlanNotFound):
		api.Error(w, http.StatusNotFound, "Subscription plan not found", nil)
	case errors.Is(err, domain.ErrPaymentNotFound):
		api.Error(w, http.StatusNotFound, "Payment not found", nil)
	case errors.Is(err, domain.ErrUserNotFound):
		api.Error(w, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, domain.ErrAlreadyRefunded):
		api.Error(w, http.StatusBadRequest, "Payment has already been refunded", nil)
	case errors.Is(err, domain.ErrNotRefundable):
		api.Error(w, http.StatusBadRequest, "Only completed payments can be refunded", nil)
	case errors.Is(err, domain.ErrInvalidSignature):
		api.Error(w, http.StatusUnauthorized, "Invalid webhook signature", nil)
	case errors.Is(err, domain.ErrUnauthenticated):
		api.Error(w, http.StatusUnauthorized, "Unauthenticated.", nil)
	case errors.As(err, &opErr):
		api.Error(w, http.StatusInternalServerError, opErr.Error(), nil)
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		api.Error(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
