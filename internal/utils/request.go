package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/dine-in-preorder/internal/errors"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxBodyBytes caps session request bodies; the largest is the details form.
const MaxBodyBytes = 64 << 10

var errEmptyBody = errors.New("request body cannot be empty")

// NewValidator reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// decodeBody reads one JSON document of at most MaxBodyBytes into dest.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))

	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}

		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// ParseAndValidate writes the 400 response itself and returns false when the
// body is unusable.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	logger := middleware.LoggerFromContext(r.Context())

	if err := decodeBody(w, r, dest); err != nil {
		logger.Warn("Undecodable request body", slog.String("error", err.Error()))
		response.Error(w, appErrors.BadRequestError("Invalid request body").WithDetail(err.Error()))
		return false
	}

	err := validate.Struct(dest)
	if err == nil {
		return true
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		logger.Warn("Request validation failed", slog.String("error", validationErrs.Error()))
		response.ValidationError(w, validationErrs)
		return false
	}

	logger.Error("Validator misuse", slog.String("error", err.Error()))
	response.Error(w, appErrors.InternalError("Could not validate request").WithError(err))
	return false
}

// ParseID reads a UUID path value.
func ParseID(r *http.Request, key string) (uuid.UUID, error) {
	raw := r.PathValue(key)

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, appErrors.BadRequestError("Invalid " + key + " format").WithError(err)
	}

	return id, nil
}
