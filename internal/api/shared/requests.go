package shared

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

// ErrNotJSON is returned by DecodeJSON when the request is not
// application/json.
var ErrNotJSON = errors.New("request content type must be application/json")

// Global validator instance for reuse
var validate = validator.New()

// IsJSON reports whether the request declares an application/json body.
func IsJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// DecodeJSON decodes the request body into v. Requests that are not
// application/json fail with ErrNotJSON.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if !IsJSON(r) {
		return ErrNotJSON
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}
