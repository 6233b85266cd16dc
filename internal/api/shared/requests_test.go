package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     error
		wantAnyErr  bool
	}{
		{"valid", "application/json", `{"email":"a@b.co","password":"x"}`, nil, false},
		{"with charset", "application/json; charset=utf-8", `{"email":"a@b.co","password":"x"}`, nil, false},
		{"form content type", "application/x-www-form-urlencoded", `email=a`, ErrNotJSON, true},
		{"missing content type", "", `{}`, ErrNotJSON, true},
		{"invalid json", "application/json", `{"email":`, nil, true},
		{"empty body", "application/json", ``, nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}

			var v credentials
			err := DecodeJSON(httptest.NewRecorder(), req, &v)
			if !tc.wantAnyErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&credentials{Email: "a@b.co", Password: "x"}))

	err := ValidateRequest(&credentials{Email: "a@b.co"})
	var validationErrs validator.ValidationErrors
	assert.True(t, errors.As(err, &validationErrs))
	assert.Equal(t, "Password", validationErrs[0].Field())
}
