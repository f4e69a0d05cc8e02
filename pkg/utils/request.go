package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/delivery/pkg/validate"
	"github.com/go-chi/chi/v5"
)

var ErrInvalidParam = errors.New("invalid path parameter")

// DecodeJSON reads the body into dst and checks its validate tags. On failure
// the response is already written and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		RespondWithDetails(w, http.StatusBadRequest, "Validation failed", validate.Details(err))
		return false
	}
	return true
}

// IntParam returns the positive integer chi path parameter name.
func IntParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, ErrInvalidParam
	}
	return id, nil
}
