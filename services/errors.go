package services

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrValidation    = errors.New("title and content are required")
	ErrEmptySlug     = errors.New("title has no letters or digits")
	ErrDuplicateSlug = errors.New("this title is already in use")
	ErrPostNotFound  = errors.New("post not found")
	ErrPageNotFound  = errors.New("page out of range")
)

var ErrorMap = map[error]int{
	ErrValidation:    http.StatusBadRequest,
	ErrEmptySlug:     http.StatusBadRequest,
	ErrDuplicateSlug: http.StatusConflict,
	ErrPostNotFound:  http.StatusNotFound,
	ErrPageNotFound:  http.StatusNotFound,
}

// StatusFor maps an error to the HTTP status it should surface as.
func StatusFor(err error) int {
	for target, status := range ErrorMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
