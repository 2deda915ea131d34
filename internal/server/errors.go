// Package server provides the HTTP REST API for privacy analyses.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/privacy-lens/internal/crawling"
	"github.com/jonathan/privacy-lens/internal/pipeline"
)

// ErrSiteNotFound indicates no stored analysis exists for a URL
type ErrSiteNotFound struct {
	URL string
}

func (e *ErrSiteNotFound) Error() string {
	return fmt.Sprintf("site not found: %s", e.URL)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrSiteNotFound
		validation *ErrValidation
		request    *pipeline.RequestError
		browser    *crawling.BrowserError
		navigation *crawling.NavigationError
		detection  *pipeline.DetectionError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &request):
		return http.StatusBadRequest
	case errors.As(err, &browser):
		return http.StatusServiceUnavailable
	case errors.As(err, &navigation):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &detection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
