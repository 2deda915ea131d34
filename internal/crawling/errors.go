// Package crawling loads pages in an automated browser and reports the
// third-party trackers they contact.
package crawling

import (
	"errors"
	"fmt"
)

// ErrNavigationTimeout marks a navigation that ran out of time. Detect treats
// it as a soft failure and keeps the trackers observed so far.
var ErrNavigationTimeout = errors.New("navigation timeout")

// NavigationError represents a navigation failure other than a timeout
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("navigation error: %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("navigation error: %s", e.URL)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}

// BrowserError represents a failure to create or drive a browser session
type BrowserError struct {
	Message string
	Cause   error
}

func (e *BrowserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("browser error: %s", e.Message)
}

func (e *BrowserError) Unwrap() error {
	return e.Cause
}
