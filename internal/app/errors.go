package app

import "errors"

var (
	// ErrGeneratorNotConfigured indicates no AI credential was available at
	// startup, so report generation cannot be served.
	ErrGeneratorNotConfigured = errors.New("report generator not configured: missing AI credentials")
)
