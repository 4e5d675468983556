package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDataLoad           = errors.New("data load error")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrNoData             = errors.New("no data")
	ErrUnsupportedChart   = errors.New("chart not available for view")
)

// DataLoadError reports why the source file could not be turned into a Dataset.
// Row is 1-based over data rows (header excluded); zero when not row specific.
type DataLoadError struct {
	Path   string
	Row    int
	Column string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Path, e.Reason)
	if e.Column != "" && e.Row > 0 {
		msg = fmt.Sprintf("load %s: row %d column %s: %s", e.Path, e.Row, e.Column, e.Reason)
	} else if e.Column != "" {
		msg = fmt.Sprintf("load %s: column %s: %s", e.Path, e.Column, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataLoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDataLoad}
	}
	return []error{ErrDataLoad, e.Err}
}
