package reading

import "errors"

var (
	ErrReadingNotFound        = errors.New("reading not found")
	ErrReadingPatientMismatch = errors.New("reading does not belong to this patient")
	ErrNoVitalsProvided       = errors.New("at least one vital measurement is required")
)
