package report

import "errors"

var (
	ErrReportNotFound      = errors.New("report not found")
	ErrReportAlreadyExists = errors.New("a report already exists for this reading")
	ErrInvalidSchedule     = errors.New("invalid follow-up schedule expression")
)
