package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Urgency is the triage severity attached to a report. The set is
// closed; anything else renders with a neutral fallback treatment.
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// ParseUrgency normalizes free-form model output ("low", " High ") to
// the closed enum. Unrecognized input is returned as-is so callers can
// persist what the collaborator said and render it neutrally.
func ParseUrgency(raw string) Urgency {
	u := Urgency(strings.ToUpper(strings.TrimSpace(raw)))
	if u.IsValid() {
		return u
	}
	return Urgency(strings.TrimSpace(raw))
}

// Report is the AI-generated narrative assessment derived from exactly
// one reading. It carries its own identity; the source reading is a
// foreign key, unique so the relation stays 1:1.
type Report struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	ReadingID uuid.UUID `gorm:"column:reading_id;type:uuid;uniqueIndex;not null"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	Summary          string  `gorm:"column:summary;type:text;not null"`
	DetailedAnalysis string  `gorm:"column:detailed_analysis;type:text;not null"`
	Diagnosis        string  `gorm:"column:diagnosis;type:text;not null"`
	Recommendations  string  `gorm:"column:recommendations;type:text;not null"`
	UrgencyLevel     Urgency `gorm:"column:urgency_level;type:varchar(20);not null"`
	AdditionalNotes  string  `gorm:"column:additional_notes;type:text"`

	// Optional follow-up metadata: a cron expression and the id of the
	// scheduled reminder job, present only while a follow-up is active.
	FollowUpSchedule string `gorm:"column:follow_up_schedule;type:varchar(100)"`
	FollowUpJobID    string `gorm:"column:follow_up_job_id;type:varchar(50)"`
}

func (Report) TableName() string {
	return "clinical.reports"
}

// HasFollowUp reports whether an active follow-up schedule is attached.
func (r *Report) HasFollowUp() bool {
	return r.FollowUpSchedule != ""
}

type CreateReportCommand struct {
	ReadingID        uuid.UUID
	PatientID        uuid.UUID
	DoctorID         uuid.UUID
	Summary          string
	DetailedAnalysis string
	Diagnosis        string
	Recommendations  string
	UrgencyLevel     Urgency
	AdditionalNotes  string
}

type SetFollowUpCommand struct {
	Schedule string
	JobID    string
}
