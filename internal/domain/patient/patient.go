package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

type BloodGroup string

const (
	BloodGroupAPos    BloodGroup = "A+"
	BloodGroupANeg    BloodGroup = "A-"
	BloodGroupBPos    BloodGroup = "B+"
	BloodGroupBNeg    BloodGroup = "B-"
	BloodGroupABPos   BloodGroup = "AB+"
	BloodGroupABNeg   BloodGroup = "AB-"
	BloodGroupOPos    BloodGroup = "O+"
	BloodGroupONeg    BloodGroup = "O-"
	BloodGroupUnknown BloodGroup = "unknown"
)

func (b BloodGroup) IsValid() bool {
	switch b {
	case BloodGroupAPos, BloodGroupANeg, BloodGroupBPos, BloodGroupBNeg,
		BloodGroupABPos, BloodGroupABNeg, BloodGroupOPos, BloodGroupONeg,
		BloodGroupUnknown:
		return true
	}
	return false
}

// SmokingStatus captures the patient's smoking history.
type SmokingStatus string

const (
	SmokingNever   SmokingStatus = "NEVER"
	SmokingPast    SmokingStatus = "PAST"
	SmokingPresent SmokingStatus = "PRESENT"
)

func (s SmokingStatus) IsValid() bool {
	switch s {
	case SmokingNever, SmokingPast, SmokingPresent:
		return true
	}
	return false
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft Delete

	Name        string    `gorm:"column:name;type:varchar(200);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Gender      Gender    `gorm:"column:gender;type:varchar(20);not null"`

	Phone      string     `gorm:"column:phone;type:varchar(20)"`
	Email      string     `gorm:"column:email;type:varchar(255)"`
	BloodGroup BloodGroup `gorm:"column:blood_group;type:varchar(10)"`

	SmokingStatus  SmokingStatus `gorm:"column:smoking_status;type:varchar(10);not null;default:'NEVER'"`
	MedicalHistory string        `gorm:"column:medical_history;type:text"` // PHI

	// Allergies is stored as a single comma-joined string; no uniqueness
	// or canonicalization is enforced beyond trimming on split.
	Allergies string `gorm:"column:allergies;type:text"`

	// Cured, once true, suppresses follow-up scheduling in rendered documents.
	Cured bool `gorm:"column:cured;default:false;index"`

	DoctorID uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

// Age is computed against an explicit clock so rendered documents
// stay deterministic for identical inputs.
func (p *Patient) Age(now time.Time) int {
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

// AllergyList splits the stored comma-joined allergy string into
// trimmed entries, dropping empties.
func (p *Patient) AllergyList() []string {
	return SplitAllergies(p.Allergies)
}

func SplitAllergies(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func JoinAllergies(list []string) string {
	trimmed := make([]string, 0, len(list))
	for _, a := range list {
		if t := strings.TrimSpace(a); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return strings.Join(trimmed, ", ")
}

type CreatePatientCommand struct {
	Name           string
	DateOfBirth    time.Time
	Gender         Gender
	Phone          string
	Email          string
	BloodGroup     BloodGroup
	SmokingStatus  SmokingStatus
	MedicalHistory string
	Allergies      []string
	DoctorID       uuid.UUID
}

type UpdatePatientCommand struct {
	Name           *string
	Gender         *Gender
	Phone          *string
	Email          *string
	BloodGroup     *BloodGroup
	SmokingStatus  *SmokingStatus
	MedicalHistory *string
	Allergies      *[]string
}
