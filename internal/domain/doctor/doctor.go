package doctor

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

// Doctor is a practitioner profile, the scoped owner of patients.
// It is linked 1:1 to an auth account via UserID.
type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft Delete

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`

	Name              string `gorm:"column:name;type:varchar(200);not null"`
	Gender            Gender `gorm:"column:gender;type:varchar(20);not null"`
	PracticeStartYear int    `gorm:"column:practice_start_year;not null"`
	Degree            string `gorm:"column:degree;type:varchar(100)"`
	Speciality        string `gorm:"column:speciality;type:varchar(100)"`
	Email             string `gorm:"column:email;type:varchar(255);not null"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

func (d *Doctor) DisplayName() string {
	return strings.TrimSpace("Dr. " + d.Name)
}

// YearsOfPractice is computed against an explicit clock so rendered
// documents stay deterministic.
func (d *Doctor) YearsOfPractice(now time.Time) int {
	years := now.Year() - d.PracticeStartYear
	if years < 0 {
		return 0
	}
	return years
}

type CreateDoctorCommand struct {
	UserID            uuid.UUID
	Name              string
	Gender            Gender
	PracticeStartYear int
	Degree            string
	Speciality        string
	Email             string
}

type UpdateDoctorCommand struct {
	Name              *string
	Gender            *Gender
	PracticeStartYear *int
	Degree            *string
	Speciality        *string
	Email             *string
}
