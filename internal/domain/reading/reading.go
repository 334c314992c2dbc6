package reading

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Reading is one timestamped snapshot of vital measurements for a patient.
// Once created, readings cannot be edited; only deletion is permitted.
type Reading struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	// All vitals are optional; nil means "not measured".
	TemperatureCelsius *float64 `gorm:"column:temperature_celsius" json:"temperature_celsius"`
	HeartRateBPM       *float64 `gorm:"column:heart_rate_bpm" json:"heart_rate_bpm"`
	BPSystolic         *float64 `gorm:"column:bp_systolic" json:"bp_systolic"`
	BPDiastolic        *float64 `gorm:"column:bp_diastolic" json:"bp_diastolic"`
	RespiratoryRate    *float64 `gorm:"column:respiratory_rate" json:"respiratory_rate"`
	OxygenSaturation   *float64 `gorm:"column:oxygen_saturation" json:"oxygen_saturation"`
	GlucoseLevel       *float64 `gorm:"column:glucose_level" json:"glucose_level"`
	HeightCm           *float64 `gorm:"column:height_cm" json:"height_cm"`
	WeightKg           *float64 `gorm:"column:weight_kg" json:"weight_kg"`

	// DiagnosedFor is the free-text context the doctor entered when
	// taking the reading.
	DiagnosedFor string `gorm:"column:diagnosed_for;type:text" json:"diagnosed_for"`
}

func (Reading) TableName() string {
	return "clinical.readings"
}

// BMI derives body mass index from height and weight, rounded to one
// decimal. Returns nil when either input is missing.
func (r *Reading) BMI() *float64 {
	if r.HeightCm == nil || r.WeightKg == nil || *r.HeightCm <= 0 {
		return nil
	}
	meters := *r.HeightCm / 100
	bmi := *r.WeightKg / (meters * meters)
	rounded := math.Round(bmi*10) / 10
	return &rounded
}

// BloodPressure formats the systolic/diastolic pair as "SYS/DIA".
// Returns "" unless both values are present.
func (r *Reading) BloodPressure() string {
	if r.BPSystolic == nil || r.BPDiastolic == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s", trimFloat(*r.BPSystolic), trimFloat(*r.BPDiastolic))
}

// trimFloat renders a float without trailing zeros (120 not 120.0).
func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

type CreateReadingCommand struct {
	PatientID          uuid.UUID
	TemperatureCelsius *float64
	HeartRateBPM       *float64
	BPSystolic         *float64
	BPDiastolic        *float64
	RespiratoryRate    *float64
	OxygenSaturation   *float64
	GlucoseLevel       *float64
	HeightCm           *float64
	WeightKg           *float64
	DiagnosedFor       string
}
