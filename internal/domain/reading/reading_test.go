package reading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBMI(t *testing.T) {
	r := &Reading{HeightCm: f(175), WeightKg: f(70)}
	bmi := r.BMI()
	require.NotNil(t, bmi)
	assert.InDelta(t, 22.9, *bmi, 0.001)
}

func TestBMIMissingInputs(t *testing.T) {
	assert.Nil(t, (&Reading{WeightKg: f(70)}).BMI())
	assert.Nil(t, (&Reading{HeightCm: f(175)}).BMI())
	assert.Nil(t, (&Reading{HeightCm: f(0), WeightKg: f(70)}).BMI())
}

func TestBloodPressure(t *testing.T) {
	r := &Reading{BPSystolic: f(120), BPDiastolic: f(80)}
	assert.Equal(t, "120/80", r.BloodPressure())

	assert.Equal(t, "", (&Reading{BPSystolic: f(120)}).BloodPressure())
	assert.Equal(t, "", (&Reading{BPDiastolic: f(80)}).BloodPressure())
	assert.Equal(t, "", (&Reading{}).BloodPressure())
}

func TestBloodPressureTrimsTrailingZeros(t *testing.T) {
	r := &Reading{BPSystolic: f(118.5), BPDiastolic: f(79)}
	assert.Equal(t, "118.5/79", r.BloodPressure())
}
