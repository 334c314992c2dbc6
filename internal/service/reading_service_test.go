package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/internal/domain/reading"
)

func newReadingFixture(t *testing.T) (*ReadingService, uuid.UUID, Caller) {
	t.Helper()

	patientRepo := newMockPatientRepo()
	svc := NewReadingService(newMockReadingRepo(), patientRepo, NewAuditService(&mockAuditRepo{}, testLogger()), testCollector, testLogger())

	doctorID := uuid.New()
	p := &patient.Patient{
		Name:        "Jane Roe",
		DateOfBirth: time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		DoctorID:    doctorID,
	}
	require.NoError(t, patientRepo.Create(context.Background(), p))

	return svc, p.ID, doctorCaller(doctorID)
}

func TestRecordReading(t *testing.T) {
	svc, patientID, caller := newReadingFixture(t)

	temp := 37.2
	r, err := svc.RecordReading(context.Background(), &reading.CreateReadingCommand{
		PatientID:          patientID,
		TemperatureCelsius: &temp,
		DiagnosedFor:       "fever",
	}, caller)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, patientID, r.PatientID)
	assert.Equal(t, "fever", r.DiagnosedFor)
}

func TestRecordReadingRequiresAVital(t *testing.T) {
	svc, patientID, caller := newReadingFixture(t)

	_, err := svc.RecordReading(context.Background(), &reading.CreateReadingCommand{
		PatientID:    patientID,
		DiagnosedFor: "checkup",
	}, caller)
	assert.ErrorIs(t, err, reading.ErrNoVitalsProvided)
}

func TestRecordReadingForbiddenForOtherDoctor(t *testing.T) {
	svc, patientID, _ := newReadingFixture(t)

	temp := 37.2
	_, err := svc.RecordReading(context.Background(), &reading.CreateReadingCommand{
		PatientID:          patientID,
		TemperatureCelsius: &temp,
	}, doctorCaller(uuid.New()))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetReadingPatientMismatch(t *testing.T) {
	svc, patientID, caller := newReadingFixture(t)

	temp := 37.2
	r, err := svc.RecordReading(context.Background(), &reading.CreateReadingCommand{
		PatientID:          patientID,
		TemperatureCelsius: &temp,
	}, caller)
	require.NoError(t, err)

	// A second patient owned by the same doctor cannot reach the
	// first patient's reading.
	otherPatient := &patient.Patient{Name: "John Doe", Gender: patient.GenderMale, DoctorID: *caller.DoctorID}
	require.NoError(t, svc.patientRepo.Create(context.Background(), otherPatient))

	_, err = svc.GetReading(context.Background(), r.ID, otherPatient.ID, caller)
	assert.ErrorIs(t, err, reading.ErrReadingPatientMismatch)
}

func TestDeleteReading(t *testing.T) {
	svc, patientID, caller := newReadingFixture(t)

	temp := 37.2
	r, err := svc.RecordReading(context.Background(), &reading.CreateReadingCommand{
		PatientID:          patientID,
		TemperatureCelsius: &temp,
	}, caller)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReading(context.Background(), r.ID, patientID, caller))

	_, err = svc.GetReading(context.Background(), r.ID, patientID, caller)
	assert.ErrorIs(t, err, reading.ErrReadingNotFound)
}
