package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/ai"
	"github.com/smartmed/smartmed-api/internal/domain"
	"github.com/smartmed/smartmed-api/internal/domain/doctor"
	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/internal/domain/reading"
	"github.com/smartmed/smartmed-api/internal/domain/report"
	"github.com/smartmed/smartmed-api/internal/mailer"
	"github.com/smartmed/smartmed-api/internal/scheduler"
	"github.com/smartmed/smartmed-api/pkg/metrics"
)

// Shared across the package's tests; the prometheus default registry
// rejects duplicate registration.
var testCollector = metrics.NewCollector("test")

func testLogger() *zap.Logger { return zap.NewNop() }

type mockPatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) Update(_ context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	if cmd.Name != nil {
		p.Name = *cmd.Name
	}
	if cmd.Allergies != nil {
		p.Allergies = patient.JoinAllergies(*cmd.Allergies)
	}
	return p, nil
}

func (m *mockPatientRepo) SetCured(_ context.Context, id uuid.UUID, cured bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.Cured = cured
	return nil
}

func (m *mockPatientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[id]; !ok {
		return patient.ErrPatientNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*patient.Patient
	for _, p := range m.patients {
		if p.DoctorID == doctorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPatientRepo) CountByDoctor(_ context.Context, doctorID uuid.UUID) (int64, error) {
	list, _ := m.ListByDoctor(context.Background(), doctorID)
	return int64(len(list)), nil
}

type mockReadingRepo struct {
	mu       sync.Mutex
	readings map[uuid.UUID]*reading.Reading
}

func newMockReadingRepo() *mockReadingRepo {
	return &mockReadingRepo{readings: make(map[uuid.UUID]*reading.Reading)}
}

func (m *mockReadingRepo) Create(_ context.Context, r *reading.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.readings[r.ID] = r
	return nil
}

func (m *mockReadingRepo) GetByID(_ context.Context, id uuid.UUID) (*reading.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.readings[id]
	if !ok {
		return nil, reading.ErrReadingNotFound
	}
	return r, nil
}

func (m *mockReadingRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*reading.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*reading.Reading
	for _, r := range m.readings {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReadingRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.readings[id]; !ok {
		return reading.ErrReadingNotFound
	}
	delete(m.readings, id)
	return nil
}

type mockReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*report.Report
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[uuid.UUID]*report.Report)}
}

func (m *mockReportRepo) Create(_ context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reports {
		if existing.ReadingID == r.ReadingID {
			return report.ErrReportAlreadyExists
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

// Reads return copies, like a row scan would; callers mutating a
// fetched report must not reach the store except through SetFollowUp.
func (m *mockReportRepo) GetByID(_ context.Context, id uuid.UUID) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, report.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockReportRepo) GetByReadingID(_ context.Context, readingID uuid.UUID) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ReadingID == readingID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, report.ErrReportNotFound
}

func (m *mockReportRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*report.Report
	for _, r := range m.reports {
		if r.PatientID == patientID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockReportRepo) SetFollowUp(_ context.Context, id uuid.UUID, cmd *report.SetFollowUpCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return report.ErrReportNotFound
	}
	r.FollowUpSchedule = cmd.Schedule
	r.FollowUpJobID = cmd.JobID
	return nil
}

func (m *mockReportRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return report.ErrReportNotFound
	}
	delete(m.reports, id)
	return nil
}

type mockDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*doctor.Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*doctor.Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *doctor.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func (m *mockDoctorRepo) Update(_ context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	if cmd.Name != nil {
		d.Name = *cmd.Name
	}
	return d, nil
}

func (m *mockDoctorRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[id]; !ok {
		return doctor.ErrDoctorNotFound
	}
	delete(m.doctors, id)
	return nil
}

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (m *mockAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

type mockGenerator struct {
	draft *ai.ReportDraft
	err   error
	// last prompt seen, for assertions
	prompt string
}

func (m *mockGenerator) GenerateDraft(_ context.Context, prompt string) (*ai.ReportDraft, error) {
	m.prompt = prompt
	if m.err != nil {
		return nil, m.err
	}
	return m.draft, nil
}

type mockMailer struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg *mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockFollowUpCanceller struct {
	mu        sync.Mutex
	cancelled []uuid.UUID
	err       error
}

func (m *mockFollowUpCanceller) CancelFollowUpsForPatient(_ context.Context, patientID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cancelled = append(m.cancelled, patientID)
	return nil
}

type mockScheduler struct {
	mu        sync.Mutex
	next      int
	active    map[string]scheduler.FollowUp
	cancelled []string
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{active: make(map[string]scheduler.FollowUp)}
}

func (m *mockScheduler) Schedule(expr string, fu scheduler.FollowUp) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := "job-" + strconv.Itoa(m.next)
	m.active[id] = fu
	return id, nil
}

func (m *mockScheduler) Cancel(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, jobID)
	m.cancelled = append(m.cancelled, jobID)
}
