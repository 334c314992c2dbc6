package scheduler

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/mailer"
)

// FollowUp describes one recurring reminder attached to a report.
type FollowUp struct {
	ReportID     uuid.UUID
	PatientName  string
	PatientEmail string
	DoctorName   string
}

// Scheduler registers cancellable follow-up reminder jobs. Job ids are
// persisted on the report so reminders survive a restartless lifetime
// of the process and can be cancelled when the patient is cured.
type Scheduler interface {
	Schedule(expr string, fu FollowUp) (jobID string, err error)
	Cancel(jobID string)
}

type CronScheduler struct {
	cron   *cron.Cron
	mailer mailer.Sender
	log    *zap.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

func New(sender mailer.Sender, log *zap.Logger) *CronScheduler {
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		mailer: sender,
		log:    log,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Start begins running registered jobs.
func (s *CronScheduler) Start() {
	s.cron.Start()
	s.log.Info("follow-up scheduler started")
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("follow-up scheduler stopped")
}

// Schedule registers a reminder job for the given cron expression and
// returns its cancellable id.
func (s *CronScheduler) Schedule(expr string, fu FollowUp) (string, error) {
	entryID, err := s.cron.AddFunc(expr, func() { s.sendReminder(fu) })
	if err != nil {
		return "", fmt.Errorf("registering follow-up job: %w", err)
	}

	jobID := strconv.Itoa(int(entryID))
	s.mu.Lock()
	s.jobs[jobID] = entryID
	s.mu.Unlock()

	s.log.Info("follow-up scheduled",
		zap.String("report_id", fu.ReportID.String()),
		zap.String("job_id", jobID),
		zap.String("schedule", expr),
	)
	return jobID, nil
}

// Cancel removes a previously scheduled job. Unknown ids are ignored.
func (s *CronScheduler) Cancel(jobID string) {
	s.mu.Lock()
	entryID, ok := s.jobs[jobID]
	if ok {
		delete(s.jobs, jobID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	s.cron.Remove(entryID)
	s.log.Info("follow-up cancelled", zap.String("job_id", jobID))
}

// sendReminder emails the patient. Failures are logged and swallowed;
// the job stays registered for the next occurrence.
func (s *CronScheduler) sendReminder(fu FollowUp) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg := &mailer.Message{
		ToName:    fu.PatientName,
		ToAddress: fu.PatientEmail,
		Subject:   "Follow-up reminder from " + fu.DoctorName,
		PlainText: fmt.Sprintf("Hello %s, this is a reminder to follow up with %s about your recent medical report.", fu.PatientName, fu.DoctorName),
		HTMLBody: fmt.Sprintf(`<p>Hello %s,</p><p>This is a reminder to follow up with %s about your recent medical report.</p>`,
			html.EscapeString(fu.PatientName), html.EscapeString(fu.DoctorName)),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("failed to send follow-up reminder",
			zap.String("report_id", fu.ReportID.String()),
			zap.Error(err),
		)
		return
	}

	s.log.Info("follow-up reminder sent",
		zap.String("report_id", fu.ReportID.String()),
		zap.String("to", fu.PatientEmail),
	)
}
