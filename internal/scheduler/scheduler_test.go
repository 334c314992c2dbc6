package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/mailer"
)

type captureSender struct {
	mu   sync.Mutex
	sent []*mailer.Message
}

func (c *captureSender) Send(_ context.Context, msg *mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func TestScheduleAndCancel(t *testing.T) {
	s := New(&captureSender{}, zap.NewNop())

	jobID, err := s.Schedule("0 9 * * *", FollowUp{ReportID: uuid.New()})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	s.Cancel(jobID)
	// Unknown ids are a no-op.
	s.Cancel(jobID)
	s.Cancel("not-a-job")

	assert.Empty(t, s.jobs)
}

func TestScheduleRejectsBadExpression(t *testing.T) {
	s := New(&captureSender{}, zap.NewNop())

	_, err := s.Schedule("every tuesday", FollowUp{ReportID: uuid.New()})
	assert.Error(t, err)
}

func TestReminderEscapesNames(t *testing.T) {
	sender := &captureSender{}
	s := New(sender, zap.NewNop())

	s.sendReminder(FollowUp{
		ReportID:     uuid.New(),
		PatientName:  "Jane <b>Roe</b>",
		PatientEmail: "jane@example.com",
		DoctorName:   `Alice <img src=x> Smith`,
	})

	sender.mu.Lock()
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	sender.mu.Unlock()

	assert.Equal(t, "jane@example.com", msg.ToAddress)
	assert.NotContains(t, msg.HTMLBody, "<b>")
	assert.NotContains(t, msg.HTMLBody, "<img")
	assert.Contains(t, msg.HTMLBody, "Jane &lt;b&gt;Roe&lt;/b&gt;")
	assert.Contains(t, msg.HTMLBody, "Alice &lt;img src=x&gt; Smith")
}
