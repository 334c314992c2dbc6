package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("0 9 * * *"))
	assert.NoError(t, Validate("30 14 * * 1"))
	assert.NoError(t, Validate("0 8 */3 * *"))

	assert.Error(t, Validate(""))
	assert.Error(t, Validate("not a cron"))
	assert.Error(t, Validate("0 9 * *"))
	assert.Error(t, Validate("61 9 * * *"))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"daily", "0 9 * * *", "every day at 09:00"},
		{"weekly numeric", "30 14 * * 1", "every Monday at 14:30"},
		{"weekly named", "0 8 * * FRI", "every Friday at 08:00"},
		{"every n days", "0 8 */3 * *", "every 3 days at 08:00"},
		{"interval of one", "0 8 */1 * *", "every day at 08:00"},
		{"monthly", "15 10 1 * *", "on day 1 of every month at 10:15"},
		{"unrecognized shape", "0 9 * 6 *", `on schedule "0 9 * 6 *"`},
		{"invalid", "bogus", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.expr))
		})
	}
}
