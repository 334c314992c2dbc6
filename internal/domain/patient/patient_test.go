package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAge(t *testing.T) {
	p := &Patient{DateOfBirth: time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"day before birthday", time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), 23},
		{"on birthday", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 24},
		{"day after birthday", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), 24},
		{"earlier month", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Age(tt.now))
		})
	}
}

func TestAllergiesRoundTrip(t *testing.T) {
	list := []string{"penicillin", "peanuts", "latex"}
	joined := JoinAllergies(list)
	assert.Equal(t, "penicillin, peanuts, latex", joined)
	assert.Equal(t, list, SplitAllergies(joined))
}

func TestSplitAllergies(t *testing.T) {
	assert.Nil(t, SplitAllergies(""))
	assert.Nil(t, SplitAllergies("   "))
	assert.Equal(t, []string{"dust"}, SplitAllergies(" dust "))
	assert.Equal(t, []string{"a", "b"}, SplitAllergies("a,,b,"))
}

func TestJoinAllergiesDropsEmpties(t *testing.T) {
	assert.Equal(t, "penicillin", JoinAllergies([]string{"", " penicillin ", "  "}))
	assert.Equal(t, "", JoinAllergies(nil))
}

func TestSmokingStatusIsValid(t *testing.T) {
	assert.True(t, SmokingNever.IsValid())
	assert.True(t, SmokingPast.IsValid())
	assert.True(t, SmokingPresent.IsValid())
	assert.False(t, SmokingStatus("SOMETIMES").IsValid())
	assert.False(t, SmokingStatus("never").IsValid())
}
