package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "07:00", want: TimeOfDay{Hour: 7, Minute: 0}},
		{in: "07:00:00", want: TimeOfDay{Hour: 7, Minute: 0}},
		{in: "18:45:59", want: TimeOfDay{Hour: 18, Minute: 45}}, // Seconds discarded
		{in: "9:05", want: TimeOfDay{Hour: 9, Minute: 5}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestTimeOfDay_EqualIgnoresSeconds(t *testing.T) {
	a, err := ParseTimeOfDay("07:00")
	require.NoError(t, err)
	b, err := ParseTimeOfDay("07:00:00")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestTimeOfDay_String(t *testing.T) {
	assert.Equal(t, "07:05", TimeOfDay{Hour: 7, Minute: 5}.String())
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("venue", 2*60*60)
	in := time.Date(2025, 6, 2, 23, 59, 59, 0, loc)
	got := DateOnly(in)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestScheduledClass_DisplayName(t *testing.T) {
	s := &ScheduledClass{ClassName: "Yoga"}
	assert.Equal(t, "Yoga", s.DisplayName())

	s.ClassName = ""
	assert.Equal(t, "Unknown Class", s.DisplayName())
}

func TestScheduledClass_MalformedFields(t *testing.T) {
	s := &ScheduledClass{ScheduledDate: "junk", ScheduledTime: "junk"}
	_, ok := s.Date()
	assert.False(t, ok)
	_, ok = s.Time()
	assert.False(t, ok)
}
