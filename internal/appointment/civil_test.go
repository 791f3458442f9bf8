package appointment

import (
	"encoding/json"
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
		{in: "09:00", want: NewTimeOfDay(9, 0)},
		{in: "10:30", want: NewTimeOfDay(10, 30)},
		{in: "00:00", want: 0},
		{in: "24:00", want: EndOfDay},
		{in: "24:01", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "0900", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestOverlaps(t *testing.T) {
	nine, ten, tenThirty, eleven := NewTimeOfDay(9, 0), NewTimeOfDay(10, 0), NewTimeOfDay(10, 30), NewTimeOfDay(11, 0)

	assert.True(t, Overlaps(nine, tenThirty, NewTimeOfDay(9, 30), ten), "contained")
	assert.True(t, Overlaps(nine, tenThirty, ten, eleven), "partial")
	assert.False(t, Overlaps(nine, ten, ten, eleven), "touching ends do not overlap")
	assert.False(t, Overlaps(tenThirty, eleven, nine, ten), "disjoint")
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2025-01-06")
	require.NoError(t, err)

	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2025-01-07", d.AddDays(1).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.Equal(t, NewDate(2025, time.February, 1), NewDate(2025, time.January, 32))

	_, err = ParseDate("06/01/2025")
	assert.Error(t, err)
}

func TestCivilJSON(t *testing.T) {
	type payload struct {
		Date  Date      `json:"date"`
		Start TimeOfDay `json:"start"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-01-07","start":"11:00"}`), &p))
	assert.Equal(t, NewDate(2025, time.January, 7), p.Date)
	assert.Equal(t, NewTimeOfDay(11, 0), p.Start)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-01-07","start":"11:00"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"25:00"}`), &p))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "upcoming", StatusScheduled.Label(RolePatient))
	assert.Equal(t, "upcoming", StatusScheduled.Label(RoleDoctor))
	assert.Equal(t, "scheduled", StatusScheduled.Label(RoleAdmin))
	assert.Equal(t, "cancelled", StatusCancelled.Label(RolePatient))
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusScheduled.Terminal())
	assert.False(t, Status("upcoming").Valid())
}
