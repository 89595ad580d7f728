package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2026-10-12": "2026-10-12", // Monday
		"2026-10-14": "2026-10-12",
		"2026-10-18": "2026-10-12", // Sunday belongs to the week before
		"2026-10-19": "2026-10-19",
		"2027-01-01": "2026-12-28", // crosses the year
	}
	for in, want := range cases {
		d, err := ParseDate(in)
		require.NoError(t, err)
		assert.Equal(t, want, d.WeekStart().String(), in)
	}
}

func TestDateOf_UsesZone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	instant := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-18", DateOf(instant, time.UTC).String())
	assert.Equal(t, "2026-10-19", DateOf(instant, kolkata).String())
}

func TestArithmetic(t *testing.T) {
	d := NewDate(2026, 3, 1)
	assert.Equal(t, "2026-02-28", d.AddDays(-1).String())
	assert.Equal(t, 1, d.DaysSince(d.AddDays(-1)))
	assert.Equal(t, -3, d.DaysSince(d.AddDays(3)))
	assert.True(t, d.AddDays(-1).Before(d))
	assert.Equal(t, d.Ordinal()+1, d.AddDays(1).Ordinal())
}

func TestScanValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2026-10-18"))
	assert.Equal(t, NewDate(2026, 10, 18), d)

	require.NoError(t, d.Scan([]byte("2026-10-17T00:00:00Z")))
	assert.Equal(t, NewDate(2026, 10, 17), d)

	require.NoError(t, d.Scan(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-01-02", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(2026, 10, 18).Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", v)

	assert.Error(t, d.Scan(42))
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
		Z Date `json:"z"`
	}{D: NewDate(2026, 10, 18)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2026-10-18","z":null}`, string(b))

	var out struct{ D Date }
	require.NoError(t, json.Unmarshal([]byte(`{"D":"2026-10-12"}`), &out))
	assert.Equal(t, NewDate(2026, 10, 12), out.D)
}

func TestFixedClock(t *testing.T) {
	c := FixedClock(time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, "2026-10-18", c.Today().String())
}
