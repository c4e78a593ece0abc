package timeutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/internal/timeutil"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}

	return parsed
}

func TestRoundInstant(t *testing.T) {
	cases := []struct {
		name string
		in   string
		rule models.RoundingRule
		want string
	}{
		{
			name: "off is a no-op",
			in:   "2025-01-06T09:07:33Z",
			rule: models.RoundingOff,
			want: "2025-01-06T09:07:33Z",
		},
		{
			name: "nearest5 rounds down",
			in:   "2025-01-06T09:02:29Z",
			rule: models.RoundingNearest5,
			want: "2025-01-06T09:00:00Z",
		},
		{
			name: "nearest5 rounds up",
			in:   "2025-01-06T09:02:31Z",
			rule: models.RoundingNearest5,
			want: "2025-01-06T09:05:00Z",
		},
		{
			name: "nearest15 rounds down",
			in:   "2025-01-06T12:47:00Z",
			rule: models.RoundingNearest15,
			want: "2025-01-06T12:45:00Z",
		},
		{
			name: "nearest30 rounds up",
			in:   "2025-01-06T09:16:00Z",
			rule: models.RoundingNearest30,
			want: "2025-01-06T09:30:00Z",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := timeutil.RoundInstant(mustTime(t, tc.in), tc.rule)

			assert.True(
				t,
				got.Equal(mustTime(t, tc.want)),
				"got %v, want %v",
				got,
				tc.want,
			)
		})
	}
}

func TestRoundInstantIdempotent(t *testing.T) {
	start := mustTime(t, "2025-01-06T00:00:00Z")

	for _, rule := range models.RoundingRules {
		for i := 0; i < 500; i++ {
			instant := start.Add(time.Duration(i) * 97 * time.Second)

			once := timeutil.RoundInstant(instant, rule)
			twice := timeutil.RoundInstant(once, rule)

			if !twice.Equal(once) {
				t.Fatalf(
					"rounding %v with %s is not idempotent: %v != %v",
					instant,
					rule,
					once,
					twice,
				)
			}
		}
	}
}

func TestPayableMinutes(t *testing.T) {
	cases := []struct {
		name         string
		start        string
		end          string
		breakMinutes int
		rule         models.RoundingRule
		want         int
	}{
		{
			name:  "plain hour without rounding",
			start: "2025-01-06T09:00:00Z",
			end:   "2025-01-06T10:00:00Z",
			rule:  models.RoundingOff,
			want:  60,
		},
		{
			name:         "nearest15 with half hour break",
			start:        "2025-01-06T09:00:00Z",
			end:          "2025-01-06T12:47:00Z",
			breakMinutes: 30,
			rule:         models.RoundingNearest15,
			want:         195,
		},
		{
			name:         "break exceeding duration clamps to zero",
			start:        "2025-01-06T09:00:00Z",
			end:          "2025-01-06T09:20:00Z",
			breakMinutes: 45,
			rule:         models.RoundingOff,
			want:         0,
		},
		{
			name:         "negative break is ignored",
			start:        "2025-01-06T09:00:00Z",
			end:          "2025-01-06T09:30:00Z",
			breakMinutes: -10,
			rule:         models.RoundingOff,
			want:         30,
		},
		{
			name:  "short interval collapsing to the same step yields zero",
			start: "2025-01-06T09:08:00Z",
			end:   "2025-01-06T09:11:00Z",
			rule:  models.RoundingNearest15,
			want:  0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := timeutil.PayableMinutes(
				mustTime(t, tc.start),
				mustTime(t, tc.end),
				tc.breakMinutes,
				tc.rule,
			)

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPayableMinutesNeverNegative(t *testing.T) {
	start := mustTime(t, "2025-01-06T09:00:00Z")

	for _, rule := range models.RoundingRules {
		for i := 0; i < 200; i++ {
			end := start.Add(time.Duration(i) * 41 * time.Second)

			for _, breakMin := range []int{0, 7, 60, 1000} {
				got := timeutil.PayableMinutes(start, end, breakMin, rule)
				if got < 0 {
					t.Fatalf(
						"payable minutes is negative (%d) for end=%v break=%d rule=%s",
						got,
						end,
						breakMin,
						rule,
					)
				}
			}
		}
	}
}

func TestSessionMinutes(t *testing.T) {
	start := mustTime(t, "2025-01-06T09:00:00Z")
	end := mustTime(t, "2025-01-06T11:00:00Z")

	open := models.NewWorkSession(start, nil, models.RoundingOff)
	assert.Equal(t, 0, timeutil.SessionMinutes(open))

	closed := models.NewWorkSession(start, nil, models.RoundingOff)
	closed.End = &end
	assert.Equal(t, 120, timeutil.SessionMinutes(closed))
}

func TestMonthBounds(t *testing.T) {
	start, end := timeutil.MonthBounds(mustTime(t, "2025-02-14T13:00:00Z"))

	assert.Equal(t, "2025-02-01T00:00:00Z", start.Format(time.RFC3339))
	assert.Equal(t, "2025-02-28T23:59:59Z", end.Format(time.RFC3339))
}
