package timeutil

import (
	"time"

	"github.com/markusmobius/go-dateparser"
)

// FromStr parses a natural language date string such as "20 mins ago" or
// "yesterday 9am" relative to the current time.
func FromStr(s string) (time.Time, error) {
	cfg := &dateparser.Configuration{
		CurrentTime: time.Now(),
	}

	d, err := dateparser.Parse(cfg, s)
	if err != nil {
		return time.Time{}, err
	}

	return d.Time, nil
}
