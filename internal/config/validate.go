package config

import (
	"regexp"

	"github.com/dfilippo/lavoro/internal/models"
)

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := c.validateDefaults(); err != nil {
		return err
	}

	return c.validateSync()
}

func (c *Config) validateDefaults() error {
	if !models.RoundingRule(c.Defaults.Rounding).Valid() {
		return errInvalidRounding.Fmt(c.Defaults.Rounding, models.RoundingRules)
	}

	if !currencyRegex.MatchString(c.Defaults.Currency) {
		return errInvalidCurrency.Fmt(c.Defaults.Currency)
	}

	if c.Defaults.BreakMinutes < 0 {
		return errNegativeBreak.Fmt(c.Defaults.BreakMinutes)
	}

	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Enabled && c.Sync.Bucket == "" {
		return errMissingBucket
	}

	return nil
}
