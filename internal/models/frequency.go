package models

import (
	"fmt"
	"math"
)

type ChangeFrequency string

const (
	ChangeAlways  ChangeFrequency = "always"
	ChangeHourly  ChangeFrequency = "hourly"
	ChangeDaily   ChangeFrequency = "daily"
	ChangeWeekly  ChangeFrequency = "weekly"
	ChangeMonthly ChangeFrequency = "monthly"
	ChangeYearly  ChangeFrequency = "yearly"
	ChangeNever   ChangeFrequency = "never"
)

// ChangeFrequencies lists every value the sitemap protocol accepts.
var ChangeFrequencies = []ChangeFrequency{
	ChangeAlways, ChangeHourly, ChangeDaily, ChangeWeekly, ChangeMonthly, ChangeYearly, ChangeNever,
}

func (f ChangeFrequency) IsValid() bool {
	for _, v := range ChangeFrequencies {
		if f == v {
			return true
		}
	}
	return false
}

func ParseChangeFrequency(s string) (ChangeFrequency, error) {
	f := ChangeFrequency(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid change frequency %q: must be one of %v", s, ChangeFrequencies)
	}
	return f, nil
}

// ValidatePriority checks that p lies in [0, 1].
func ValidatePriority(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("invalid priority %v: priority must be between 0 and 1", p)
	}
	return nil
}
