package validator

import (
	"strconv"

	"github.com/flame-sim/flame/pkg/model"
)

func (v *Validator) processTimeUnitPeriod(tu *model.TimeUnit) {
	period, err := strconv.Atoi(tu.PeriodRaw)
	if err != nil {
		v.report.Addf(model.ErrInvalidTimeUnit, tu.Name,
			"period number not an integer: %q", tu.PeriodRaw)
		return
	}
	if period < 1 {
		v.report.Addf(model.ErrInvalidTimeUnit, tu.Name,
			"period value is not valid: %d", period)
	}
	tu.Period = period
}

func (v *Validator) processTimeUnitUnit(tu *model.TimeUnit) {
	if tu.Unit == "iteration" {
		return
	}
	for _, other := range v.m.TimeUnits {
		if other != tu && tu.Unit == other.Name {
			return
		}
	}
	v.report.Addf(model.ErrInvalidTimeUnit, tu.Name,
		"time unit unit is not valid: %q", tu.Unit)
}

func (v *Validator) validateTimeUnit(tu *model.TimeUnit, dropped map[*model.TimeUnit]bool) (drop bool) {
	if !nameIsAllowed(tu.Name) {
		v.report.Addf(model.ErrInvalidName, tu.Name,
			"time unit name is not valid")
		return false
	}
	if tu.Name == "iteration" {
		v.report.Addf(model.ErrInvalidTimeUnit, tu.Name,
			"time unit name cannot be 'iteration'")
		return false
	}
	for _, other := range v.m.TimeUnits {
		if other == tu || dropped[other] || tu.Name != other.Name {
			continue
		}
		// An exact duplicate is silently dropped; a conflicting one is
		// an error.
		if tu.Period == other.Period && tu.Unit == other.Unit {
			return true
		}
		v.report.Addf(model.ErrDuplicateName, tu.Name,
			"duplicate time unit name")
		return false
	}
	return false
}

// validateTimeUnits processes unit and period for every time unit, then
// checks names and duplicates. Time units must not recurse onto
// themselves and may not shadow the builtin iteration unit.
func (v *Validator) validateTimeUnits() {
	for _, tu := range v.m.TimeUnits {
		v.processTimeUnitUnit(tu)
		v.processTimeUnitPeriod(tu)
	}

	drop := make(map[*model.TimeUnit]bool)
	for _, tu := range v.m.TimeUnits {
		if v.validateTimeUnit(tu, drop) {
			drop[tu] = true
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := make([]*model.TimeUnit, 0, len(v.m.TimeUnits)-len(drop))
	for _, tu := range v.m.TimeUnits {
		if !drop[tu] {
			kept = append(kept, tu)
		}
	}
	v.m.TimeUnits = kept
}
