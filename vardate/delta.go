package vardate

import "time"

// Delta is a calendar-aware difference between two dates.
type Delta struct {
	Years     int  `json:"years"`
	Months    int  `json:"months"`
	Days      int  `json:"days"`
	TotalDays int  `json:"total_days"`
	IsPrecise bool `json:"is_precise"`
}

// Between computes later - sooner. A nil endpoint stands for today and counts
// as precise; a known endpoint is precise only when all its components are.
func Between(later, sooner *Date, today time.Time) Delta {
	final := Ensure(later, today)
	first := Ensure(sooner, today)

	years, months, days := relative(final, first)

	return Delta{
		Years:     years,
		Months:    months,
		Days:      days,
		TotalDays: daysBetween(final, first),
		IsPrecise: precise(later) && precise(sooner),
	}
}

// Sum adds deltas field by field, carrying whole years out of the month
// total. Days are never carried. The aggregate is always imprecise since
// the intervals may overlap or leave gaps.
func Sum(deltas ...Delta) Delta {
	var out Delta
	for _, d := range deltas {
		out.Years += d.Years
		out.Months += d.Months
		out.Days += d.Days
		out.TotalDays += d.TotalDays
	}

	carry, months := splitMonths(out.Months)
	out.Years += carry
	out.Months = months
	out.IsPrecise = false
	return out
}

func precise(d *Date) bool {
	return d == nil || d.IsPrecise()
}

// relative mirrors dateutil's relativedelta(later, sooner) for dates.
func relative(later, sooner time.Time) (years, months, days int) {
	total := (later.Year()-sooner.Year())*12 + int(later.Month()-sooner.Month())
	shifted := addMonths(sooner, total)

	if later.Before(sooner) {
		for later.After(shifted) {
			total++
			shifted = addMonths(sooner, total)
		}
	} else {
		for later.Before(shifted) {
			total--
			shifted = addMonths(sooner, total)
		}
	}

	years, months = splitMonths(total)
	return years, months, daysBetween(later, shifted)
}

func splitMonths(months int) (int, int) {
	if months > 11 || months < -11 {
		s := sign(months)
		return (months * s) / 12 * s, (months * s) % 12 * s
	}
	return 0, months
}

// addMonths shifts t by n months, clamping the day to the target month.
func addMonths(t time.Time, n int) time.Time {
	idx := t.Year()*12 + int(t.Month()) - 1 + n
	year, month := floorDiv(idx, 12), idx-floorDiv(idx, 12)*12+1

	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysBetween(later, sooner time.Time) int {
	return int((later.Unix() - sooner.Unix()) / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
