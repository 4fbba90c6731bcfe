package features

import (
	"time"
)

// holidayWindow is the half-width in days of is_holiday_week
const holidayWindow = 3

func (b *Builder) addCalendarFeatures(p *Panel) {
	n := p.Len()
	flags := map[string][]float64{}
	names := []string{
		ColIsWeekend, ColIsMonday, ColIsFriday, ColIsMemberDay,
		ColIsHoliday, ColIsHolidayWeek,
		ColIsSummer, ColIsWinter, ColIsSpring, ColIsFall,
		ColIsValentine, ColIsChristmasSeason,
	}
	for _, name := range names {
		flags[name] = make([]float64, n)
	}

	holidayCache := make(map[time.Time]bool)
	isHoliday := func(d time.Time) bool {
		if h, ok := holidayCache[d]; ok {
			return h
		}
		actual, observed, _ := b.holidays.IsHoliday(d)
		holidayCache[d] = actual || observed
		return actual || observed
	}

	for i, k := range p.keys {
		d := k.Date
		wd := d.Weekday()
		month := d.Month()

		flags[ColIsWeekend][i] = indicator(wd == time.Saturday || wd == time.Sunday)
		flags[ColIsMonday][i] = indicator(wd == time.Monday)
		flags[ColIsFriday][i] = indicator(wd == time.Friday)
		flags[ColIsMemberDay][i] = indicator(wd == time.Wednesday)

		flags[ColIsHoliday][i] = indicator(isHoliday(d))
		week := false
		for off := -holidayWindow; off <= holidayWindow && !week; off++ {
			week = isHoliday(d.AddDate(0, 0, off))
		}
		flags[ColIsHolidayWeek][i] = indicator(week)

		flags[ColIsSummer][i] = indicator(month >= time.June && month <= time.August)
		flags[ColIsWinter][i] = indicator(month == time.December || month <= time.February)
		flags[ColIsSpring][i] = indicator(month >= time.March && month <= time.May)
		flags[ColIsFall][i] = indicator(month >= time.September && month <= time.November)

		flags[ColIsValentine][i] = indicator(month == time.February && d.Day() == 14)
		flags[ColIsChristmasSeason][i] = indicator(month == time.December && d.Day() >= 15)
	}

	for _, name := range names {
		p.add(name, flags[name])
	}
}
