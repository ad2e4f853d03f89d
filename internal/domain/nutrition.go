package domain

import (
	"sort"
	"time"
)

// DateLayout is the calendar-day format used by every Date field.
const DateLayout = "2006-01-02"

// FormatDate renders t as a calendar day in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar day.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// DayWindow returns the first and last calendar day of the n days ending
// on the day of end (inclusive on both sides).
func DayWindow(end time.Time, n int) (from, to string) {
	if n < 1 {
		n = 1
	}
	last := end.UTC()
	first := last.AddDate(0, 0, -(n - 1))
	return FormatDate(first), FormatDate(last)
}

// DailyNutrition is one day's logged entries summed into macro totals.
type DailyNutrition struct {
	Date          string  `json:"date"`
	TotalCalories float64 `json:"totalCalories"`
	TotalProtein  float64 `json:"totalProtein"`
	TotalCarbs    float64 `json:"totalCarbs"`
	TotalFat      float64 `json:"totalFat"`
	TotalFiber    float64 `json:"totalFiber"`
	EntryCount    int     `json:"entryCount"`
}

func (d *DailyNutrition) add(e *MealEntry) {
	d.TotalCalories += e.Calories
	d.TotalProtein += e.Protein
	d.TotalCarbs += e.Carbs
	d.TotalFat += e.Fat
	d.TotalFiber += e.Fiber
	d.EntryCount++
}

// AggregateDaily groups entries by Date into one DailyNutrition per
// distinct date, sorted by date ascending.
func AggregateDaily(entries []MealEntry) []DailyNutrition {
	byDate := make(map[string]*DailyNutrition)
	for i := range entries {
		e := &entries[i]
		day, ok := byDate[e.Date]
		if !ok {
			day = &DailyNutrition{Date: e.Date}
			byDate[e.Date] = day
		}
		day.add(e)
	}

	days := make([]DailyNutrition, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// SummarizeDay totals entries for a single date. Entries from other dates
// are ignored; a day without entries yields zero totals.
func SummarizeDay(date string, entries []MealEntry) DailyNutrition {
	day := DailyNutrition{Date: date}
	for i := range entries {
		if entries[i].Date == date {
			day.add(&entries[i])
		}
	}
	return day
}
