package stats

import (
	"time"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/utils"
)

// DayPoint is one day of a weekly chart series.
type DayPoint struct {
	Date      time.Time `json:"date"`
	Expected  int       `json:"expected"`
	Completed int       `json:"completed"`
}

// WeeklyReport aggregates one Monday-to-Sunday week.
type WeeklyReport struct {
	WeekStart        time.Time  `json:"week_start"`
	Days             []DayPoint `json:"days"`
	TotalHabits      int        `json:"total_habits"`
	TotalCompletions int        `json:"total_completions"`
	CompletionRate   float64    `json:"completion_rate"`
}

// HabitWeekRow marks which days of the week a habit was completed on.
type HabitWeekRow struct {
	Habit     models.Habit                   `json:"habit"`
	Days      [constants.DaysPerWeek]bool    `json:"days"`
	Values    [constants.DaysPerWeek]float64 `json:"values"`
	Completed int                            `json:"completed"`
}

// ComputeWeeklySeries builds the 7-day series for weekStart's week. Only
// habits belonging to that week count, and only their logs inside the week.
func ComputeWeeklySeries(habits []models.Habit, logs []models.HabitLog, weekStart time.Time, loc *time.Location) WeeklyReport {
	start := utils.WeekStart(weekStart, loc)
	weekHabits := habitsInWeek(habits, start, loc)

	ids := make(map[string]bool, len(weekHabits))
	for _, h := range weekHabits {
		ids[h.ID] = true
	}

	report := WeeklyReport{
		WeekStart:   start,
		Days:        make([]DayPoint, 0, constants.DaysPerWeek),
		TotalHabits: len(weekHabits),
	}
	for _, d := range utils.WeekDays(start, loc) {
		report.Days = append(report.Days, DayPoint{Date: d, Expected: len(weekHabits)})
	}

	for _, l := range logs {
		if !ids[l.HabitID] || !utils.InWeek(l.Date, start, loc) {
			continue
		}
		idx := utils.DaysBetween(start, l.Date, loc)
		report.Days[idx].Completed++
		report.TotalCompletions++
	}

	if len(weekHabits) > 0 {
		possible := float64(len(weekHabits) * constants.DaysPerWeek)
		report.CompletionRate = round2(float64(report.TotalCompletions) / possible * 100)
	}
	return report
}

// HabitWeekGrid returns one row per habit of weekStart's week, in input order.
func HabitWeekGrid(habits []models.Habit, logs []models.HabitLog, weekStart time.Time, loc *time.Location) []HabitWeekRow {
	start := utils.WeekStart(weekStart, loc)
	weekHabits := habitsInWeek(habits, start, loc)

	rows := make([]HabitWeekRow, 0, len(weekHabits))
	index := make(map[string]int, len(weekHabits))
	for _, h := range weekHabits {
		index[h.ID] = len(rows)
		rows = append(rows, HabitWeekRow{Habit: h})
	}

	for _, l := range logs {
		i, ok := index[l.HabitID]
		if !ok || !utils.InWeek(l.Date, start, loc) {
			continue
		}
		d := utils.DaysBetween(start, l.Date, loc)
		rows[i].Values[d] += l.CompletedValue
	}
	for i := range rows {
		for d, v := range rows[i].Values {
			if v > 0 {
				rows[i].Days[d] = true
				rows[i].Completed++
			}
		}
	}
	return rows
}

func habitsInWeek(habits []models.Habit, start time.Time, loc *time.Location) []models.Habit {
	key := start.Format(constants.DateFormat)
	var out []models.Habit
	for _, h := range habits {
		ws, err := utils.ParseWeekStart(h.WeekStartDate, loc)
		if err != nil {
			continue
		}
		if ws.Format(constants.DateFormat) == key {
			out = append(out, h)
		}
	}
	return out
}
