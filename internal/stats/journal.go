package stats

import (
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/utils"
)

// JournalDay groups the noted logs of one calendar day.
type JournalDay struct {
	Date    time.Time         `json:"date"`
	Entries []models.HabitLog `json:"entries"`
}

// TimerTotal sums the finished timer sessions of one habit.
type TimerTotal struct {
	HabitID  string  `json:"habit_id"`
	Sessions int     `json:"sessions"`
	Minutes  float64 `json:"minutes"`
}

// Journal returns logs carrying non-blank notes grouped by day, newest day
// first. Entries within a day keep newest-first order as well.
func Journal(logs []models.HabitLog, loc *time.Location) []JournalDay {
	noted := make([]models.HabitLog, 0, len(logs))
	for _, l := range logs {
		if l.Notes != nil && strings.TrimSpace(*l.Notes) != "" {
			noted = append(noted, l)
		}
	}
	slices.SortStableFunc(noted, func(a, b models.HabitLog) int {
		return b.Date.Compare(a.Date)
	})

	var days []JournalDay
	for _, l := range noted {
		if n := len(days); n > 0 && utils.SameDay(days[n-1].Date, l.Date, loc) {
			days[n-1].Entries = append(days[n-1].Entries, l)
			continue
		}
		days = append(days, JournalDay{
			Date:    utils.StartOfDay(l.Date, loc),
			Entries: []models.HabitLog{l},
		})
	}
	return days
}

// TimerTotals sums finished sessions per habit, ordered by first appearance.
// Active sessions are skipped since their duration is not final.
func TimerTotals(sessions []models.TimerSession) []TimerTotal {
	var totals []TimerTotal
	index := make(map[string]int)
	for _, ts := range sessions {
		if ts.IsActive {
			continue
		}
		i, ok := index[ts.HabitID]
		if !ok {
			i = len(totals)
			index[ts.HabitID] = i
			totals = append(totals, TimerTotal{HabitID: ts.HabitID})
		}
		totals[i].Sessions++
		totals[i].Minutes += ts.Duration
	}
	return totals
}
