package constants

const (
	// DaysPerWeek is the number of days in a habit's week; weeks start on Monday.
	DaysPerWeek = 7

	// StreakHorizonDays caps how far back the current streak is searched.
	StreakHorizonDays = 365

	// CompletionWindowDays is the trailing window used for the completion rate.
	CompletionWindowDays = 30

	// DefaultCompletedValue is recorded when a habit is marked without an explicit value.
	DefaultCompletedValue = 1.0

	// Default habit presentation
	DefaultHabitColor = "#2196F3"
	DefaultHabitIcon  = "🎯"
)
