package models

// Snapshot is the complete state of all entities at one point in time.
// Slices are owned by the snapshot and must not be modified after creation.
type Snapshot struct {
	Habits        []Habit
	HabitLogs     []HabitLog
	TimerSessions []TimerSession
}

// IsEmpty reports whether the snapshot holds no entities
func (s Snapshot) IsEmpty() bool {
	return len(s.Habits) == 0 && len(s.HabitLogs) == 0 && len(s.TimerSessions) == 0
}
