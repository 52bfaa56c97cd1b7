package service

import "time"

// Skip causes recorded in a RunReport and in metrics.
const (
	CauseExcludedPosition = "excluded_position"
	CauseSeen             = "seen"
	CauseNetwork          = "network"
	CauseMissingField     = "missing_field"
	CauseParse            = "parse"
	CauseZeroGames        = "zero_games"
	CauseNoExamples       = "no_examples"
	CauseEmptyHistory     = "empty_history"
)

// RunReport summarizes one collection run.
type RunReport struct {
	RunID          string         `json:"run_id"`
	Command        string         `json:"command"`
	File           string         `json:"file"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	PlayersSeen    int            `json:"players_seen"`
	PlayersWritten int            `json:"players_written"`
	Skipped        map[string]int `json:"skipped"`
	RowsWritten    int            `json:"rows_written"`
}

func newRunReport(id, command, file string) *RunReport {
	return &RunReport{
		RunID:     id,
		Command:   command,
		File:      file,
		StartedAt: time.Now(),
		Skipped:   map[string]int{},
	}
}

// SkippedTotal is the number of players skipped for any cause.
func (r *RunReport) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}
