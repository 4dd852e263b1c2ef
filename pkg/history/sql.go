package history

import (
	"database/sql"
	"time"

	"podracer/pkg/model"
)

const resultFields = "raceid, track, playerid, player, place, racers, winner, finishedat"

func buildCreateResultsTable() string {
	return `CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		raceid INTEGER NOT NULL,
		track TEXT NOT NULL,
		playerid INTEGER NOT NULL,
		player TEXT NOT NULL,
		place INTEGER NOT NULL,
		racers INTEGER NOT NULL,
		winner TEXT NOT NULL,
		finishedat INTEGER NOT NULL);`
}

func buildInsertResultCommand(r model.Result) (string, []any) {
	return `INSERT INTO results (` + resultFields + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		[]any{r.RaceID, r.TrackName, r.PlayerID, r.PlayerName, r.Place, r.Racers, r.Winner, r.FinishedAt.UnixMilli()}
}

func buildSelectRecentCommand(limit int) (string, []any, func(*sql.Rows) ([]model.Result, error)) {
	return `SELECT ` + resultFields + ` FROM results ORDER BY finishedat DESC, id DESC LIMIT ?`,
		[]any{limit}, processResultRows
}

func buildSelectStatsCommand(playerID int) (string, []any) {
	return `SELECT COUNT(*), COALESCE(SUM(CASE WHEN place = 1 THEN 1 ELSE 0 END), 0) FROM results WHERE playerid = ?`,
		[]any{playerID}
}

func processResultRows(rows *sql.Rows) ([]model.Result, error) {
	defer rows.Close()

	results := make([]model.Result, 0)
	for rows.Next() {
		var r model.Result
		var finishedAt int64
		err := rows.Scan(&r.RaceID, &r.TrackName, &r.PlayerID, &r.PlayerName, &r.Place, &r.Racers, &r.Winner, &finishedAt)
		if err != nil {
			return results, err
		}
		r.FinishedAt = time.UnixMilli(finishedAt).UTC()
		results = append(results, r)
	}
	return results, rows.Err()
}
