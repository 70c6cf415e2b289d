// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// UpsertInitialMatchState stores the deal snapshot (deck order, starting
// hands) into matches.initial_match_state so a replay can reconstruct the
// start of the match. Safe to call with no pool connected.
func UpsertInitialMatchState(ctx context.Context, matchID uuid.UUID, initialData interface{}) {
	if DB == nil {
		return
	}
	dataBytes, err := json.Marshal(initialData)
	if err != nil {
		logrus.WithError(err).WithField("match", matchID).Error("failed to marshal initial match state")
		return
	}
	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO matches (id, status, initial_match_state, start_time)
			VALUES ($1, 'in_progress', $2, NOW())
			ON CONFLICT (id)
			DO UPDATE SET initial_match_state = EXCLUDED.initial_match_state, status='in_progress'
		`
		_, e := tx.Exec(ctx, q, matchID, dataBytes)
		return e
	})
	if err != nil {
		logrus.WithError(err).WithField("match", matchID).Error("failed to upsert initial match state")
	}
}

// StoreFinalMatchState updates matches.final_match_state with JSON containing
// each player's final hand, collection and score plus the winner.
// Safe to call with no pool connected.
func StoreFinalMatchState(ctx context.Context, matchID uuid.UUID, finalSnapshot map[string]interface{}) {
	if DB == nil {
		return
	}
	jsonData, err := json.Marshal(finalSnapshot)
	if err != nil {
		logrus.WithError(err).WithField("match", matchID).Error("failed to marshal final match state")
		return
	}
	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE matches
			SET final_match_state = $1, status = 'completed', end_time = NOW()
			WHERE id = $2
		`
		_, e := tx.Exec(ctx, q, jsonData, matchID)
		return e
	})
	if err != nil {
		logrus.WithError(err).WithField("match", matchID).Error("failed to store final match state")
	}
}

// RecordMatchResults persists one row per seat with its score and win flag.
func RecordMatchResults(ctx context.Context, matchID uuid.UUID, scores map[uuid.UUID]int, winner uuid.UUID) error {
	if DB == nil {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, status)
			VALUES ($1, 'completed')
			ON CONFLICT (id) DO UPDATE SET status = 'completed'
		`
		if _, e := tx.Exec(ctx, upsertMatch, matchID); e != nil {
			return e
		}
		for playerID, score := range scores {
			q := `
				INSERT INTO match_results (match_id, player_id, score, did_win)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (match_id, player_id)
				DO UPDATE SET score=$3, did_win=$4
			`
			if _, e := tx.Exec(ctx, q, matchID, playerID, score, playerID == winner); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert match results: %w", err)
	}
	return nil
}
