package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tune-guesser/internal/db"
	"tune-guesser/internal/game"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPersistQueueSize = 256

// StatusDetails carries what a status change records besides the status.
type StatusDetails struct {
	TotalRounds int
	EndedAt     time.Time
	Leaderboard []game.LeaderboardEntry
	Reason      string
}

type recordJob struct {
	name   string
	gameID string
	run    func(conn *gorm.DB) error
}

// Recorder mirrors game activity into the database on a single background
// worker. Writes are best effort: a full queue drops the write and failures
// are only logged. A Recorder without a connection does nothing.
type Recorder struct {
	conn *gorm.DB
	jobs chan recordJob
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	// game code -> row id of the live game using it; worker-owned.
	gameIDs map[string]uint
}

func NewRecorder(conn *gorm.DB, queueSize int) *Recorder {
	if conn == nil {
		return &Recorder{closed: true}
	}
	if queueSize <= 0 {
		queueSize = defaultPersistQueueSize
	}
	r := &Recorder{
		conn:    conn,
		jobs:    make(chan recordJob, queueSize),
		done:    make(chan struct{}),
		gameIDs: make(map[string]uint),
	}
	go r.work()
	return r
}

// Close stops accepting writes and waits for queued ones to finish.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) RecordGameCreated(gameID, hostID string, difficulty game.Difficulty, at time.Time) {
	r.enqueue("game_created", gameID, func(conn *gorm.DB) error {
		record := db.Game{
			Code:       gameID,
			HostID:     hostID,
			Status:     string(game.StatusLobby),
			Difficulty: string(difficulty),
			CreatedAt:  at,
		}
		if err := conn.Create(&record).Error; err != nil {
			return err
		}
		r.gameIDs[gameID] = record.ID
		return r.event(conn, record.ID, nil, 0, "game_created", EventPayload{
			GameID:     gameID,
			Difficulty: string(difficulty),
		})
	})
}

func (r *Recorder) RecordPlayerJoined(gameID string, player game.Player, at time.Time) {
	r.enqueue("player_joined", gameID, func(conn *gorm.DB) error {
		id, err := r.gameRowID(conn, gameID)
		if err != nil {
			return err
		}
		record := db.Player{
			ID:       player.ID,
			GameID:   id,
			Name:     player.Name,
			JoinedAt: at,
		}
		if err := conn.Create(&record).Error; err != nil && !db.IsUniqueViolation(err) {
			return err
		}
		playerID := player.ID
		return r.event(conn, id, &playerID, 0, "player_joined", EventPayload{
			PlayerID:   player.ID,
			PlayerName: player.Name,
		})
	})
}

func (r *Recorder) RecordGameStatusChanged(gameID string, status game.Status, details StatusDetails) {
	r.enqueue("status_changed", gameID, func(conn *gorm.DB) error {
		id, err := r.gameRowID(conn, gameID)
		if err != nil {
			return err
		}
		err = conn.Transaction(func(tx *gorm.DB) error {
			updates := map[string]any{"status": string(status)}
			if details.TotalRounds > 0 {
				updates["total_rounds"] = details.TotalRounds
			}
			if !details.EndedAt.IsZero() {
				updates["ended_at"] = details.EndedAt
			}
			if err := tx.Model(&db.Game{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
			for _, entry := range details.Leaderboard {
				if err := tx.Model(&db.Player{}).Where("id = ?", entry.ID).Updates(map[string]any{
					"score":           entry.Score,
					"correct_guesses": entry.CorrectGuesses,
				}).Error; err != nil {
					return err
				}
			}
			return r.event(tx, id, nil, 0, "status_changed", EventPayload{
				Status:      string(status),
				TotalRounds: details.TotalRounds,
				Reason:      details.Reason,
			})
		})
		if err != nil {
			return err
		}
		if status == game.StatusFinished {
			delete(r.gameIDs, gameID)
		}
		return nil
	})
}

func (r *Recorder) RecordGuess(gameID string, round int, result game.GuessResult) {
	r.enqueue("guess_submitted", gameID, func(conn *gorm.DB) error {
		id, err := r.gameRowID(conn, gameID)
		if err != nil {
			return err
		}
		playerID := result.PlayerID
		return r.event(conn, id, &playerID, round, "guess_submitted", EventPayload{
			PlayerID:    result.PlayerID,
			Guess:       result.Guess,
			Correct:     result.Correct,
			Points:      result.Points,
			NewScore:    result.NewScore,
			ArtistScore: result.Score.Artist,
			TrackScore:  result.Score.Track,
			Elapsed:     result.Elapsed,
		})
	})
}

func (r *Recorder) enqueue(name, gameID string, run func(conn *gorm.DB) error) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.jobs <- recordJob{name: name, gameID: gameID, run: run}:
		return true
	default:
		log.Printf("persist queue full, dropping write=%s game_id=%s", name, gameID)
		return false
	}
}

func (r *Recorder) work() {
	defer close(r.done)
	for job := range r.jobs {
		if err := r.runJob(job); err != nil {
			log.Printf("persist failed write=%s game_id=%s error=%v", job.name, job.gameID, err)
		}
	}
}

func (r *Recorder) runJob(job recordJob) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return job.run(r.conn)
}

// gameRowID finds the row of the live game using code, falling back to the
// newest row with that code.
func (r *Recorder) gameRowID(conn *gorm.DB, code string) (uint, error) {
	if id, ok := r.gameIDs[code]; ok {
		return id, nil
	}
	var record db.Game
	err := conn.Select("id").Where("code = ?", code).Order("created_at DESC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("game %s not recorded", code)
	}
	if err != nil {
		return 0, err
	}
	r.gameIDs[code] = record.ID
	return record.ID, nil
}

func (r *Recorder) event(conn *gorm.DB, gameID uint, playerID *string, round int, eventType string, payload EventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.Create(&db.Event{
		GameID:   gameID,
		PlayerID: playerID,
		Round:    round,
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}).Error
}
