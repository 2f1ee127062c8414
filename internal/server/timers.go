package server

import (
	"errors"
	"log"

	"tune-guesser/internal/game"
)

var errRoundClosed = errors.New("round already closed")

// roundOutcome is what a start or advance left behind once the game lock is
// released.
type roundOutcome struct {
	finished bool
}

// startLocked starts g and opens its first round. The caller holds the game
// lock.
func (s *Server) startLocked(g *game.Game) (roundOutcome, error) {
	if err := g.Start(nil); err != nil {
		return roundOutcome{}, err
	}
	log.Printf("game started game_id=%s rounds=%d", g.ID, g.TotalRounds)
	s.recorder.RecordGameStatusChanged(g.ID, game.StatusPlaying, StatusDetails{TotalRounds: g.TotalRounds})
	if g.TotalRounds > 0 {
		s.ws.Broadcast(g.ID, eventGameStarted, gameStartedEvent{RoundInfo: game.RoundInfo{Current: 1, Total: g.TotalRounds}}, "")
	}
	return s.advanceLocked(g)
}

// advanceLocked moves g to its next round, or finishes it when none is left.
// Round events go out while the lock is held so they cannot interleave with
// another transition of the same game.
func (s *Server) advanceLocked(g *game.Game) (roundOutcome, error) {
	var lastTrack *game.Track
	if g.ActiveTrack != nil {
		track := *g.ActiveTrack
		lastTrack = &track
	}
	now := s.now()
	round, finished, err := g.AdvanceRound(now)
	if err != nil {
		return roundOutcome{}, err
	}
	if finished {
		s.scheduler.Cancel(g.ID)
		board, err := g.Finish(now)
		if err != nil {
			return roundOutcome{}, err
		}
		log.Printf("game finished game_id=%s rounds=%d players=%d", g.ID, g.TotalRounds, len(board))
		s.ws.Broadcast(g.ID, eventGameEnd, gameEndEvent{FinalLeaderboard: board, LastTrack: lastTrack}, "")
		s.recorder.RecordGameStatusChanged(g.ID, game.StatusFinished, StatusDetails{
			TotalRounds: g.TotalRounds,
			EndedAt:     now,
			Leaderboard: board,
			Reason:      "completed",
		})
		return roundOutcome{finished: true}, nil
	}

	log.Printf("round started game_id=%s round=%d/%d", g.ID, round.Info.Current, round.Info.Total)
	s.ws.Broadcast(g.ID, eventNewRound, newRoundEvent{
		Track:     round.Track,
		RoundInfo: round.Info,
		TimeLimit: round.TimeLimit,
		LastTrack: lastTrack,
	}, "")
	s.scheduler.StartWithGrace(g.ID, round.Info.Current, round.TimeLimit, g.Difficulty.GraceSeconds())
	return roundOutcome{}, nil
}

// afterRound runs once the game lock is released. Finished games leave the
// registry here because Remove cannot run inside Update.
func (s *Server) afterRound(gameID string, outcome roundOutcome) {
	if !outcome.finished {
		return
	}
	s.games.Remove(gameID)
	s.ws.CloseRoom(gameID)
}

// revealLocked announces the answer of round once. The caller holds the game
// lock.
func (s *Server) revealLocked(g *game.Game, round int) bool {
	track, ok := g.RevealRound(round)
	if !ok {
		return false
	}
	log.Printf("round revealed game_id=%s round=%d track_id=%s artists=%q", g.ID, round, track.ID, track.ArtistNames())
	s.ws.Broadcast(g.ID, eventRoundComplete, roundCompleteEvent{Track: track, RoundInfo: g.RoundInfo()}, "")
	return true
}

func (s *Server) roundTick(gameID string, round, timeLeft int) {
	s.ws.Broadcast(gameID, eventTimeUpdate, timeUpdateEvent{TimeLeft: timeLeft}, "")
}

// roundExpired reveals the answer once the countdown and any grace window
// have run out.
func (s *Server) roundExpired(gameID string, round int) {
	err := s.games.Update(gameID, func(g *game.Game) error {
		if !s.revealLocked(g, round) {
			return errRoundClosed
		}
		return nil
	})
	if err == nil {
		log.Printf("round expired game_id=%s round=%d", gameID, round)
	}
}
