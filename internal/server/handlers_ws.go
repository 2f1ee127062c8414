package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tune-guesser/internal/game"
)

const trackLookupTimeout = 10 * time.Second

type wsHandler struct {
	action string
	fn     func(s *Server, client *wsClient, data json.RawMessage) error
}

var wsHandlers = map[string]wsHandler{
	eventCreateGame:  {action: "create game", fn: (*Server).wsCreateGame},
	eventJoinGame:    {action: "join game", fn: (*Server).wsJoinGame},
	eventAddTrack:    {action: "add track", fn: (*Server).wsAddTrack},
	eventSetReady:    {action: "update ready status", fn: (*Server).wsSetReady},
	eventStartGame:   {action: "start game", fn: (*Server).wsStartGame},
	eventSubmitGuess: {action: "submit guess", fn: (*Server).wsSubmitGuess},
	eventNextRound:   {action: "advance round", fn: (*Server).wsNextRound},
	eventLeaveGame:   {action: "leave game", fn: (*Server).wsLeaveGame},
}

func (s *Server) dispatch(client *wsClient, msg wsMessage) {
	handler, ok := s.handlers[msg.Type]
	if !ok {
		s.sendError(client.id, "Unknown event: "+msg.Type)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ws handler panic event=%s conn_id=%s panic=%v", msg.Type, client.id, r)
			s.sendError(client.id, "Failed to "+handler.action+". Please try again.")
		}
	}()
	if err := handler.fn(s, client, msg.Data); err != nil {
		if game.CodeOf(err) == "" {
			log.Printf("ws handler failed event=%s conn_id=%s error=%v", msg.Type, client.id, err)
		}
		s.sendError(client.id, userMessage(err, handler.action))
	}
}

func (s *Server) wsCreateGame(client *wsClient, data json.RawMessage) error {
	var req createGamePayload
	if err := bindPayload(data, &req, bindMessages{
		"Difficulty": {"difficulty": "Difficulty must be easy, medium or hard."},
	}, "Invalid game settings."); err != nil {
		return err
	}
	difficulty := game.ParseDifficulty(req.Difficulty)
	seat, err := s.games.CreateGame(client.id, difficulty)
	if err != nil {
		return err
	}
	if seat.Previous != nil {
		s.departed(client.id, *seat.Previous)
	}
	gameID, hostID := seat.GameID, seat.PlayerID
	s.ws.Join(gameID, client.id)
	log.Printf("game created game_id=%s host_id=%s difficulty=%s", gameID, hostID, difficulty)
	s.recorder.RecordGameCreated(gameID, hostID, difficulty, s.now())
	s.ws.Send(client.id, eventGameCreated, gameCreatedEvent{GameID: gameID, HostID: hostID})
	return nil
}

func (s *Server) wsJoinGame(client *wsClient, data json.RawMessage) error {
	var req joinGamePayload
	if err := bindPayload(data, &req, bindMessages{
		"PlayerName": {"name": "Player name must be 1-20 letters, numbers or punctuation."},
	}, "Game ID and Player Name are required."); err != nil {
		return err
	}
	name, _ := validateName(req.PlayerName)

	seat, err := s.games.JoinGame(req.GameID, name, client.id)
	if err != nil {
		return err
	}
	if seat.Previous != nil {
		s.departed(client.id, *seat.Previous)
	}
	player, roster := seat.Player, seat.Players
	s.ws.Join(req.GameID, client.id)
	log.Printf("player joined game_id=%s player_id=%s players=%d", req.GameID, player.ID, len(roster))
	s.recorder.RecordPlayerJoined(req.GameID, player, s.now())
	s.ws.Send(client.id, eventPlayerJoined, playerJoinedEvent{
		PlayerID: player.ID,
		GameID:   req.GameID,
		Players:  roster,
		Player:   player,
	})
	s.ws.Broadcast(req.GameID, eventPlayerListUpdate, playersEvent{Players: roster}, client.id)
	return nil
}

func (s *Server) wsAddTrack(client *wsClient, data json.RawMessage) error {
	var req addTrackPayload
	if err := bindPayload(data, &req, nil, "Game ID, Track, and Player ID are required."); err != nil {
		return err
	}
	if err := s.authorize(client.id, req.GameID, req.PlayerID); err != nil {
		return err
	}
	track, err := s.resolveTrack(req)
	if err != nil {
		return err
	}
	return s.games.Update(req.GameID, func(g *game.Game) error {
		pool, err := g.AddTrack(track, req.PlayerID)
		if err != nil {
			return err
		}
		log.Printf("track added game_id=%s player_id=%s track_id=%s tracks=%d", g.ID, req.PlayerID, track.ID, len(pool))
		s.ws.Broadcast(g.ID, eventTrackAdded, tracksEvent{Tracks: pool}, "")
		return nil
	})
}

// resolveTrack uses the submitted track when it is complete and asks the
// catalog otherwise.
func (s *Server) resolveTrack(req addTrackPayload) (game.Track, error) {
	id := req.TrackID
	if req.Track != nil {
		if req.Track.ID != "" && req.Track.Name != "" && req.Track.PreviewURL != "" && len(req.Track.Artists) > 0 {
			return *req.Track, nil
		}
		if req.Track.ID != "" {
			id = req.Track.ID
		}
	}
	if id == "" {
		return game.Track{}, requestError("Game ID, Track, and Player ID are required.")
	}
	ctx, cancel := context.WithTimeout(context.Background(), trackLookupTimeout)
	defer cancel()
	return s.catalog.Track(ctx, id)
}

func (s *Server) wsSetReady(client *wsClient, data json.RawMessage) error {
	var req setReadyPayload
	if err := bindPayload(data, &req, nil, "Game ID and Player ID are required."); err != nil {
		return err
	}
	if err := s.authorize(client.id, req.GameID, req.PlayerID); err != nil {
		return err
	}
	var outcome roundOutcome
	err := s.games.Update(req.GameID, func(g *game.Game) error {
		ready, err := g.SetReady(req.PlayerID, *req.IsReady)
		if err != nil {
			return err
		}
		s.ws.Broadcast(g.ID, eventReadyPlayersUpdate, readyPlayersEvent{ReadyPlayers: ready}, "")
		if !g.ShouldAutoStart() {
			return nil
		}
		log.Printf("game auto-starting game_id=%s players=%d", g.ID, len(g.Players))
		outcome, err = s.startLocked(g)
		return err
	})
	if err != nil {
		return err
	}
	s.afterRound(req.GameID, outcome)
	return nil
}

func (s *Server) wsStartGame(client *wsClient, data json.RawMessage) error {
	var req gamePayload
	if err := bindPayload(data, &req, nil, "Game ID is required."); err != nil {
		return err
	}
	if err := s.authorize(client.id, req.GameID, ""); err != nil {
		return err
	}
	var outcome roundOutcome
	err := s.games.Update(req.GameID, func(g *game.Game) error {
		var err error
		outcome, err = s.startLocked(g)
		return err
	})
	if err != nil {
		return err
	}
	s.afterRound(req.GameID, outcome)
	return nil
}

func (s *Server) wsNextRound(client *wsClient, data json.RawMessage) error {
	var req gamePayload
	if err := bindPayload(data, &req, nil, "Game ID is required."); err != nil {
		return err
	}
	if err := s.authorize(client.id, req.GameID, ""); err != nil {
		return err
	}
	var outcome roundOutcome
	err := s.games.Update(req.GameID, func(g *game.Game) error {
		var err error
		outcome, err = s.advanceLocked(g)
		return err
	})
	if err != nil {
		return err
	}
	s.afterRound(req.GameID, outcome)
	return nil
}

func (s *Server) wsSubmitGuess(client *wsClient, data json.RawMessage) error {
	var req submitGuessPayload
	if err := bindPayload(data, &req, bindMessages{
		"Guess": {"guess": "Guess must be 1-100 printable characters."},
	}, "Game ID, Player ID, and Guess are required."); err != nil {
		return err
	}
	if err := s.authorize(client.id, req.GameID, req.PlayerID); err != nil {
		return err
	}
	guess, _ := validateGuess(req.Guess)
	return s.games.Update(req.GameID, func(g *game.Game) error {
		result, err := g.SubmitGuess(req.PlayerID, guess, s.now())
		if err != nil {
			return err
		}
		log.Printf("guess scored game_id=%s player_id=%s round=%d total=%.2f points=%d", g.ID, req.PlayerID, g.CurrentRound, result.Score.Total, result.Points)
		s.recorder.RecordGuess(g.ID, g.CurrentRound, result)
		s.ws.Send(client.id, eventGuessResult, result)
		s.ws.Broadcast(g.ID, eventLeaderboardUpdate, leaderboardEvent{Leaderboard: g.Leaderboard()}, "")
		if g.AllGuessed() {
			s.scheduler.Cancel(g.ID)
			s.revealLocked(g, g.CurrentRound)
		}
		return nil
	})
}

func (s *Server) wsLeaveGame(client *wsClient, data json.RawMessage) error {
	var req leaveGamePayload
	if err := bindPayload(data, &req, nil, "Game ID and Player ID are required."); err != nil {
		return err
	}
	if err := s.authorize(client.id, req.GameID, req.PlayerID); err != nil {
		return err
	}
	s.leave(client.id)
	return nil
}

// authorize checks that the connection is seated in gameID, and as playerID
// when one is given.
func (s *Server) authorize(clientID, gameID, playerID string) error {
	conn, ok := s.games.Connection(clientID)
	if !ok || conn.GameID != gameID {
		if s.games.Exists(gameID) {
			return &game.Error{Code: game.CodeNotFound, Message: "You are not part of this game"}
		}
		return &game.Error{Code: game.CodeNotFound, Message: "Game not found"}
	}
	if playerID != "" && conn.PlayerID != playerID {
		return &game.Error{Code: game.CodeNotFound, Message: "Player not found"}
	}
	return nil
}

// leave releases whatever seat the connection holds.
func (s *Server) leave(clientID string) {
	if departure, ok := s.games.RemoveByConnection(clientID); ok {
		s.departed(clientID, departure)
	}
}

// departed tells the rest of the room about a released seat. A departing host
// ends the game for everyone.
func (s *Server) departed(clientID string, departure game.Departure) {
	s.ws.Leave(departure.GameID, clientID)
	if departure.GameEnded {
		s.scheduler.Cancel(departure.GameID)
		log.Printf("game ended game_id=%s reason=host_left", departure.GameID)
		s.ws.Broadcast(departure.GameID, eventGameEnded, messageEvent{Message: "Game ended by host."}, "")
		s.ws.CloseRoom(departure.GameID)
		s.recorder.RecordGameStatusChanged(departure.GameID, game.StatusFinished, StatusDetails{
			EndedAt: s.now(),
			Reason:  "host_left",
		})
		return
	}
	log.Printf("player left game_id=%s player_id=%s players=%d", departure.GameID, departure.PlayerID, len(departure.Players))
	s.ws.Broadcast(departure.GameID, eventPlayerListUpdate, playersEvent{Players: departure.Players}, "")
	_ = s.games.Update(departure.GameID, func(g *game.Game) error {
		if g.AllGuessed() {
			s.scheduler.Cancel(g.ID)
			s.revealLocked(g, g.CurrentRound)
		}
		return nil
	})
}
