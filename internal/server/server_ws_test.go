package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"tune-guesser/internal/game"

	"github.com/gorilla/websocket"
)

func TestWebsocketCreateAndJoin(t *testing.T) {
	_, ts := newTestApp(t, testConfig(), nil)

	host, gameID, _ := hostGame(t, ts, "easy")
	if len(gameID) != 6 {
		t.Fatalf("expected 6 character game id, got %q", gameID)
	}

	first, firstID := joinTestGame(t, ts, gameID, "  Ada   Lovelace ")
	data, _ := waitForEvent(t, host, eventPlayerListUpdate)
	players, _ := data["players"].([]any)
	if len(players) != 1 {
		t.Fatalf("expected 1 player in update, got %v", data["players"])
	}
	player := players[0].(map[string]any)
	if player["id"] != firstID || player["name"] != "Ada Lovelace" || player["role"] != "player" {
		t.Fatalf("unexpected player %v", player)
	}

	joinTestGame(t, ts, gameID, "Grace")
	data, _ = waitForEvent(t, first, eventPlayerListUpdate)
	if players, _ := data["players"].([]any); len(players) != 2 {
		t.Fatalf("expected 2 players, got %v", data["players"])
	}

	resp := doRequest(t, ts, http.MethodGet, "/api/games", nil)
	body := decodeBody(t, resp)
	games, _ := body["games"].([]any)
	if len(games) != 1 || games[0].(map[string]any)["players"] != float64(2) {
		t.Fatalf("unexpected live games %v", body["games"])
	}
}

func TestWebsocketRequestErrors(t *testing.T) {
	_, ts := newTestApp(t, testConfig(), nil)
	conn := dialWS(t, ts)

	sendWS(t, conn, "bogus", map[string]string{})
	expectErrorEvent(t, conn, "Unknown event: bogus")

	sendWS(t, conn, eventJoinGame, map[string]string{"gameId": "NOPE00", "playerName": "Ada"})
	expectErrorEvent(t, conn, "Game not found")

	sendWS(t, conn, eventJoinGame, map[string]string{"gameId": "NOPE00"})
	expectErrorEvent(t, conn, "Game ID and Player Name are required.")

	sendWS(t, conn, eventJoinGame, map[string]string{"gameId": "NOPE00", "playerName": "<script>"})
	expectErrorEvent(t, conn, "Player name must be 1-20 letters, numbers or punctuation.")

	sendWS(t, conn, eventSubmitGuess, map[string]string{"gameId": "NOPE00", "playerId": "p1", "guess": "hello"})
	expectErrorEvent(t, conn, "Game not found")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectErrorEvent(t, conn, "Invalid message.")
}

func TestWebsocketHandlerPanicIsRecovered(t *testing.T) {
	srv := New(nil, nil, testConfig())
	srv.handlers["explode"] = wsHandler{
		action: "explode",
		fn: func(s *Server, client *wsClient, data json.RawMessage) error {
			panic("boom")
		},
	}
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(srv.Close)

	conn := dialWS(t, ts)
	sendWS(t, conn, "explode", nil)
	expectErrorEvent(t, conn, "Failed to explode. Please try again.")

	sendWS(t, conn, eventCreateGame, map[string]string{})
	if _, skipped := waitForEvent(t, conn, eventGameCreated); len(skipped) != 0 {
		t.Fatalf("expected connection to keep working, skipped %v", skipped)
	}
}

func TestWebsocketFullGame(t *testing.T) {
	_, ts := newTestApp(t, testConfig(), nil)

	host, gameID, hostID := hostGame(t, ts, "medium")
	ada, adaID := joinTestGame(t, ts, gameID, "Ada")
	grace, graceID := joinTestGame(t, ts, gameID, "Grace")

	sendWS(t, ada, eventAddTrack, map[string]any{"gameId": gameID, "playerId": adaID, "track": yesterdayTrack()})
	data, _ := waitForEvent(t, host, eventTrackAdded)
	tracks, _ := data["tracks"].([]any)
	if len(tracks) != 1 || tracks[0].(map[string]any)["added_by"] != adaID {
		t.Fatalf("unexpected track pool %v", data["tracks"])
	}

	sendWS(t, host, eventSetReady, map[string]any{"gameId": gameID, "playerId": hostID, "isReady": true})
	expectErrorEvent(t, host, "Player not found")

	sendWS(t, ada, eventSetReady, map[string]any{"gameId": gameID, "playerId": adaID, "isReady": true})
	data, _ = waitForEvent(t, grace, eventReadyPlayersUpdate)
	if ready, _ := data["readyPlayers"].([]any); len(ready) != 1 || ready[0] != adaID {
		t.Fatalf("unexpected ready players %v", data["readyPlayers"])
	}

	sendWS(t, grace, eventSetReady, map[string]any{"gameId": gameID, "playerId": graceID, "isReady": true})
	data, _ = waitForEvent(t, host, eventGameStarted)
	info := data["roundInfo"].(map[string]any)
	if info["current"] != float64(1) || info["total"] != float64(1) {
		t.Fatalf("unexpected round info %v", info)
	}
	data, _ = waitForEvent(t, host, eventNewRound)
	if data["timeLimit"] != float64(15) {
		t.Fatalf("expected 15 second limit, got %v", data["timeLimit"])
	}
	track := data["track"].(map[string]any)
	if _, leaked := track["name"]; leaked {
		t.Fatalf("expected round track to hide the title, got %v", track)
	}
	if album := track["album"].(map[string]any); album["name"] != "" {
		t.Fatalf("expected album name to be hidden, got %v", album)
	}
	data, _ = waitForEvent(t, host, eventTimeUpdate)
	if data["timeLeft"] != float64(15) {
		t.Fatalf("expected first tick at 15, got %v", data["timeLeft"])
	}

	sendWS(t, ada, eventSubmitGuess, map[string]string{"gameId": gameID, "playerId": adaID, "guess": "Yesterday by The Beatles"})
	data, _ = waitForEvent(t, ada, eventGuessResult)
	if data["correct"] != true || data["points"].(float64) <= 500 {
		t.Fatalf("expected a correct fast guess, got %v", data)
	}
	data, _ = waitForEvent(t, grace, eventLeaderboardUpdate)
	board := data["leaderboard"].([]any)
	if len(board) != 2 || board[0].(map[string]any)["id"] != adaID {
		t.Fatalf("unexpected leaderboard %v", board)
	}

	sendWS(t, ada, eventSubmitGuess, map[string]string{"gameId": gameID, "playerId": adaID, "guess": "Yesterday"})
	expectErrorEvent(t, ada, "Already submitted guess for this round")

	sendWS(t, grace, eventSubmitGuess, map[string]string{"gameId": gameID, "playerId": graceID, "guess": "Bohemian Rhapsody"})
	data, _ = waitForEvent(t, grace, eventGuessResult)
	if data["correct"] != false || data["points"] != float64(0) {
		t.Fatalf("expected a wrong guess, got %v", data)
	}
	data, _ = waitForEvent(t, host, eventRoundComplete)
	if revealed := data["track"].(map[string]any); revealed["name"] != "Yesterday" {
		t.Fatalf("expected answer to be revealed, got %v", revealed)
	}

	sendWS(t, host, eventNextRound, map[string]string{"gameId": gameID})
	data, _ = waitForEvent(t, host, eventGameEnd)
	final := data["finalLeaderboard"].([]any)
	if len(final) != 2 || final[0].(map[string]any)["name"] != "Ada" || final[0].(map[string]any)["correct_guesses"] != float64(1) {
		t.Fatalf("unexpected final leaderboard %v", final)
	}
	if last := data["lastTrack"].(map[string]any); last["name"] != "Yesterday" {
		t.Fatalf("expected last track in game end, got %v", last)
	}

	sendWS(t, host, eventNextRound, map[string]string{"gameId": gameID})
	expectErrorEvent(t, host, "Game not found")
	body := decodeBody(t, doRequest(t, ts, http.MethodGet, "/api/health", nil))
	if body["games"] != float64(0) {
		t.Fatalf("expected finished game to be removed, got %v", body["games"])
	}
}

func TestWebsocketStartWithoutTracksEndsGame(t *testing.T) {
	_, ts := newTestApp(t, testConfig(), nil)

	host, gameID, _ := hostGame(t, ts, "easy")
	sendWS(t, host, eventStartGame, map[string]string{"gameId": gameID})
	expectErrorEvent(t, host, "Need at least 2 players to start")

	joinTestGame(t, ts, gameID, "Ada")
	joinTestGame(t, ts, gameID, "Grace")
	sendWS(t, host, eventStartGame, map[string]string{"gameId": gameID})
	data, skipped := waitForEvent(t, host, eventGameEnd)
	if contains(skipped, eventGameStarted) || contains(skipped, eventNewRound) {
		t.Fatalf("expected no rounds before game end, saw %v", skipped)
	}
	if final, _ := data["finalLeaderboard"].([]any); len(final) != 2 {
		t.Fatalf("expected 2 players in final leaderboard, got %v", data["finalLeaderboard"])
	}
}

func TestWebsocketAddTrackFromCatalog(t *testing.T) {
	provider := &stubCatalog{tracks: map[string]game.Track{"3135556": yesterdayTrack()}}
	_, ts := newTestApp(t, testConfig(), provider)

	host, gameID, hostID := hostGame(t, ts, "")
	sendWS(t, host, eventAddTrack, map[string]any{"gameId": gameID, "playerId": hostID, "trackId": "3135556"})
	data, _ := waitForEvent(t, host, eventTrackAdded)
	tracks := data["tracks"].([]any)
	if len(tracks) != 1 || tracks[0].(map[string]any)["name"] != "Yesterday" {
		t.Fatalf("expected catalog track, got %v", tracks)
	}

	sendWS(t, host, eventAddTrack, map[string]any{"gameId": gameID, "playerId": hostID, "track": map[string]string{"id": "missing"}})
	expectErrorEvent(t, host, "Track not found")

	sendWS(t, host, eventAddTrack, map[string]any{"gameId": gameID, "playerId": hostID})
	expectErrorEvent(t, host, "Game ID, Track, and Player ID are required.")

	provider.fail(game.CatalogError("Track catalog is unavailable. Please try again."))
	sendWS(t, host, eventAddTrack, map[string]any{"gameId": gameID, "playerId": hostID, "trackId": "3135556"})
	expectErrorEvent(t, host, "Track catalog is unavailable. Please try again.")
}

func TestWebsocketHostDisconnectEndsGame(t *testing.T) {
	srv, ts := newTestApp(t, testConfig(), nil)

	host, gameID, _ := hostGame(t, ts, "hard")
	ada, adaID := joinTestGame(t, ts, gameID, "Ada")
	grace, _ := joinTestGame(t, ts, gameID, "Grace")

	_ = host.Close()
	data, _ := waitForEvent(t, ada, eventGameEnded)
	if data["message"] != "Game ended by host." {
		t.Fatalf("unexpected game ended payload %v", data)
	}
	waitForEvent(t, grace, eventGameEnded)

	sendWS(t, ada, eventSubmitGuess, map[string]string{"gameId": gameID, "playerId": adaID, "guess": "Yesterday"})
	expectErrorEvent(t, ada, "Game not found")

	deadline := time.Now().Add(wsTimeout)
	for srv.ws.RoomSize(gameID) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected room to be closed, got %d members", srv.ws.RoomSize(gameID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebsocketPlayerLeaves(t *testing.T) {
	_, ts := newTestApp(t, testConfig(), nil)

	host, gameID, _ := hostGame(t, ts, "medium")
	_, adaID := joinTestGame(t, ts, gameID, "Ada")
	grace, graceID := joinTestGame(t, ts, gameID, "Grace")
	waitForEvent(t, host, eventPlayerListUpdate)
	waitForEvent(t, host, eventPlayerListUpdate)

	sendWS(t, grace, eventLeaveGame, map[string]string{"gameId": gameID, "playerId": adaID})
	expectErrorEvent(t, grace, "Player not found")

	sendWS(t, grace, eventLeaveGame, map[string]string{"gameId": gameID, "playerId": graceID})
	data, _ := waitForEvent(t, host, eventPlayerListUpdate)
	players := data["players"].([]any)
	if len(players) != 1 || players[0].(map[string]any)["id"] != adaID {
		t.Fatalf("unexpected roster after leave %v", players)
	}
}

func TestWebsocketRoundExpires(t *testing.T) {
	cfg := testConfig()
	cfg.TickIntervalMillis = 10
	_, ts := newTestApp(t, cfg, nil)

	host, gameID, hostID := hostGame(t, ts, "medium")
	ada, _ := joinTestGame(t, ts, gameID, "Ada")
	joinTestGame(t, ts, gameID, "Grace")
	sendWS(t, host, eventAddTrack, map[string]any{"gameId": gameID, "playerId": hostID, "track": yesterdayTrack()})
	waitForEvent(t, host, eventTrackAdded)

	sendWS(t, host, eventStartGame, map[string]string{"gameId": gameID})
	waitForEvent(t, ada, eventNewRound)

	lastLeft := -1.0
	for {
		event := readWSEvent(t, ada, wsTimeout)
		if event.Type == eventTimeUpdate {
			left := event.Data["timeLeft"].(float64)
			if lastLeft >= 0 && left != lastLeft-1 {
				t.Fatalf("expected countdown to step by one, got %v after %v", left, lastLeft)
			}
			lastLeft = left
			continue
		}
		if event.Type != eventRoundComplete {
			t.Fatalf("unexpected event %s during countdown", event.Type)
		}
		if lastLeft != 0 {
			t.Fatalf("expected countdown to reach 0 before reveal, last was %v", lastLeft)
		}
		if track := event.Data["track"].(map[string]any); !strings.EqualFold(track["name"].(string), "yesterday") {
			t.Fatalf("unexpected revealed track %v", track)
		}
		break
	}
}

func TestWebsocketFailedJoinKeepsSeat(t *testing.T) {
	srv, ts := newTestApp(t, testConfig(), nil)

	host, gameID, hostID := hostGame(t, ts, "medium")
	ada, adaID := joinTestGame(t, ts, gameID, "Ada")
	waitForEvent(t, host, eventPlayerListUpdate)

	sendWS(t, host, eventJoinGame, map[string]string{"gameId": "ZZZZZZ", "playerName": "Host"})
	expectErrorEvent(t, host, "Game not found")
	sendWS(t, ada, eventJoinGame, map[string]string{"gameId": "ZZZZZZ", "playerName": "Ada"})
	expectErrorEvent(t, ada, "Game not found")
	sendWS(t, ada, eventJoinGame, map[string]string{"gameId": gameID, "playerName": "Ada Again"})
	expectErrorEvent(t, ada, "Already joined this game")

	if !srv.games.Exists(gameID) {
		t.Fatal("expected the game to survive failed joins")
	}
	sendWS(t, host, eventAddTrack, map[string]any{"gameId": gameID, "playerId": hostID, "track": yesterdayTrack()})
	waitForEvent(t, host, eventTrackAdded)
	sendWS(t, ada, eventSetReady, map[string]any{"gameId": gameID, "playerId": adaID, "isReady": true})
	data, _ := waitForEvent(t, host, eventReadyPlayersUpdate)
	if ready, _ := data["readyPlayers"].([]any); len(ready) != 1 || ready[0] != adaID {
		t.Fatalf("expected Ada to keep her seat, got %v", data)
	}

	games := decodeBody(t, doRequest(t, ts, http.MethodGet, "/api/games", nil))["games"].([]any)
	if len(games) != 1 || games[0].(map[string]any)["players"] != float64(1) {
		t.Fatalf("expected one game with one player, got %v", games)
	}
}

func TestWebsocketJoinMovesPlayer(t *testing.T) {
	srv, ts := newTestApp(t, testConfig(), nil)

	firstHost, first, _ := hostGame(t, ts, "medium")
	_, second, _ := hostGame(t, ts, "easy")
	ada, adaID := joinTestGame(t, ts, first, "Ada")
	joinTestGame(t, ts, first, "Grace")
	waitForEvent(t, firstHost, eventPlayerListUpdate)
	waitForEvent(t, firstHost, eventPlayerListUpdate)

	sendWS(t, ada, eventJoinGame, map[string]string{"gameId": second, "playerName": "Ada"})
	waitForEvent(t, ada, eventPlayerJoined)
	data, _ := waitForEvent(t, firstHost, eventPlayerListUpdate)
	for _, p := range data["players"].([]any) {
		if p.(map[string]any)["id"] == adaID {
			t.Fatalf("expected Ada to leave the first game, got %v", data["players"])
		}
	}
	if len(data["players"].([]any)) != 1 {
		t.Fatalf("expected one player left, got %v", data["players"])
	}

	sendWS(t, firstHost, eventCreateGame, map[string]string{"difficulty": "hard"})
	waitForEvent(t, firstHost, eventGameCreated)
	if srv.games.Exists(first) {
		t.Fatal("expected hosting a new game to end the old one")
	}
	if srv.games.Len() != 2 {
		t.Fatalf("expected 2 live games, got %d", srv.games.Len())
	}
}
