package game

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	gameIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	gameIDLength   = 6
	// Bytes at or above this value are rejected so every character is equally likely.
	gameIDByteLimit = 256 - 256%len(gameIDAlphabet)
)

func newGameID() (string, error) {
	return readGameID(rand.Reader)
}

func readGameID(src io.Reader) (string, error) {
	id := make([]byte, 0, gameIDLength)
	buf := make([]byte, gameIDLength*2)
	for len(id) < gameIDLength {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("generate game id: %w", err)
		}
		for _, b := range buf {
			if int(b) >= gameIDByteLimit {
				continue
			}
			id = append(id, gameIDAlphabet[int(b)%len(gameIDAlphabet)])
			if len(id) == gameIDLength {
				break
			}
		}
	}
	return string(id), nil
}

func pickPlayerColor(index int) string {
	palette := []string{
		"#ff6b6b",
		"#4dabf7",
		"#51cf66",
		"#ffa94d",
		"#ffd43b",
		"#845ef7",
		"#20c997",
		"#e64980",
	}
	if index < 0 {
		index = 0
	}
	return palette[index%len(palette)]
}
