package game

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	artistWeight        = 0.4
	trackWeight         = 0.6
	artistTokenShare    = 0.7
	fuzzyCharShare      = 0.8
	fuzzyMinTokenLength = 3
	partialTitleBonus   = 0.1
	basePoints          = 500
	maxSpeedBonus       = 0.5
)

type Score struct {
	Artist float64 `json:"artistScore"`
	Track  float64 `json:"trackScore"`
	Total  float64 `json:"totalScore"`
}

// Correct reports whether the score clears the correct-guess threshold.
func (s Score) Correct() bool {
	return s.Total >= CorrectThreshold
}

// ScoreGuess compares a free-text guess with the track title and artists.
func ScoreGuess(guess string, track Track) Score {
	guessTokens := tokenize(guess)
	normalizedGuess := strings.Join(guessTokens, " ")

	score := Score{
		Artist: artistScore(normalizedGuess, guessTokens, track.Artists),
		Track:  trackScore(normalizedGuess, guessTokens, track.Name),
	}
	score.Total = artistWeight*score.Artist + trackWeight*score.Track
	return score
}

// Points converts a score into awarded points. Guesses made before the base
// limit runs out earn up to a 1.5x speed multiplier.
func Points(total, elapsedSeconds float64, limitSeconds int) int {
	if total <= 0 {
		return 0
	}
	bonus := 0.0
	if limitSeconds > 0 {
		limit := float64(limitSeconds)
		bonus = math.Max(0, limit-elapsedSeconds) / limit
	}
	multiplier := 1 + maxSpeedBonus*bonus
	return int(math.Round(basePoints * total * multiplier))
}

func artistScore(normalizedGuess string, guessTokens []string, artists []Artist) float64 {
	if normalizedGuess == "" {
		return 0
	}
	for _, artist := range artists {
		artistTokens := tokenize(artist.Name)
		if len(artistTokens) == 0 {
			continue
		}
		name := strings.Join(artistTokens, " ")
		if strings.Contains(normalizedGuess, name) || strings.Contains(name, normalizedGuess) {
			return 1
		}
		if matchedShare(artistTokens, guessTokens) >= artistTokenShare {
			return 1
		}
	}
	return 0
}

func trackScore(normalizedGuess string, guessTokens []string, title string) float64 {
	titleTokens := tokenize(title)
	if len(titleTokens) == 0 || normalizedGuess == "" {
		return 0
	}
	if normalizedGuess == strings.Join(titleTokens, " ") {
		return 1
	}
	share := matchedShare(titleTokens, guessTokens)
	if share > 0 {
		share += partialTitleBonus
	}
	return math.Min(share, 1)
}

// matchedShare is the fraction of target tokens that fuzzy-match any guess token.
func matchedShare(targetTokens, guessTokens []string) float64 {
	if len(targetTokens) == 0 {
		return 0
	}
	matched := 0
	for _, target := range targetTokens {
		for _, guess := range guessTokens {
			if tokensMatch(guess, target) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(targetTokens))
}

func tokensMatch(guess, target string) bool {
	if strings.Contains(guess, target) || strings.Contains(target, guess) {
		return true
	}
	guessLen := utf8.RuneCountInString(guess)
	targetLen := utf8.RuneCountInString(target)
	if guessLen < fuzzyMinTokenLength || targetLen < fuzzyMinTokenLength {
		return false
	}
	if guessLen-targetLen > 1 || targetLen-guessLen > 1 {
		return false
	}
	shared := 0
	for _, r := range guess {
		if strings.ContainsRune(target, r) {
			shared++
		}
	}
	return float64(shared)/float64(guessLen) >= fuzzyCharShare
}

// tokenize lowercases, drops punctuation and splits on whitespace.
func tokenize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(norm.NFC.String(text)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}
