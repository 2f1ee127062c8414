package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength       = 20
	maxGuessLength      = 100
	maxDifficultyLength = 16
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("guess", func(fl validator.FieldLevel) bool {
			_, err := validateGuess(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
			_, err := validateDifficulty(fl.Field().String())
			return err == nil
		})
	})
}

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength, isSafeText)
}

func validateGuess(text string) (string, error) {
	return validateText("guess", text, maxGuessLength, isPrintableText)
}

// validateDifficulty only checks the shape; unknown levels fall back to
// medium when parsed.
func validateDifficulty(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > maxDifficultyLength {
		return "", fmt.Errorf("difficulty must be %d characters or fewer", maxDifficultyLength)
	}
	for _, r := range trimmed {
		if r > 127 || !unicode.IsLetter(r) {
			return "", errors.New("difficulty contains unsupported characters")
		}
	}
	return trimmed, nil
}

func validateText(label, text string, maxLen int, allowed func(string) bool) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len([]rune(trimmed)) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !allowed(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

// isSafeText allows letters and digits in any script plus common punctuation.
// Artist and track names are rarely plain ASCII.
func isSafeText(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '’', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/', '+', '$', '#', '*', '@':
			continue
		default:
			return false
		}
	}
	return true
}

// isPrintableText rejects control and format characters. Guesses are matched
// against titles, so any symbol a title can carry is fair.
func isPrintableText(text string) bool {
	for _, r := range text {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
