package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/speech-ballots/models"
)

// Clock возвращает текущее время. В тестах подменяется фиксированным.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

const magicTokenBytes = 32

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func newID() string {
	return uuid.NewString()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

var scoreFieldNames = [5]string{
	"scoreContent", "scoreOrganizationCitations", "scoreCategory3", "scoreCategory4", "scoreImpact",
}

// validateFinalScores требует все пять оценок в диапазоне 1..5.
func validateFinalScores(s models.Scores) error {
	for i, v := range s.All() {
		if v == nil {
			return fmt.Errorf("%w: %w: %s", ErrValidationFailed, ErrMissingField, scoreFieldNames[i])
		}
		if !inRange(*v, models.MinScore, models.MaxScore) {
			return fmt.Errorf("%w: %w: %s=%d", ErrValidationFailed, ErrScoreOutOfRange, scoreFieldNames[i], *v)
		}
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
