package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации: сообщаются до любой записи в хранилище
	ErrValidationFailed   = errors.New("validation failed")
	ErrMissingField       = errors.New("required field is missing")
	ErrScoreOutOfRange    = errors.New("score must be between 1 and 5")
	ErrSpeakerRankInvalid = errors.New("speaker rank must be between 1 and 5")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidMeetingDate = errors.New("meeting date is required")

	// Ошибки конфликтов
	ErrTournamentAlreadyClosed = errors.New("tournament is already closed")
	ErrCompetitorEmailConflict = errors.New("a competitor with this email already exists in the tournament")
	ErrBallotAlreadySubmitted  = errors.New("ballot has already been submitted")

	// Ошибки аутентификации и доступа
	ErrUnauthorized       = errors.New("admin session is missing or expired")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrMagicLinkExpired   = errors.New("this link has expired")

	// Ошибки, специфичные для сущностей
	ErrNoActiveTournament = errors.New("no active tournament")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrEventTypeNotFound  = errors.New("event type not found")
	ErrInvalidMagicLink   = errors.New("invalid link")
)
