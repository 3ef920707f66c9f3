package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/repositories"
)

type EventTypeService interface {
	List(ctx context.Context) ([]models.EventType, error)
}

type eventTypeService struct {
	repo repositories.EventTypeRepository
}

func NewEventTypeService(repo repositories.EventTypeRepository) EventTypeService {
	return &eventTypeService{repo: repo}
}

func (s *eventTypeService) List(ctx context.Context) ([]models.EventType, error) {
	eventTypes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list event types: %w", err)
	}
	return eventTypes, nil
}
