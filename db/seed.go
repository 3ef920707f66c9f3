package db

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Dosada05/speech-ballots/models"
)

//go:embed event_types.yaml
var eventTypesYAML []byte

type eventTypeCatalog struct {
	EventTypes []struct {
		Name        string                     `yaml:"name"`
		DisplayName string                     `yaml:"display_name"`
		Type        models.EventClassification `yaml:"type"`
		Group       string                     `yaml:"group"`
		SortOrder   int                        `yaml:"sort_order"`
	} `yaml:"event_types"`
}

// EventTypeUpserter - то, что нужно сидеру от репозитория видов выступлений.
type EventTypeUpserter interface {
	Upsert(ctx context.Context, et *models.EventType) error
}

// LoadEventTypeCatalog разбирает встроенный каталог видов выступлений.
func LoadEventTypeCatalog() ([]models.EventType, error) {
	return parseEventTypeCatalog(eventTypesYAML)
}

func parseEventTypeCatalog(data []byte) ([]models.EventType, error) {
	var catalog eventTypeCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse event type catalog: %w", err)
	}

	out := make([]models.EventType, 0, len(catalog.EventTypes))
	seen := make(map[string]bool, len(catalog.EventTypes))
	for _, et := range catalog.EventTypes {
		if et.Name == "" || et.DisplayName == "" {
			return nil, fmt.Errorf("event type catalog entry is missing name or display_name")
		}
		if seen[et.Name] {
			return nil, fmt.Errorf("duplicate event type %q in catalog", et.Name)
		}
		seen[et.Name] = true

		cfg, err := models.NewRubricConfig(et.Type, et.Group, et.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("event type %q: %w", et.Name, err)
		}
		out = append(out, models.EventType{
			Name:         et.Name,
			DisplayName:  et.DisplayName,
			RubricConfig: cfg,
		})
	}
	return out, nil
}

// SeedEventTypes вставляет или обновляет каталог видов выступлений по имени.
func SeedEventTypes(ctx context.Context, repo EventTypeUpserter) (int, error) {
	catalog, err := LoadEventTypeCatalog()
	if err != nil {
		return 0, err
	}
	for i := range catalog {
		if err := repo.Upsert(ctx, &catalog[i]); err != nil {
			return i, fmt.Errorf("failed to seed event type %q: %w", catalog[i].Name, err)
		}
	}
	return len(catalog), nil
}
