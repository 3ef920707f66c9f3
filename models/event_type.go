package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventClassification определяет, какие две категории рубрики меняют смысл.
type EventClassification string

const (
	ClassificationPlatform       EventClassification = "platform"
	ClassificationInterpretation EventClassification = "interpretation"
)

// Категории рубрики в порядке колонок бюллетеня.
const (
	CategoryContent               = "content"
	CategoryOrganizationCitations = "organization_citations"
	CategoryVocalDelivery         = "vocal_delivery"
	CategoryPhysicalDelivery      = "physical_delivery"
	CategoryCharacterization      = "characterization"
	CategoryBlocking              = "blocking"
)

// CategoryLabels - подписи для третьей и четвёртой категорий.
type CategoryLabels struct {
	Category3 string `json:"category_3" yaml:"category_3"`
	Category4 string `json:"category_4" yaml:"category_4"`
}

var labelsByClassification = map[EventClassification]CategoryLabels{
	ClassificationPlatform:       {Category3: "Vocal Delivery", Category4: "Physical Delivery"},
	ClassificationInterpretation: {Category3: "Characterization", Category4: "Blocking"},
}

var categoriesByClassification = map[EventClassification][]string{
	ClassificationPlatform: {
		CategoryContent, CategoryOrganizationCitations, CategoryVocalDelivery, CategoryPhysicalDelivery,
	},
	ClassificationInterpretation: {
		CategoryContent, CategoryOrganizationCitations, CategoryCharacterization, CategoryBlocking,
	},
}

var ErrUnknownClassification = errors.New("unknown event classification")

// LabelsFor возвращает подписи групповых категорий для классификации.
func LabelsFor(class EventClassification) (CategoryLabels, error) {
	labels, ok := labelsByClassification[class]
	if !ok {
		return CategoryLabels{}, fmt.Errorf("%w: %q", ErrUnknownClassification, class)
	}
	return labels, nil
}

// CategoriesFor возвращает список категорий для классификации.
func CategoriesFor(class EventClassification) ([]string, error) {
	cats, ok := categoriesByClassification[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassification, class)
	}
	out := make([]string, len(cats))
	copy(out, cats)
	return out, nil
}

// RubricConfig хранится в колонке JSONB event_types.rubric_config.
type RubricConfig struct {
	Categories     []string            `json:"categories" yaml:"categories"`
	Type           EventClassification `json:"type" yaml:"type"`
	Group          string              `json:"group" yaml:"group"`
	SortOrder      int                 `json:"sortOrder" yaml:"sort_order"`
	CategoryLabels CategoryLabels      `json:"categoryLabels" yaml:"category_labels"`
}

// NewRubricConfig собирает конфигурацию из классификации, подставляя категории и подписи.
func NewRubricConfig(class EventClassification, group string, sortOrder int) (RubricConfig, error) {
	cats, err := CategoriesFor(class)
	if err != nil {
		return RubricConfig{}, err
	}
	labels, _ := LabelsFor(class)
	return RubricConfig{
		Categories:     cats,
		Type:           class,
		Group:          group,
		SortOrder:      sortOrder,
		CategoryLabels: labels,
	}, nil
}

func (c RubricConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *RubricConfig) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*c = RubricConfig{}
		return nil
	default:
		return fmt.Errorf("unsupported rubric_config type %T", src)
	}
	return json.Unmarshal(data, c)
}

type EventType struct {
	ID           int          `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	DisplayName  string       `json:"displayName" db:"display_name"`
	RubricConfig RubricConfig `json:"rubricConfig" db:"rubric_config"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}
