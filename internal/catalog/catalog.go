// Package catalog exposes the read-only model catalog and its categories.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/rcm-webdev/insight-lens/internal/models"
)

var (
	ErrModelNotFound    = errors.New("model not found")
	ErrModelUnavailable = errors.New("model not available")
)

// CategoryDef describes one category without its models.
type CategoryDef struct {
	ID          models.ModelType
	Name        string
	Description string
}

// Categories lists the category groupings in display order. Custom models are
// not grouped.
var Categories = []CategoryDef{
	{
		ID:          models.ModelTypeClassification,
		Name:        "Classification Models",
		Description: "Identify and classify diseases from medical images",
	},
	{
		ID:          models.ModelTypeSegmentation,
		Name:        "Segmentation Models",
		Description: "Segment anatomical structures and lesions",
	},
	{
		ID:          models.ModelTypeDetection,
		Name:        "Detection Models",
		Description: "Detect and locate specific features or abnormalities",
	},
}

// Catalog is a read-only view over a Provider.
type Catalog struct {
	provider Provider
}

// New creates a catalog backed by p.
func New(p Provider) *Catalog {
	return &Catalog{provider: p}
}

// ListModels returns all models in provider order.
func (c *Catalog) ListModels() []models.AIModel {
	return c.provider.ListModels()
}

// ListCategories groups the models by type. Each category keeps catalog order.
func (c *Catalog) ListCategories() []models.ModelCategory {
	all := c.provider.ListModels()

	out := make([]models.ModelCategory, 0, len(Categories))
	for _, def := range Categories {
		cat := models.ModelCategory{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Models:      []models.AIModel{},
		}
		for _, m := range all {
			if m.Type == def.ID {
				cat.Models = append(cat.Models, m)
			}
		}
		out = append(out, cat)
	}
	return out
}

// Get returns the model with the given id.
func (c *Catalog) Get(id string) (models.AIModel, error) {
	for _, m := range c.provider.ListModels() {
		if m.ID == id {
			return m, nil
		}
	}
	return models.AIModel{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
}

// Select builds a selection of the model with the given id. Only available
// models can be selected and params must fit the model type.
func (c *Catalog) Select(id string, params *models.ModelParameters, now time.Time) (*models.ModelSelection, error) {
	m, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.ModelStatusAvailable {
		return nil, fmt.Errorf("%w: %s is %s", ErrModelUnavailable, id, m.Status)
	}
	if err := params.ValidateFor(m.Type); err != nil {
		return nil, err
	}

	return &models.ModelSelection{
		ModelID:    m.ID,
		Model:      m,
		SelectedAt: now,
		Parameters: params,
	}, nil
}
