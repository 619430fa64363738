// Package filter derives the visible part of the catalog from the current
// search, category and type criteria.
package filter

import (
	"strings"

	"github.com/RigelNana/vitalicio/models"
)

const (
	AllCategories = "Todos"
	AllTypes      = "todos"
)

type Criteria struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Tab      string `json:"tab"`
}

func (c Criteria) allCategories() bool {
	return c.Category == "" || c.Category == AllCategories
}

func (c Criteria) allTypes() bool {
	return c.Tab == "" || c.Tab == AllTypes
}

// Match reports whether m is visible under c.
func (c Criteria) Match(m models.Material) bool {
	if c.Search != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(c.Search)) {
		return false
	}
	if !c.allCategories() && m.Category != c.Category {
		return false
	}
	if !c.allTypes() && string(m.Type) != c.Tab {
		return false
	}
	return true
}

// Apply returns the items matching c in their original order. It never
// modifies items.
func Apply(items []models.Material, c Criteria) []models.Material {
	out := make([]models.Material, 0, len(items))
	for _, m := range items {
		if c.Match(m) {
			out = append(out, m)
		}
	}
	return out
}
