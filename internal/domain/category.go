package domain

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryMounts    Category = "mounts"
	CategoryUI        Category = "ui"
	CategorySkills    Category = "skills"
	CategoryInventory Category = "inventory"
)

// Categories returns every capability category in probe order.
func Categories() []Category {
	return []Category{CategoryMounts, CategoryUI, CategorySkills, CategoryInventory}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryMounts, CategoryUI, CategorySkills, CategoryInventory:
		return true
	default:
		return false
	}
}

func ParseCategory(raw string) (Category, error) {
	category := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !category.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}

	return category, nil
}
