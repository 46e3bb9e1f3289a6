package core

import "errors"

const (
	CategoryGroceries     CategoryCode = "groceries"
	CategoryDining        CategoryCode = "dining"
	CategoryTransport     CategoryCode = "transport"
	CategoryHousing       CategoryCode = "housing"
	CategoryUtilities     CategoryCode = "utilities"
	CategoryHealth        CategoryCode = "health"
	CategoryInsurance     CategoryCode = "insurance"
	CategoryEntertainment CategoryCode = "entertainment"
	CategoryTravel        CategoryCode = "travel"
	CategoryShopping      CategoryCode = "shopping"
	CategoryEducation     CategoryCode = "education"
	CategorySalary        CategoryCode = "salary"
	CategoryInvestment    CategoryCode = "investment"
	CategoryCustom        CategoryCode = "custom"
)

type (
	CategoryCode string

	// Category is a closed set of codes plus an explicit custom variant:
	// Label is the display text and is set exactly when Code is custom.
	Category struct {
		Code  CategoryCode `json:"code"`
		Label string       `json:"label,omitempty"`
	}
)

var (
	ErrUnknownCategory    = errors.New("unknown category code")
	ErrMissingCustomLabel = errors.New("custom category requires a label")
	ErrUnexpectedLabel    = errors.New("label only allowed on custom categories")
)

var categoryNames = map[CategoryCode]string{
	CategoryGroceries:     "Groceries",
	CategoryDining:        "Dining",
	CategoryTransport:     "Transport",
	CategoryHousing:       "Housing",
	CategoryUtilities:     "Utilities",
	CategoryHealth:        "Health",
	CategoryInsurance:     "Insurance",
	CategoryEntertainment: "Entertainment",
	CategoryTravel:        "Travel",
	CategoryShopping:      "Shopping",
	CategoryEducation:     "Education",
	CategorySalary:        "Salary",
	CategoryInvestment:    "Investment",
}

// Categories returns the fixed suggestion list, custom excluded.
func Categories() []CategoryCode {
	return []CategoryCode{
		CategoryGroceries, CategoryDining, CategoryTransport,
		CategoryHousing, CategoryUtilities, CategoryHealth,
		CategoryInsurance, CategoryEntertainment, CategoryTravel,
		CategoryShopping, CategoryEducation, CategorySalary,
		CategoryInvestment,
	}
}

// NewCategory builds a category from a fixed suggestion code.
func NewCategory(code CategoryCode) Category {
	return Category{Code: code}
}

// CustomCategory builds the custom variant carrying free text.
func CustomCategory(label string) Category {
	return Category{Code: CategoryCustom, Label: label}
}

func (c Category) Validate() error {
	if c.Code == CategoryCustom {
		if c.Label == "" {
			return ErrMissingCustomLabel
		}
		return nil
	}
	if c.Label != "" {
		return ErrUnexpectedLabel
	}
	if _, ok := categoryNames[c.Code]; !ok {
		return ErrUnknownCategory
	}
	return nil
}

// String returns the display name: the fixed name for known codes, the label
// for custom ones.
func (c Category) String() string {
	if c.Code == CategoryCustom {
		return c.Label
	}
	if name, ok := categoryNames[c.Code]; ok {
		return name
	}
	return string(c.Code)
}
