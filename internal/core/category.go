package core

import (
	"fmt"
	"strings"
)

const (
	CategoryFood          ExpenseCategory = "food"
	CategoryTransport     ExpenseCategory = "transport"
	CategoryEntertainment ExpenseCategory = "entertainment"
	CategoryShopping      ExpenseCategory = "shopping"
	CategoryOther         ExpenseCategory = "other"

	SourceGift  IncomeSource = "gift"
	SourceBonus IncomeSource = "bonus"
	SourceOther IncomeSource = "other"
)

type (
	// ExpenseCategory is the closed set of expense categories.
	ExpenseCategory string

	// IncomeSource is the closed set of extra income sources.
	IncomeSource string

	// Display is the label and icon shown next to a category or source.
	// Records capture it when they are created.
	Display struct {
		Name string
		Icon string
	}
)

var (
	expenseCategories = []ExpenseCategory{
		CategoryFood, CategoryTransport, CategoryEntertainment, CategoryShopping, CategoryOther,
	}
	expenseDisplay = map[ExpenseCategory]Display{
		CategoryFood:          {Name: "Comida", Icon: "🍽️"},
		CategoryTransport:     {Name: "Transporte", Icon: "🚌"},
		CategoryEntertainment: {Name: "Entretenimiento", Icon: "🎮"},
		CategoryShopping:      {Name: "Compras", Icon: "🛍️"},
		CategoryOther:         {Name: "Otros", Icon: "📝"},
	}

	incomeSources = []IncomeSource{SourceGift, SourceBonus, SourceOther}
	sourceDisplay = map[IncomeSource]Display{
		SourceGift:  {Name: "Propina", Icon: "🎀"},
		SourceBonus: {Name: "Bono", Icon: "💝"},
		SourceOther: {Name: "Otros", Icon: "🌈"},
	}
)

// ExpenseCategories returns every category in display order.
func ExpenseCategories() []ExpenseCategory {
	return append([]ExpenseCategory(nil), expenseCategories...)
}

// ParseExpenseCategory resolves a category id.
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	c := ExpenseCategory(strings.ToLower(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c ExpenseCategory) Validate() error {
	if _, ok := expenseDisplay[c]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
	return nil
}

// Display returns the static label for c. Unknown categories get their id
// as name so aggregates over hand-edited data still render.
func (c ExpenseCategory) Display() Display {
	if d, ok := expenseDisplay[c]; ok {
		return d
	}
	return Display{Name: string(c)}
}

// IncomeSources returns every source in display order.
func IncomeSources() []IncomeSource {
	return append([]IncomeSource(nil), incomeSources...)
}

// ParseIncomeSource resolves a source id.
func ParseIncomeSource(s string) (IncomeSource, error) {
	src := IncomeSource(strings.ToLower(strings.TrimSpace(s)))
	if err := src.Validate(); err != nil {
		return "", err
	}
	return src, nil
}

func (s IncomeSource) Validate() error {
	if _, ok := sourceDisplay[s]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, string(s))
	}
	return nil
}

func (s IncomeSource) Display() Display {
	if d, ok := sourceDisplay[s]; ok {
		return d
	}
	return Display{Name: string(s)}
}
