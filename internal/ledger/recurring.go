package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tesoro/internal/core"
)

// DefaultRuleName is the rule seeded the first time a user's rule
// collection loads empty.
const DefaultRuleName = "Health Insurance"

func (b *Book) ruleByID(id string) (*core.RecurringRule, error) {
	for i := range b.Rules {
		if b.Rules[i].ID == id {
			return &b.Rules[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// CreateRule validates the rule, assigns a fresh id and appends it.
func (b *Book) CreateRule(rule core.RecurringRule) (core.RecurringRule, error) {
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if _, err := b.AccountByID(rule.AccountID); err != nil {
		return core.RecurringRule{}, err
	}
	rule.ID = uuid.NewString()
	b.Rules = append(b.Rules, rule)
	return rule, nil
}

// Materialize turns a recurring rule into a concrete completed expense dated
// now, tagged as recurring, and applies it through the normal creation path.
// Materialization is manual and user-triggered; the rule's NextDueDate is
// never advanced, so repeated calls keep producing transactions against the
// same due date.
func (b *Book) Materialize(ruleID string, now time.Time) (core.Transaction, error) {
	rule, err := b.ruleByID(ruleID)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		Date:      now,
		Amount:    rule.Amount,
		Currency:  rule.Currency,
		Type:      core.Expense,
		Category:  rule.Category,
		Tags:      []string{core.TagRecurring},
		AccountID: rule.AccountID,
		Note:      rule.Name,
		Status:    core.Completed,
		Recurring: true,
	}
	created, err := b.CreateTransaction(tx, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("materialize rule %s: %w", ruleID, err)
	}
	return created, nil
}

// SeedDefaultRule installs the illustrative monthly rule on first run. The
// seed ties itself to the first account when one exists; materializing it
// before any account is created fails with a not-found error, which the API
// surfaces normally.
func (b *Book) SeedDefaultRule(now time.Time) core.RecurringRule {
	accountID := ""
	if len(b.Accounts) > 0 {
		accountID = b.Accounts[0].ID
	}
	rule := core.RecurringRule{
		ID:          uuid.NewString(),
		Name:        DefaultRuleName,
		Amount:      decimal.RequireFromString("400"),
		Currency:    b.BaseCurrency,
		Category:    core.NewCategory(core.CategoryInsurance),
		Frequency:   core.Monthly,
		NextDueDate: firstOfNextMonth(now),
		AccountID:   accountID,
	}
	b.Rules = append(b.Rules, rule)
	return rule
}

// RuleDue reports whether a rule's next due date has arrived. Display only:
// nothing fires automatically and the date never advances on its own.
func RuleDue(rule core.RecurringRule, now time.Time) bool {
	return !rule.NextDueDate.After(now)
}

func firstOfNextMonth(now time.Time) time.Time {
	year, month, _ := now.Date()
	return time.Date(year, month+1, 1, 0, 0, 0, 0, now.Location())
}
