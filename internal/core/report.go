// Package core holds the domain model and the derived-state computations:
// currency normalization, net worth, pending income, monthly expenses and
// account grouping. Everything here is a pure function over the collections
// passed in; recomputing on every change is safe and side-effect free.
package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AdviceMaxAge is how old the last generated advice may be before the
// overview flags it as stale.
const AdviceMaxAge = 7 * 24 * time.Hour

type (
	// GroupKey is a deterministic, reversible composite of currency and
	// account type ("CNY/savings"), so a UI can both enumerate groups and
	// address a specific subset by key.
	GroupKey string

	AccountGroup struct {
		Key            GroupKey        `json:"key"`
		Currency       Currency        `json:"currency"`
		Type           AccountType     `json:"type"`
		Balance        decimal.Decimal `json:"balance"`
		BalanceDisplay string          `json:"balanceDisplay"`
		Count          int             `json:"count"`
		AccountIDs     []string        `json:"accountIds"`
	}

	Overview struct {
		BaseCurrency           Currency        `json:"baseCurrency"`
		NetWorth               decimal.Decimal `json:"netWorth"`
		NetWorthDisplay        string          `json:"netWorthDisplay"`
		PendingIncome          decimal.Decimal `json:"pendingIncome"`
		PendingIncomeDisplay   string          `json:"pendingIncomeDisplay"`
		MonthlyExpenses        decimal.Decimal `json:"monthlyExpenses"`
		MonthlyExpensesDisplay string          `json:"monthlyExpensesDisplay"`
		Groups                 []AccountGroup  `json:"groups"`
		NeedsCheckIn           bool            `json:"needsCheckIn"`
		AdviceStale            bool            `json:"adviceStale"`
		GeneratedAt            time.Time       `json:"generatedAt"`
	}
)

// MakeGroupKey composes the group key for a currency/type pair.
func MakeGroupKey(currency Currency, accountType AccountType) GroupKey {
	return GroupKey(string(currency) + "/" + string(accountType))
}

// ParseGroupKey splits a group key back into its currency/type pair.
func ParseGroupKey(key GroupKey) (Currency, AccountType, error) {
	parts := strings.SplitN(string(key), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed group key %q", string(key))
	}
	currency := Currency(parts[0])
	accountType := AccountType(parts[1])
	if err := currency.Validate(); err != nil {
		return "", "", err
	}
	if err := accountType.Validate(); err != nil {
		return "", "", err
	}
	return currency, accountType, nil
}

// NetWorth sums every account balance normalized into the base currency.
// Liabilities carry negative balances and subtract naturally.
func NetWorth(accounts []Account, base Currency) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, acct := range accounts {
		converted, err := Convert(acct.Balance, acct.Currency, base)
		if err != nil {
			return decimal.Zero, fmt.Errorf("net worth for account %s: %w", acct.ID, err)
		}
		total = total.Add(converted)
	}
	return total, nil
}

// PendingIncome sums pending income transactions normalized into the base
// currency. The expected settlement date does not matter.
func PendingIncome(transactions []Transaction, base Currency) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range transactions {
		if tx.Type != Income || tx.Status != Pending {
			continue
		}
		converted, err := Convert(tx.Amount, tx.Currency, base)
		if err != nil {
			return decimal.Zero, fmt.Errorf("pending income for transaction %s: %w", tx.ID, err)
		}
		total = total.Add(converted)
	}
	return total, nil
}

// MonthlyExpenses sums expense transactions whose occurrence date falls in
// the calendar month of `now`, normalized into the base currency. Dates are
// compared in now's location, so the first instant of the month counts.
func MonthlyExpenses(transactions []Transaction, base Currency, now time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range transactions {
		if tx.Type != Expense {
			continue
		}
		date := tx.Date.In(now.Location())
		if date.Year() != now.Year() || date.Month() != now.Month() {
			continue
		}
		converted, err := Convert(tx.Amount, tx.Currency, base)
		if err != nil {
			return decimal.Zero, fmt.Errorf("monthly expenses for transaction %s: %w", tx.ID, err)
		}
		total = total.Add(converted)
	}
	return total, nil
}

// GroupAccounts partitions accounts by (currency, type). Group balances are
// raw sums in the shared currency; membership already fixes the currency so
// no normalization applies. Groups come back sorted by key.
func GroupAccounts(accounts []Account) []AccountGroup {
	byKey := make(map[GroupKey]*AccountGroup)
	for _, acct := range accounts {
		key := MakeGroupKey(acct.Currency, acct.Type)
		group, ok := byKey[key]
		if !ok {
			group = &AccountGroup{
				Key:      key,
				Currency: acct.Currency,
				Type:     acct.Type,
				Balance:  decimal.Zero,
			}
			byKey[key] = group
		}
		group.Balance = group.Balance.Add(acct.Balance)
		group.Count++
		group.AccountIDs = append(group.AccountIDs, acct.ID)
	}
	groups := make([]AccountGroup, 0, len(byKey))
	for _, group := range byKey {
		group.BalanceDisplay = Format(group.Balance, group.Currency)
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// NeedsCheckIn reports whether any investment account has never checked in
// or last checked in on a day other than today.
func NeedsCheckIn(accounts []Account, now time.Time) bool {
	for _, acct := range accounts {
		if acct.Type != Investment {
			continue
		}
		if acct.LastCheckIn.IsZero() || !sameCalendarDay(acct.LastCheckIn, now) {
			return true
		}
	}
	return false
}

// AdviceStale reports whether advice was never generated or is older than
// AdviceMaxAge.
func AdviceStale(advice Advice, now time.Time) bool {
	if advice.GeneratedAt.IsZero() {
		return true
	}
	return now.Sub(advice.GeneratedAt) > AdviceMaxAge
}

// BuildOverview assembles every derived value the dashboard shows from one
// consistent snapshot of the collections.
func BuildOverview(accounts []Account, transactions []Transaction, base Currency, advice Advice, now time.Time) (Overview, error) {
	netWorth, err := NetWorth(accounts, base)
	if err != nil {
		return Overview{}, err
	}
	pending, err := PendingIncome(transactions, base)
	if err != nil {
		return Overview{}, err
	}
	monthly, err := MonthlyExpenses(transactions, base, now)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		BaseCurrency:           base,
		NetWorth:               netWorth,
		NetWorthDisplay:        Format(netWorth, base),
		PendingIncome:          pending,
		PendingIncomeDisplay:   Format(pending, base),
		MonthlyExpenses:        monthly,
		MonthlyExpensesDisplay: Format(monthly, base),
		Groups:                 GroupAccounts(accounts),
		NeedsCheckIn:           NeedsCheckIn(accounts, now),
		AdviceStale:            AdviceStale(advice, now),
		GeneratedAt:            now,
	}, nil
}

func sameCalendarDay(a, b time.Time) bool {
	a = a.In(b.Location())
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
