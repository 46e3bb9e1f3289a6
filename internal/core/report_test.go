package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Two accounts, A (CNY, 1000) and B (USD, 100), base CNY: B converts to
// 100 * rate(CNY)/rate(USD) = 100/7.2 ≈ 13.89, so net worth ≈ 1013.89.
func TestNetWorthReferenceScenario(t *testing.T) {
	accounts := []Account{
		{ID: "a", Name: "A", Type: Savings, Currency: CNY, Balance: dec("1000")},
		{ID: "b", Name: "B", Type: Savings, Currency: USD, Balance: dec("100")},
	}
	got, err := NetWorth(accounts, CNY)
	if err != nil {
		t.Fatalf("NetWorth: %v", err)
	}
	if !got.Round(2).Equal(dec("1013.89")) {
		t.Fatalf("net worth = %s, want 1013.89", got.Round(2))
	}
}

func TestNetWorthLiabilitiesSubtract(t *testing.T) {
	accounts := []Account{
		{ID: "a", Currency: CNY, Balance: dec("1000")},
		{ID: "loan", Currency: CNY, Balance: dec("-250")},
	}
	got, err := NetWorth(accounts, CNY)
	if err != nil {
		t.Fatalf("NetWorth: %v", err)
	}
	if !got.Equal(dec("750")) {
		t.Fatalf("net worth = %s, want 750", got)
	}
}

// Relative comparisons between portfolios must not depend on the base
// currency the totals are reported in.
func TestNetWorthBaseIndependentOrdering(t *testing.T) {
	richer := []Account{{ID: "a", Currency: CNY, Balance: dec("1000")}}
	poorer := []Account{{ID: "b", Currency: USD, Balance: dec("100")}}
	for _, base := range SupportedCurrencies() {
		r, err := NetWorth(richer, base)
		if err != nil {
			t.Fatalf("NetWorth richer in %s: %v", base, err)
		}
		p, err := NetWorth(poorer, base)
		if err != nil {
			t.Fatalf("NetWorth poorer in %s: %v", base, err)
		}
		if !r.GreaterThan(p) {
			t.Fatalf("base %s: expected %s > %s", base, r, p)
		}
	}
}

func TestNetWorthUnsupportedCurrency(t *testing.T) {
	accounts := []Account{{ID: "a", Currency: Currency("XXX"), Balance: dec("10")}}
	if _, err := NetWorth(accounts, CNY); err == nil {
		t.Fatal("expected error for unsupported account currency")
	}
}

// A pending 500 CNY income contributes exactly 500 regardless of its
// expected settlement date.
func TestPendingIncome(t *testing.T) {
	transactions := []Transaction{
		{ID: "1", Type: Income, Status: Pending, Amount: dec("500"), Currency: CNY,
			ExpectedDate: time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Type: Income, Status: Completed, Amount: dec("100"), Currency: CNY},
		{ID: "3", Type: Expense, Status: Pending, Amount: dec("40"), Currency: CNY},
	}
	got, err := PendingIncome(transactions, CNY)
	if err != nil {
		t.Fatalf("PendingIncome: %v", err)
	}
	if !got.Equal(dec("500")) {
		t.Fatalf("pending income = %s, want 500", got)
	}
}

func TestMonthlyExpensesBoundaries(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		date     time.Time
		included bool
	}{
		{"first instant of the month", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), true},
		{"mid month", time.Date(2026, time.March, 20, 9, 30, 0, 0, time.UTC), true},
		{"last instant of prior month", time.Date(2026, time.February, 28, 23, 59, 59, 999000000, time.UTC), false},
		{"same month last year", time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transactions := []Transaction{{
				ID: "t", Type: Expense, Status: Completed,
				Amount: dec("50"), Currency: CNY, Date: tc.date,
			}}
			got, err := MonthlyExpenses(transactions, CNY, now)
			if err != nil {
				t.Fatalf("MonthlyExpenses: %v", err)
			}
			want := dec("0")
			if tc.included {
				want = dec("50")
			}
			if !got.Equal(want) {
				t.Fatalf("monthly expenses = %s, want %s", got, want)
			}
		})
	}
}

func TestMonthlyExpensesIgnoresOtherTypes(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	transactions := []Transaction{
		{ID: "1", Type: Income, Status: Completed, Amount: dec("900"), Currency: CNY, Date: now},
		{ID: "2", Type: Transfer, Status: Completed, Amount: dec("900"), Currency: CNY, Date: now},
		{ID: "3", Type: Expense, Status: Pending, Amount: dec("30"), Currency: CNY, Date: now},
	}
	got, err := MonthlyExpenses(transactions, CNY, now)
	if err != nil {
		t.Fatalf("MonthlyExpenses: %v", err)
	}
	// Pending expenses still count toward the month; only the type filters.
	if !got.Equal(dec("30")) {
		t.Fatalf("monthly expenses = %s, want 30", got)
	}
}

func TestGroupAccountsPartition(t *testing.T) {
	accounts := []Account{
		{ID: "a", Type: Savings, Currency: CNY, Balance: dec("100")},
		{ID: "b", Type: Savings, Currency: CNY, Balance: dec("200")},
		{ID: "c", Type: Savings, Currency: USD, Balance: dec("50")},
		{ID: "d", Type: Investment, Currency: CNY, Balance: dec("70")},
	}
	groups := GroupAccounts(accounts)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	seen := make(map[string]GroupKey)
	total := 0
	for _, g := range groups {
		if g.Count != len(g.AccountIDs) {
			t.Fatalf("group %s count %d does not match ids %v", g.Key, g.Count, g.AccountIDs)
		}
		total += g.Count
		for _, id := range g.AccountIDs {
			if prev, dup := seen[id]; dup {
				t.Fatalf("account %s in groups %s and %s", id, prev, g.Key)
			}
			seen[id] = g.Key
		}
		currency, accountType, err := ParseGroupKey(g.Key)
		if err != nil {
			t.Fatalf("ParseGroupKey(%s): %v", g.Key, err)
		}
		if currency != g.Currency || accountType != g.Type {
			t.Fatalf("key %s did not round-trip: got %s/%s", g.Key, currency, accountType)
		}
	}
	if total != len(accounts) {
		t.Fatalf("groups cover %d accounts, want %d", total, len(accounts))
	}

	for _, g := range groups {
		if g.Key == MakeGroupKey(CNY, Savings) {
			if !g.Balance.Equal(dec("300")) {
				t.Fatalf("CNY savings balance = %s, want 300", g.Balance)
			}
		}
	}
}

func TestParseGroupKeyRejectsMalformed(t *testing.T) {
	cases := []GroupKey{"", "CNY", "CNY/", "/savings", "XXX/savings", "CNY/checking"}
	for _, key := range cases {
		if _, _, err := ParseGroupKey(key); err == nil {
			t.Fatalf("ParseGroupKey(%q) expected error", key)
		}
	}
}

func TestNeedsCheckIn(t *testing.T) {
	now := time.Date(2026, time.March, 15, 18, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		accounts []Account
		want     bool
	}{
		{"no investment accounts", []Account{{ID: "a", Type: Savings}}, false},
		{"never checked in", []Account{{ID: "a", Type: Investment}}, true},
		{"checked in yesterday", []Account{{ID: "a", Type: Investment,
			LastCheckIn: now.Add(-24 * time.Hour)}}, true},
		{"checked in this morning", []Account{{ID: "a", Type: Investment,
			LastCheckIn: time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC)}}, false},
		{"one of two is stale", []Account{
			{ID: "a", Type: Investment, LastCheckIn: now},
			{ID: "b", Type: Investment},
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsCheckIn(tc.accounts, now); got != tc.want {
				t.Fatalf("NeedsCheckIn = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdviceStale(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		advice Advice
		want   bool
	}{
		{"never generated", Advice{}, true},
		{"generated just now", Advice{GeneratedAt: now}, false},
		{"six days old", Advice{GeneratedAt: now.Add(-6 * 24 * time.Hour)}, false},
		{"exactly seven days old", Advice{GeneratedAt: now.Add(-AdviceMaxAge)}, false},
		{"over seven days old", Advice{GeneratedAt: now.Add(-AdviceMaxAge - time.Millisecond)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AdviceStale(tc.advice, now); got != tc.want {
				t.Fatalf("AdviceStale = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBuildOverview(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	accounts := []Account{
		{ID: "a", Type: Savings, Currency: CNY, Balance: dec("1000")},
		{ID: "b", Type: Savings, Currency: USD, Balance: dec("100")},
	}
	transactions := []Transaction{
		{ID: "1", Type: Income, Status: Pending, Amount: dec("500"), Currency: CNY},
		{ID: "2", Type: Expense, Status: Completed, Amount: dec("50"), Currency: CNY, Date: now},
	}
	overview, err := BuildOverview(accounts, transactions, CNY, Advice{}, now)
	if err != nil {
		t.Fatalf("BuildOverview: %v", err)
	}
	if !overview.NetWorth.Round(2).Equal(dec("1013.89")) {
		t.Fatalf("net worth = %s, want 1013.89", overview.NetWorth.Round(2))
	}
	if !overview.PendingIncome.Equal(dec("500")) {
		t.Fatalf("pending income = %s, want 500", overview.PendingIncome)
	}
	if !overview.MonthlyExpenses.Equal(dec("50")) {
		t.Fatalf("monthly expenses = %s, want 50", overview.MonthlyExpenses)
	}
	if len(overview.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(overview.Groups))
	}
	if !overview.AdviceStale {
		t.Fatal("expected stale advice with no history")
	}
	if overview.BaseCurrency != CNY {
		t.Fatalf("base currency = %s, want CNY", overview.BaseCurrency)
	}
}
