package calculator

import (
	"sort"

	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/money"
)

// Balance is one participant's position across a trip's ACTIVE expenses.
type Balance struct {
	UserID string

	// Paid is the total this user fronted as payer.
	Paid money.Money

	// Owed is the total of this user's shares.
	Owed money.Money

	// Net is Paid - Owed. Positive means the user is owed money.
	Net money.Money
}

// Transfer is a suggested payment that helps clear the trip's debts.
type Transfer struct {
	From   string
	To     string
	Amount money.Money
}

// NetBalances computes each participant's net position from ACTIVE expenses
// only; VOID expenses are excluded entirely. The result is sorted by user id
// so identical ledger states always produce identical output.
func NetBalances(expenses []models.Expense, currency string) []Balance {
	byUser := make(map[string]*Balance)
	get := func(userID string) *Balance {
		b, ok := byUser[userID]
		if !ok {
			b = &Balance{
				UserID: userID,
				Paid:   money.Zero(currency),
				Owed:   money.Zero(currency),
			}
			byUser[userID] = b
		}
		return b
	}

	for _, e := range expenses {
		if e.Status != models.StatusActive {
			continue
		}
		get(e.PayerID).Paid = get(e.PayerID).Paid.Add(e.Amount)
		for _, s := range e.Splits {
			get(s.UserID).Owed = get(s.UserID).Owed.Add(s.Share)
		}
	}

	balances := make([]Balance, 0, len(byUser))
	for _, b := range byUser {
		b.Net = b.Paid.Sub(b.Owed)
		balances = append(balances, *b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].UserID < balances[j].UserID })
	return balances
}

// SuggestTransfers greedily matches debtors with creditors, producing a
// small list of payments that would zero out every net balance. Exact to the
// cent; the suggestions are advisory and never persisted.
func SuggestTransfers(balances []Balance) []Transfer {
	var debtors, creditors []Balance
	for _, b := range balances {
		switch {
		case b.Net.IsNegative():
			debtors = append(debtors, b)
		case b.Net.IsPositive():
			creditors = append(creditors, b)
		}
	}

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owe := debtors[i].Net.Neg()
		due := creditors[j].Net

		amount := owe
		if due.Cmp(owe) < 0 {
			amount = due
		}
		if amount.IsPositive() {
			transfers = append(transfers, Transfer{
				From:   debtors[i].UserID,
				To:     creditors[j].UserID,
				Amount: amount,
			})
		}

		debtors[i].Net = debtors[i].Net.Add(amount)
		creditors[j].Net = creditors[j].Net.Sub(amount)
		if debtors[i].Net.IsZero() {
			i++
		}
		if creditors[j].Net.IsZero() {
			j++
		}
	}
	return transfers
}
