package bankbot

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credential identifies one login against one portal instance.
type Credential struct {
	URL      string
	Account  string
	Password string
}

// StatementSource fetches the transaction history for one account. It is
// implemented by the bank driver that produced the Account; the account keeps
// a non-owning reference back to it so histories can be fetched lazily.
type StatementSource interface {
	AccountTransactions(acct *Account, from, to time.Time) ([]Transaction, error)
}

// Account is one row from the portal's balances page. Fields are fixed at
// construction and not mutated afterwards, except for the lazily fetched
// transaction list.
type Account struct {
	Name      string          `json:"name"`
	AccountNo string          `json:"account_no"`
	Balance   decimal.Decimal `json:"balance"`
	Available decimal.Decimal `json:"available"`

	source StatementSource
	txns   []Transaction
}

// NewAccount builds an account bound to the source that scraped it.
func NewAccount(name, accountNo string, balance, available decimal.Decimal, source StatementSource) *Account {
	return &Account{
		Name:      name,
		AccountNo: accountNo,
		Balance:   balance,
		Available: available,
		source:    source,
	}
}

// SortCode aliases Name. NetBranch portals expose no real sort code, so the
// display name stands in for it.
func (a *Account) SortCode() string {
	return a.Name
}

// Transactions fetches the account history for the given range through the
// owning session, oldest first. The result of the most recent fetch is kept
// on the account.
func (a *Account) Transactions(from, to time.Time) ([]Transaction, error) {
	txns, err := a.source.AccountTransactions(a, from, to)
	if err != nil {
		return nil, err
	}
	a.txns = txns
	return a.txns, nil
}

// Fetched returns the transactions from the most recent Transactions call,
// empty until a fetch has happened.
func (a *Account) Fetched() []Transaction {
	return a.txns
}

// Transaction is one row from an account-history page. Amount and Balance
// carry the portal's display precision; Balance is the running balance after
// the transaction.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`

	account *Account
}

// NewTransaction builds a transaction owned by acct.
func NewTransaction(date time.Time, typ, description string, amount, balance decimal.Decimal, acct *Account) Transaction {
	return Transaction{
		Date:        date,
		Type:        typ,
		Description: description,
		Amount:      amount,
		Balance:     balance,
		account:     acct,
	}
}

// Account returns the account this transaction belongs to.
func (t Transaction) Account() *Account {
	return t.account
}
