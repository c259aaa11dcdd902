package dto

import (
	"time"

	"github.com/bankfeed/bot-netbranch/internal/bankbot"
)

// BaseResponse is the envelope shared by every endpoint.
type BaseResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message"`
}

// AccountData is one balances row with money rendered at the portal's
// two-decimal display precision.
type AccountData struct {
	Name      string `json:"name"`
	SortCode  string `json:"sort_code"`
	AccountNo string `json:"account_no"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
}

// TransactionData is one history row.
type TransactionData struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Balance     string `json:"balance"`
}

type ResponseAccounts struct {
	BaseResponse
	Data []AccountData `json:"data"`
}

type ResponseTransactions struct {
	BaseResponse
	Data []TransactionData `json:"data"`
}

// FromAccount maps a scraped account onto its response row.
func FromAccount(a *bankbot.Account) AccountData {
	return AccountData{
		Name:      a.Name,
		SortCode:  a.SortCode(),
		AccountNo: a.AccountNo,
		Balance:   a.Balance.StringFixed(2),
		Available: a.Available.StringFixed(2),
	}
}

// FromTransaction maps a scraped transaction onto its response row.
func FromTransaction(t bankbot.Transaction) TransactionData {
	return TransactionData{
		Date:        t.Date.Format(time.DateOnly),
		Type:        t.Type,
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		Balance:     t.Balance.StringFixed(2),
	}
}
