package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed/bot-netbranch/internal/bank/netbranch"
	"github.com/bankfeed/bot-netbranch/internal/bankbot"
	"github.com/bankfeed/bot-netbranch/internal/dto"
)

type fakeSource struct {
	txns []bankbot.Transaction
}

func (f *fakeSource) AccountTransactions(acct *bankbot.Account, from, to time.Time) ([]bankbot.Transaction, error) {
	return f.txns, nil
}

type fakeBot struct {
	accounts  []*bankbot.Account
	err       error
	refreshes int
	loggedIn  bool
	logouts   int
}

func (f *fakeBot) Accounts() ([]*bankbot.Account, error) { return f.accounts, f.err }
func (f *fakeBot) Refresh() ([]*bankbot.Account, error) {
	f.refreshes++
	return f.accounts, f.err
}
func (f *fakeBot) Logout() error  { f.logouts++; f.loggedIn = false; return nil }
func (f *fakeBot) LoggedIn() bool { return f.loggedIn }

func newTestBot() *fakeBot {
	src := &fakeSource{}
	checking := bankbot.NewAccount("Checking (1001)", "1001",
		decimal.RequireFromString("500.00"), decimal.RequireFromString("480.00"), src)
	savings := bankbot.NewAccount("Savings (1002)", "1002",
		decimal.RequireFromString("-2000.00"), decimal.RequireFromString("0.00"), src)
	src.txns = []bankbot.Transaction{
		bankbot.NewTransaction(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			"DEBIT", "Groceries", decimal.RequireFromString("-50.00"),
			decimal.RequireFromString("450.00"), checking),
	}
	return &fakeBot{accounts: []*bankbot.Account{checking, savings}}
}

func doRequest(t *testing.T, bot Bot, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	Router(bot, zerolog.Nop()).ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	rec := doRequest(t, newTestBot(), http.MethodGet, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "pong", *resp.Message)
}

func TestAccounts(t *testing.T) {
	bot := newTestBot()
	rec := doRequest(t, bot, http.MethodGet, "/accounts")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ResponseAccounts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, dto.AccountData{
		Name:      "Checking (1001)",
		SortCode:  "Checking (1001)",
		AccountNo: "1001",
		Balance:   "500.00",
		Available: "480.00",
	}, resp.Data[0])
	assert.Equal(t, "-2000.00", resp.Data[1].Balance)
	assert.Equal(t, 0, bot.refreshes)
}

func TestAccounts_Refresh(t *testing.T) {
	bot := newTestBot()
	rec := doRequest(t, bot, http.MethodGet, "/accounts?refresh=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, bot.refreshes)
}

func TestAccounts_BotFailure(t *testing.T) {
	bot := newTestBot()
	bot.err = netbranch.ErrAuthentication
	rec := doRequest(t, bot, http.MethodGet, "/accounts")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTransactions(t *testing.T) {
	rec := doRequest(t, newTestBot(), http.MethodGet,
		"/accounts/1001/transactions?from=2024-01-01&to=2024-01-31")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ResponseTransactions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, dto.TransactionData{
		Date:        "2024-01-05",
		Type:        "DEBIT",
		Description: "Groceries",
		Amount:      "-50.00",
		Balance:     "450.00",
	}, resp.Data[0])
}

func TestTransactions_MissingBounds(t *testing.T) {
	rec := doRequest(t, newTestBot(), http.MethodGet, "/accounts/1001/transactions?from=2024-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, newTestBot(), http.MethodGet, "/accounts/1001/transactions")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactions_UnknownAccount(t *testing.T) {
	rec := doRequest(t, newTestBot(), http.MethodGet,
		"/accounts/9999/transactions?from=2024-01-01&to=2024-01-31")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogout(t *testing.T) {
	bot := newTestBot()
	bot.loggedIn = true
	rec := doRequest(t, bot, http.MethodPost, "/logout")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, bot.logouts)

	// Already logged out: still succeeds, no second logout.
	rec = doRequest(t, bot, http.MethodPost, "/logout")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, bot.logouts)
}
