// Package server exposes the scraping bot as a small JSON service, one
// endpoint per portal operation.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bankfeed/bot-netbranch/internal/bank/netbranch"
	"github.com/bankfeed/bot-netbranch/internal/bankbot"
	"github.com/bankfeed/bot-netbranch/internal/dto"
)

const DEFAULT_PORT = "8090"

// Bot is the portal session the server fronts. Implemented by
// *netbranch.Session.
type Bot interface {
	Accounts() ([]*bankbot.Account, error)
	Refresh() ([]*bankbot.Account, error)
	Logout() error
	LoggedIn() bool
}

type handler struct {
	bot Bot
	log zerolog.Logger
}

// New builds the HTTP server. An empty port falls back to the default.
func New(bot Bot, port string, log zerolog.Logger) *http.Server {
	if port == "" {
		port = DEFAULT_PORT
	}
	return &http.Server{
		Addr:         ":" + port,
		Handler:      http.TimeoutHandler(Router(bot, log), 45*time.Second, "Timeout!\n"),
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
}

// Router builds just the route handler, for tests and embedding.
func Router(bot Bot, log zerolog.Logger) http.Handler {
	h := &handler{bot: bot, log: log}
	r := chi.NewRouter()
	r.Get("/ping", h.ping)
	r.Get("/accounts", h.accounts)
	r.Get("/accounts/{accountNo}/transactions", h.transactions)
	r.Post("/logout", h.logout)
	return r
}

func (h *handler) ping(w http.ResponseWriter, _ *http.Request) {
	msg := "pong"
	writeJSON(w, http.StatusOK, dto.BaseResponse{Success: true, Message: &msg})
}

func (h *handler) accounts(w http.ResponseWriter, r *http.Request) {
	var (
		accounts []*bankbot.Account
		err      error
	)
	if r.URL.Query().Get("refresh") != "" {
		accounts, err = h.bot.Refresh()
	} else {
		accounts, err = h.bot.Accounts()
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	data := make([]dto.AccountData, 0, len(accounts))
	for _, a := range accounts {
		data = append(data, dto.FromAccount(a))
	}
	writeJSON(w, http.StatusOK, dto.ResponseAccounts{
		BaseResponse: dto.BaseResponse{Success: true},
		Data:         data,
	})
}

func (h *handler) transactions(w http.ResponseWriter, r *http.Request) {
	accountNo := chi.URLParam(r, "accountNo")
	from, err := queryDate(r, "from")
	if err != nil {
		h.writeError(w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		h.writeError(w, err)
		return
	}

	accounts, err := h.bot.Accounts()
	if err != nil {
		h.writeError(w, err)
		return
	}
	var acct *bankbot.Account
	for _, a := range accounts {
		if a.AccountNo == accountNo {
			acct = a
			break
		}
	}
	if acct == nil {
		msg := "unknown account " + accountNo
		writeJSON(w, http.StatusNotFound, dto.BaseResponse{Success: false, Message: &msg})
		return
	}

	txns, err := acct.Transactions(from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	data := make([]dto.TransactionData, 0, len(txns))
	for _, t := range txns {
		data = append(data, dto.FromTransaction(t))
	}
	writeJSON(w, http.StatusOK, dto.ResponseTransactions{
		BaseResponse: dto.BaseResponse{Success: true},
		Data:         data,
	})
}

func (h *handler) logout(w http.ResponseWriter, _ *http.Request) {
	if h.bot.LoggedIn() {
		if err := h.bot.Logout(); err != nil {
			h.writeError(w, err)
			return
		}
	}
	msg := "Logout successfully"
	writeJSON(w, http.StatusOK, dto.BaseResponse{Success: true, Message: &msg})
}

// queryDate reads a required YYYY-MM-DD query parameter. A missing value is
// an invalid-argument error so the bot is never reached without bounds.
func queryDate(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: missing %s date", netbranch.ErrInvalidArgument, key)
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad %s date %q", netbranch.ErrInvalidArgument, key, raw)
	}
	return t, nil
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, netbranch.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, netbranch.ErrAuthentication), errors.Is(err, netbranch.ErrNavigation):
		status = http.StatusBadGateway
	}
	h.log.Error().Err(err).Int("status", status).Msg("request failed")
	msg := err.Error()
	writeJSON(w, status, dto.BaseResponse{Success: false, Message: &msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
