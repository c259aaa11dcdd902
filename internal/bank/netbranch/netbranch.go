// Package netbranch drives a NetBranch-style online-banking portal through a
// web session: log in with member credentials, scrape account balances off
// the welcome page, request and scrape account histories, log out.
//
// The portal's markup is the only contract. Page constants below record the
// observed form names, field names and link texts; they change whenever the
// bank feels like it.
package netbranch

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bankfeed/bot-netbranch/internal/bankbot"
	"github.com/bankfeed/bot-netbranch/internal/websession"
)

const (
	BANKBOT_NAME = "NETBRANCH"

	FORM_LOGIN           = "frmLogin"
	FIELD_LOGIN_USER     = "USERID"
	FIELD_LOGIN_PASSWORD = "PASSWORD"
	BUTTON_LOGIN         = "Login"

	// Substring of the post-login URL that marks a successful login.
	MARKER_WELCOME_URL = "welcome"

	LINK_LOGOUT          = `Logout`
	LINK_ACCOUNT_HISTORY = `Account History`

	FORM_HISTORY        = "HistoryRequest"
	BUTTON_VIEW_HISTORY = "View History"

	FIELD_FROM_MONTH = "FM"
	FIELD_FROM_DAY   = "FD"
	FIELD_FROM_YEAR  = "FY"
	FIELD_TO_MONTH   = "TM"
	FIELD_TO_DAY     = "TD"
	FIELD_TO_YEAR    = "TY"
)

var (
	reLinkLogout  = regexp.MustCompile(LINK_LOGOUT)
	reLinkHistory = regexp.MustCompile(LINK_ACCOUNT_HISTORY)
)

// Session is one member's scripted browsing session against one portal
// instance. Every public fetch is a self-contained login/fetch/logout
// transaction, so no authenticated session outlives the call that needed it.
//
// A Session is not safe for concurrent use; give each goroutine its own.
type Session struct {
	cred bankbot.Credential
	web  websession.Session
	log  zerolog.Logger

	loggedIn   bool
	memberName string
	accounts   []*bankbot.Account
}

// New builds a session for the given credential. URL, account and password
// are all required.
func New(cred bankbot.Credential, web websession.Session, log zerolog.Logger) (*Session, error) {
	switch {
	case cred.URL == "":
		return nil, fmt.Errorf("%w: url is required", ErrInvalidArgument)
	case cred.Account == "":
		return nil, fmt.Errorf("%w: account is required", ErrInvalidArgument)
	case cred.Password == "":
		return nil, fmt.Errorf("%w: password is required", ErrInvalidArgument)
	}
	return &Session{cred: cred, web: web, log: log}, nil
}

// Login fetches the portal's login page, submits the credentials and checks
// that the portal landed on the welcome page. Returns the welcome page.
func (s *Session) Login() (*websession.Page, error) {
	s.log.Debug().Str("url", s.cred.URL).Msg("login")
	if _, err := s.web.Get(s.cred.URL); err != nil {
		return nil, fmt.Errorf("%w: fetching login page: %v", ErrAuthentication, err)
	}
	page, err := s.web.SubmitForm(FORM_LOGIN, map[string]string{
		FIELD_LOGIN_USER:     s.cred.Account,
		FIELD_LOGIN_PASSWORD: s.cred.Password,
	}, BUTTON_LOGIN)
	if err != nil {
		return nil, fmt.Errorf("%w: submitting login form: %v", ErrAuthentication, err)
	}
	if !strings.Contains(strings.ToLower(page.URL().String()), MARKER_WELCOME_URL) {
		return nil, fmt.Errorf("%w: credentials rejected, landed on %s", ErrAuthentication, page.URL())
	}
	s.loggedIn = true
	if name := parseMemberName(page); name != "" {
		s.memberName = name
		s.log.Debug().Str("member", name).Msg("logged in")
	}
	return page, nil
}

// Logout follows the portal's Logout link and drops the login state.
func (s *Session) Logout() error {
	s.log.Debug().Msg("logout")
	if _, err := s.web.FollowLink(reLinkLogout); err != nil {
		return fmt.Errorf("%w: logout: %v", ErrNavigation, err)
	}
	s.loggedIn = false
	return nil
}

// LoggedIn reports whether the session currently holds an authenticated
// portal session.
func (s *Session) LoggedIn() bool {
	return s.loggedIn
}

// MemberName returns the display name scraped from the welcome banner on the
// most recent login, if any. Informational only.
func (s *Session) MemberName() string {
	return s.memberName
}

// Accounts returns the balances snapshot, scraping it on the first call and
// serving the cached snapshot afterwards. Use Refresh to force a refetch.
func (s *Session) Accounts() ([]*bankbot.Account, error) {
	if s.accounts != nil {
		return s.accounts, nil
	}
	return s.Refresh()
}

// Refresh logs in, scrapes the welcome page for account rows, logs out and
// replaces the cached snapshot.
func (s *Session) Refresh() ([]*bankbot.Account, error) {
	page := s.web.Page()
	if !s.loggedIn {
		var err error
		if page, err = s.Login(); err != nil {
			return nil, err
		}
	}
	accounts := parseAccounts(page, s)
	if err := s.Logout(); err != nil {
		return nil, err
	}
	s.log.Info().Int("accounts", len(accounts)).Msg("balances fetched")
	s.accounts = accounts
	return s.accounts, nil
}

// AccountTransactions fetches acct's history between from and to inclusive,
// oldest first. Both bounds are required; they are truncated to calendar
// dates before use. Called by Account.Transactions through the
// bankbot.StatementSource back-reference.
func (s *Session) AccountTransactions(acct *bankbot.Account, from, to time.Time) ([]bankbot.Transaction, error) {
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: both from and to dates are required", ErrInvalidArgument)
	}
	from, to = dateOnly(from), dateOnly(to)

	if !s.loggedIn {
		if _, err := s.Login(); err != nil {
			return nil, err
		}
	}
	if _, err := s.web.FollowLink(reLinkHistory); err != nil {
		return nil, fmt.Errorf("%w: account history menu: %v", ErrNavigation, err)
	}
	reAccount := regexp.MustCompile(regexp.QuoteMeta("(" + acct.AccountNo + ")"))
	if _, err := s.web.FollowLink(reAccount); err != nil {
		return nil, fmt.Errorf("%w: history link for account %s: %v", ErrNavigation, acct.AccountNo, err)
	}
	page, err := s.web.SubmitForm(FORM_HISTORY, historyFields(from, to), BUTTON_VIEW_HISTORY)
	if err != nil {
		return nil, fmt.Errorf("%w: submitting history request: %v", ErrNavigation, err)
	}

	txns := parseTransactions(page, acct)
	if err := s.Logout(); err != nil {
		return nil, err
	}
	s.log.Info().Str("account_no", acct.AccountNo).Int("transactions", len(txns)).Msg("history fetched")
	return txns, nil
}

// historyFields maps a date range onto the portal's six history-request
// fields. Months are zero-padded; days and years are not.
func historyFields(from, to time.Time) map[string]string {
	return map[string]string{
		FIELD_FROM_MONTH: fmt.Sprintf("%02d", int(from.Month())),
		FIELD_FROM_DAY:   fmt.Sprintf("%d", from.Day()),
		FIELD_FROM_YEAR:  fmt.Sprintf("%d", from.Year()),
		FIELD_TO_MONTH:   fmt.Sprintf("%02d", int(to.Month())),
		FIELD_TO_DAY:     fmt.Sprintf("%d", to.Day()),
		FIELD_TO_YEAR:    fmt.Sprintf("%d", to.Year()),
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
