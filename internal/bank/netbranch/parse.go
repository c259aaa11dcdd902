package netbranch

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/bankfeed/bot-netbranch/internal/bankbot"
	"github.com/bankfeed/bot-netbranch/internal/websession"
)

var (
	// Account anchors read "<name> (<account_no>)".
	reAccountName = regexp.MustCompile(`^(.*?)\s*\((\w+)\)$`)

	// Currency cells: optional dollar sign, thousands commas, two decimal
	// places, parentheses for negatives.
	reCurrency = regexp.MustCompile(`^\(?-?\$?\d[\d,]*\.\d{2}\)?$`)

	reWelcome = regexp.MustCompile(`Welcome,?\s+(\S.*)`)

	reSpaces = regexp.MustCompile(`\s+`)
)

// dateLayouts accepted for transaction dates, tried in order.
var dateLayouts = []string{"1/2/2006", "2006-01-02"}

// ParseAmount parses one currency cell into a decimal. Thousands commas and
// the dollar sign are stripped. A trailing parenthesis marks a negative
// value; a leading minus sign is honored as a secondary convention.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	neg := false
	if strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ParseDate parses a date cell, accepting the portal's m/d/yyyy form among
// the known layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAccounts scrapes the welcome page for account rows: a table row
// holding an anchor named "<name> (<account_no>)" and two currency cells.
// The portal's column order is fixed: balance first, then available. Rows
// repeating an already-seen account number are nested-table echoes and are
// skipped. No matching rows is a legitimate empty result, not an error.
func parseAccounts(page *websession.Page, source bankbot.StatementSource) []*bankbot.Account {
	accounts := []*bankbot.Account{}
	seen := map[string]bool{}
	page.Doc().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		anchor := tr.Find("a").First()
		if anchor.Length() == 0 {
			return
		}
		name := collapse(anchor.Text())
		m := reAccountName.FindStringSubmatch(name)
		if m == nil || seen[m[2]] {
			return
		}
		amounts := currencyCells(tr)
		if len(amounts) < 2 {
			return
		}
		seen[m[2]] = true
		accounts = append(accounts, bankbot.NewAccount(name, m[2], amounts[0], amounts[1], source))
	})
	return accounts
}

// currencyCells collects the row's currency-formatted values in document
// order, preferring span cells and falling back to bare table cells.
func currencyCells(tr *goquery.Selection) []decimal.Decimal {
	for _, selector := range []string{"span", "td"} {
		var amounts []decimal.Decimal
		tr.Find(selector).Each(func(_ int, cell *goquery.Selection) {
			text := collapse(cell.Text())
			if !reCurrency.MatchString(text) {
				return
			}
			if d, err := ParseAmount(text); err == nil {
				amounts = append(amounts, d)
			}
		})
		if len(amounts) >= 2 {
			return amounts
		}
	}
	return nil
}

// parseTransactions scrapes a history page for five-column transaction rows:
// date, type, description, amount, running balance. The portal emits an
// occasional stray leading cell before the date; it is dropped when present.
// The page lists newest first; the result is reversed to oldest first.
func parseTransactions(page *websession.Page, acct *bankbot.Account) []bankbot.Transaction {
	txns := []bankbot.Transaction{}
	page.Doc().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, collapse(td.Text()))
		})
		if len(cells) > 5 {
			if _, err := ParseDate(cells[0]); err != nil {
				cells = cells[1:]
			}
		}
		if len(cells) < 5 {
			return
		}
		date, err := ParseDate(cells[0])
		if err != nil {
			return
		}
		amount, err := ParseAmount(cells[3])
		if err != nil {
			return
		}
		balance, err := ParseAmount(cells[4])
		if err != nil {
			return
		}
		txns = append(txns, bankbot.NewTransaction(date, cells[1], cells[2], amount, balance, acct))
	})
	slices.Reverse(txns)
	return txns
}

// parseMemberName pulls the member's display name out of the welcome banner.
// The shortest match wins so enclosing layout cells don't swallow the banner.
func parseMemberName(page *websession.Page) string {
	name := ""
	page.Doc().Find("td, b, font, span, h1, h2").Each(func(_ int, sel *goquery.Selection) {
		m := reWelcome.FindStringSubmatch(collapse(sel.Text()))
		if m == nil {
			return
		}
		if name == "" || len(m[1]) < len(name) {
			name = m[1]
		}
	})
	return name
}

func collapse(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}
