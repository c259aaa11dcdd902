// Package websession drives a stateful browsing session over plain HTTP:
// fetch a page, follow links by their visible text, fill and submit forms.
// Pages are parsed HTML documents, so callers extract data by structural
// traversal instead of matching raw markup.
package websession

import (
	"errors"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// Each navigation step fails distinctly so callers can tell a dead portal
// from a changed page layout.
var (
	ErrFetch          = errors.New("websession: page fetch failed")
	ErrLinkNotFound   = errors.New("websession: link not found")
	ErrFormNotFound   = errors.New("websession: form not found")
	ErrButtonNotFound = errors.New("websession: submit button not found")
	ErrSubmit         = errors.New("websession: form submission failed")
	ErrNoPage         = errors.New("websession: no current page")
)

// Session is one browsing session. Cookies and the current page persist
// across calls; a Session must not be shared between goroutines.
type Session interface {
	// Get fetches rawURL and makes it the current page.
	Get(rawURL string) (*Page, error)

	// FollowLink finds the first anchor on the current page whose visible
	// text matches pattern and fetches its target.
	FollowLink(pattern *regexp.Regexp) (*Page, error)

	// SubmitForm locates the named form on the current page, overrides its
	// fields with the given values and submits it via the button with the
	// given label. An empty label submits without a button pair.
	SubmitForm(name string, fields map[string]string, button string) (*Page, error)

	// Page returns the current page, nil before the first Get.
	Page() *Page
}

// Page is a fetched, parsed HTML document together with the URL it finally
// resolved to after redirects.
type Page struct {
	url *url.URL
	doc *goquery.Document
}

// NewPage wraps an already-parsed document, for tests and alternate Session
// implementations.
func NewPage(u *url.URL, doc *goquery.Document) *Page {
	return &Page{url: u, doc: doc}
}

// URL returns the page's final URL.
func (p *Page) URL() *url.URL {
	return p.url
}

// Doc returns the parsed document for structural traversal.
func (p *Page) Doc() *goquery.Document {
	return p.doc
}
