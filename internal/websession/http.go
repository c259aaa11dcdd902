package websession

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// HTTPSession implements Session over net/http with a cookie jar, the way a
// browser would carry the portal's session cookies between pages.
type HTTPSession struct {
	client *http.Client
	log    zerolog.Logger
	page   *Page
}

// NewHTTPSession builds a session around client. A nil client gets a default
// one with a fresh cookie jar.
func NewHTTPSession(client *http.Client, log zerolog.Logger) *HTTPSession {
	if client == nil {
		client = &http.Client{}
	}
	if client.Jar == nil {
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
	}
	return &HTTPSession{client: client, log: log}
}

func (s *HTTPSession) Get(rawURL string) (*Page, error) {
	s.log.Debug().Str("url", rawURL).Msg("get")
	resp, err := s.client.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetch, rawURL, err)
	}
	return s.readPage(resp)
}

func (s *HTTPSession) FollowLink(pattern *regexp.Regexp) (*Page, error) {
	if s.page == nil {
		return nil, ErrNoPage
	}
	var href string
	found := false
	s.page.doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !pattern.MatchString(strings.TrimSpace(a.Text())) {
			return true
		}
		href, found = a.Attr("href")
		return !found
	})
	if !found {
		return nil, fmt.Errorf("%w: no anchor matching %q", ErrLinkNotFound, pattern)
	}
	target, err := s.page.url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("%w: bad href %q: %v", ErrLinkNotFound, href, err)
	}
	s.log.Debug().Str("pattern", pattern.String()).Str("href", target.String()).Msg("follow link")
	return s.Get(target.String())
}

func (s *HTTPSession) SubmitForm(name string, fields map[string]string, button string) (*Page, error) {
	if s.page == nil {
		return nil, ErrNoPage
	}
	form := s.page.doc.Find(fmt.Sprintf("form[name=%q]", name)).First()
	if form.Length() == 0 {
		form = s.page.doc.Find(fmt.Sprintf("form#%s", name)).First()
	}
	if form.Length() == 0 {
		return nil, fmt.Errorf("%w: form %q", ErrFormNotFound, name)
	}

	values := formDefaults(form)
	for k, v := range fields {
		values.Set(k, v)
	}

	if button != "" {
		btn := findButton(form, button)
		if btn == nil {
			return nil, fmt.Errorf("%w: button %q in form %q", ErrButtonNotFound, button, name)
		}
		if n, ok := btn.Attr("name"); ok && n != "" {
			values.Set(n, btn.AttrOr("value", button))
		}
	}

	action := form.AttrOr("action", "")
	target, err := s.page.url.Parse(action)
	if err != nil {
		return nil, fmt.Errorf("%w: bad action %q: %v", ErrSubmit, action, err)
	}

	method := strings.ToUpper(form.AttrOr("method", "GET"))
	s.log.Debug().Str("form", name).Str("method", method).Str("action", target.String()).Msg("submit form")

	var resp *http.Response
	if method == "POST" {
		resp, err = s.client.PostForm(target.String(), values)
	} else {
		target.RawQuery = values.Encode()
		resp, err = s.client.Get(target.String())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrSubmit, method, target, err)
	}
	return s.readPage(resp)
}

func (s *HTTPSession) Page() *Page {
	return s.page
}

func (s *HTTPSession) readPage(resp *http.Response) (*Page, error) {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, resp.Request.URL, resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrFetch, resp.Request.URL, err)
	}
	s.page = &Page{url: resp.Request.URL, doc: doc}
	return s.page, nil
}

// formDefaults collects the form's pre-filled values: named inputs, selected
// options, textareas. Unchecked checkboxes and radios contribute nothing.
func formDefaults(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input").Each(func(_ int, in *goquery.Selection) {
		name, ok := in.Attr("name")
		if !ok || name == "" {
			return
		}
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); checked {
				values.Set(name, in.AttrOr("value", "on"))
			}
		default:
			values.Set(name, in.AttrOr("value", ""))
		}
	})
	form.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok || name == "" {
			return
		}
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if opt.Length() > 0 {
			values.Set(name, opt.AttrOr("value", strings.TrimSpace(opt.Text())))
		}
	})
	form.Find("textarea").Each(func(_ int, ta *goquery.Selection) {
		if name, ok := ta.Attr("name"); ok && name != "" {
			values.Set(name, ta.Text())
		}
	})
	return values
}

// findButton matches a submit control by its visible label: the value of an
// input[type=submit] or the text of a button element.
func findButton(form *goquery.Selection, label string) *goquery.Selection {
	var match *goquery.Selection
	form.Find("input[type=submit], input[type=image], button").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		text := b.AttrOr("value", "")
		if goquery.NodeName(b) == "button" {
			text = strings.TrimSpace(b.Text())
		}
		if text == label {
			match = b
			return false
		}
		return true
	})
	return match
}
