package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"github.com/lombahub/lomba-events/internal/config"
	"github.com/lombahub/lomba-events/internal/record"
)

const UserAgent = "lomba-events/1.0 (github.com/lombahub/lomba-events)"

// Scraper fetches and parses competition listing pages.
type Scraper struct {
	client *http.Client
	retry  config.RetryPolicy
	source config.SourceConfig
}

// New creates a Scraper for one configured source.
func New(source config.SourceConfig, retry config.RetryPolicy) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: retry.Timeout()},
		retry:  retry,
		source: source,
	}
}

// FetchEvents fetches the source's listing page and parses its raw
// records. Each record carries the source name and falls back to the
// listing URL as its own URL.
func (s *Scraper) FetchEvents(ctx context.Context) ([]record.RawEvent, error) {
	body, err := s.fetch(ctx, s.source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}
	defer body.Close()

	events, err := ParseListing(body)
	if err != nil {
		return nil, fmt.Errorf("parsing listing: %w", err)
	}

	for i := range events {
		events[i].SourceName = s.source.Name
		if events[i].URL == "" {
			events[i].URL = s.source.URL
		}
		if events[i].Organizer == "" {
			events[i].Organizer = s.source.DefaultOrganizer
		}
	}
	return events, nil
}

// Enrich deep-scrapes the event's detail page and merges the extra
// fields into the record. Missing detail data is not an error; the
// record simply stays as the listing produced it.
func (s *Scraper) Enrich(ctx context.Context, ev record.RawEvent) (record.RawEvent, error) {
	if ev.URL == "" || ev.URL == s.source.URL {
		return ev, nil
	}

	body, err := s.fetch(ctx, ev.URL)
	if err != nil {
		return ev, fmt.Errorf("fetching detail page: %w", err)
	}
	defer body.Close()

	detail, err := ParseDetail(body)
	if err != nil {
		return ev, fmt.Errorf("parsing detail page: %w", err)
	}

	if detail.DateText != "" {
		ev.DateText = detail.DateText
	}
	if detail.RegistrationURL != "" && ev.RegistrationURL == "" {
		ev.RegistrationURL = detail.RegistrationURL
	}
	if detail.Description != "" && ev.Description == "" {
		ev.Description = detail.Description
	}
	return ev, nil
}

// fetch retrieves a URL with exponential backoff on transient failures.
func (s *Scraper) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retry.InitialDelay()
	policy.MaxInterval = s.retry.MaxDelay()

	var body io.ReadCloser
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			err = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		body = resp.Body
		return nil
	}

	wrapped := backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(s.retry.MaxAttempts-1)), ctx)
	if err := backoff.Retry(operation, wrapped); err != nil {
		return nil, err
	}
	return body, nil
}

// posterURLPattern pulls the image URL out of an inline style attribute
// like `background: url("https://...")`.
var posterURLPattern = regexp.MustCompile(`url\(([^)]+)\)`)

// ParseListing extracts raw records from a listing page. The selectors
// target the blog-style layout used by infolombait.com and similar
// sites: one div.post-outer per event with a title anchor, a summary
// span, a poster thumb, and a published timestamp.
func ParseListing(r io.Reader) ([]record.RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var events []record.RawEvent
	doc.Find("div.post-outer").Each(func(i int, sel *goquery.Selection) {
		title := sel.Find("h2.post-title a, h3.post-title a").First()
		if title.Length() == 0 {
			return
		}

		ev := record.RawEvent{
			TitleRaw: strings.TrimSpace(title.Text()),
			URL:      title.AttrOr("href", ""),
		}
		ev.Description = strings.TrimSpace(sel.Find("div.resumo span").First().Text())

		if style, ok := sel.Find("div.thumb a").First().Attr("style"); ok {
			ev.PosterURL = extractPosterURL(style)
		}
		if published, ok := sel.Find("abbr.published").First().Attr("title"); ok {
			ev.DateText = strings.TrimSpace(published)
		}

		events = append(events, ev)
	})

	return dedupeByURL(events), nil
}

// Detail holds the extra fields a detail page yields.
type Detail struct {
	DateText        string
	RegistrationURL string
	Description     string
}

var deadlineLinePattern = regexp.MustCompile(`(?i)(?:Batas Pendaftaran|Deadline|Masa Pendaftaran)\s*:\s*([^\n]+)`)

// registrationAnchorKeywords mark an anchor's text as a registration
// link.
var registrationAnchorKeywords = []string{"daftar", "registrasi", "pendaftaran", "register", "form"}

// shortlinkDomains are the common form shorteners a registration link
// hides behind when the anchor text says nothing useful.
var shortlinkDomains = []string{"bit.ly", "s.id", "linktr.ee", "forms.gle", "t.ly"}

// ParseDetail extracts the deadline line and registration link from an
// event detail page. Anchors whose text mentions registering win over
// bare shortlinks.
func ParseDetail(r io.Reader) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Detail{}, fmt.Errorf("parsing HTML: %w", err)
	}

	var detail Detail
	body := doc.Find("div.post-body").First()
	if body.Length() == 0 {
		return detail, nil
	}

	text := strings.TrimSpace(body.Text())
	detail.Description = text
	if m := deadlineLinePattern.FindStringSubmatch(text); m != nil {
		detail.DateText = strings.TrimSpace(m[1])
	}

	body.Find("a[href]").EachWithBreak(func(i int, a *goquery.Selection) bool {
		anchorText := strings.ToLower(strings.TrimSpace(a.Text()))
		for _, kw := range registrationAnchorKeywords {
			if strings.Contains(anchorText, kw) {
				detail.RegistrationURL = a.AttrOr("href", "")
				return false
			}
		}
		return true
	})
	if detail.RegistrationURL == "" {
		body.Find("a[href]").EachWithBreak(func(i int, a *goquery.Selection) bool {
			href := a.AttrOr("href", "")
			for _, domain := range shortlinkDomains {
				if strings.Contains(href, domain) {
					detail.RegistrationURL = href
					return false
				}
			}
			return true
		})
	}

	return detail, nil
}

func extractPosterURL(style string) string {
	m := posterURLPattern.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], `"' `)
}

func dedupeByURL(events []record.RawEvent) []record.RawEvent {
	seen := make(map[string]bool, len(events))
	unique := events[:0:0]
	for _, ev := range events {
		if ev.URL != "" && seen[ev.URL] {
			continue
		}
		seen[ev.URL] = true
		unique = append(unique, ev)
	}
	return unique
}
