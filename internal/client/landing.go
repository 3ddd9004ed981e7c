package client

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Markers of an anti-bot interstitial served instead of the category guide
var challengeRegex = regexp.MustCompile(`(?i)captcha|verify you are human|verificação|anti-crawler|access denied`)

type landingPage struct {
	Title     string
	Challenge bool
}

type landingParser struct{}

func newLandingParser() *landingParser {
	return &landingParser{}
}

// ParseLandingPage reads the page title and flags challenge pages
func (p *landingParser) ParseLandingPage(html string) (*landingPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &landingPage{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	if challengeRegex.MatchString(page.Title) {
		page.Challenge = true
		return page, nil
	}

	doc.Find("form[action], iframe[src], div[id], div[class]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		for _, attr := range []string{"action", "src", "id", "class"} {
			if value, exists := s.Attr(attr); exists && challengeRegex.MatchString(value) {
				page.Challenge = true
				return false
			}
		}
		return true
	})

	return page, nil
}
