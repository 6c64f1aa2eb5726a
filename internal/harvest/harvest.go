// Package harvest finds links, profile handles and contact addresses in résumé text.
package harvest

import (
	"regexp"
	"strings"
)

// Category buckets a harvested link.
type Category string

const (
	CategoryGitHub       Category = "github"
	CategoryLinkedIn     Category = "linkedin"
	CategoryPortfolio    Category = "portfolio"
	CategorySocial       Category = "social"
	CategoryProfessional Category = "professional"
	CategoryOther        Category = "other"
)

// ByCategory holds links grouped by category. Every list is non-nil so it
// always serializes as an array.
type ByCategory struct {
	GitHub       []string `json:"github"`
	LinkedIn     []string `json:"linkedin"`
	Portfolio    []string `json:"portfolio"`
	Social       []string `json:"social"`
	Professional []string `json:"professional"`
	Other        []string `json:"other"`
}

// Result is the deduplicated candidate list and its categorization.
type Result struct {
	All        []string   `json:"all"`
	ByCategory ByCategory `json:"byCategory"`
}

// First returns the first link in a category, or "".
func (r Result) First(c Category) string {
	if list := r.ByCategory.list(c); len(list) > 0 {
		return list[0]
	}
	return ""
}

func (b *ByCategory) list(c Category) []string {
	switch c {
	case CategoryGitHub:
		return b.GitHub
	case CategoryLinkedIn:
		return b.LinkedIn
	case CategoryPortfolio:
		return b.Portfolio
	case CategorySocial:
		return b.Social
	case CategoryProfessional:
		return b.Professional
	default:
		return b.Other
	}
}

func (b *ByCategory) add(c Category, url string) {
	switch c {
	case CategoryGitHub:
		b.GitHub = append(b.GitHub, url)
	case CategoryLinkedIn:
		b.LinkedIn = append(b.LinkedIn, url)
	case CategoryPortfolio:
		b.Portfolio = append(b.Portfolio, url)
	case CategorySocial:
		b.Social = append(b.Social, url)
	case CategoryProfessional:
		b.Professional = append(b.Professional, url)
	default:
		b.Other = append(b.Other, url)
	}
}

var tlds = []string{
	"com", "org", "net", "edu", "gov", "mil", "int", "io", "dev", "me", "co", "ai", "app", "tech", "info", "biz",
	"xyz", "site", "online", "blog", "page", "design", "studio", "art", "cloud", "codes", "software", "engineer",
	"digital", "website", "space", "live", "pro", "name", "today", "work", "one", "ly", "gg", "tv", "fm", "sh",
	"us", "uk", "ca", "au", "de", "fr", "es", "it", "nl", "se", "no", "dk", "fi", "ch", "at", "be", "ie", "pl",
	"pt", "cz", "ru", "in", "cn", "jp", "kr", "sg", "hk", "nz", "za", "br", "mx", "ar", "ng", "ke", "eu",
}

var bareDomainPattern = regexp.MustCompile(`(?i)\b(?:www\.)?(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+(?:` +
	strings.Join(tlds, "|") + `)\b(?:/[^\s<>"'()\[\]{}]*)?`)

var (
	fullURLPattern   = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)
	emailPattern     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	githubPattern    = regexp.MustCompile(`(?i)github\.com/[A-Za-z0-9_-]+`)
	handlePattern    = regexp.MustCompile(`(?:^|[\s(,;])(@[A-Za-z0-9_]{1,30})\b`)
	shortenerPattern = regexp.MustCompile(`(?i)\b(?:bit\.ly|t\.co|tinyurl\.com|goo\.gl|ow\.ly|buff\.ly|rebrand\.ly|is\.gd|lnkd\.in|cutt\.ly)/[A-Za-z0-9_-]+`)
)

const trailingPunct = ".,;:!?"

// Harvest runs every pattern over text and categorizes the deduplicated matches.
// It is pure: the same text always yields the same result, order included.
func Harvest(text string) Result {
	var candidates []string
	candidates = append(candidates, trimAll(fullURLPattern.FindAllString(text, -1))...)
	candidates = append(candidates, trimAll(standalone(bareDomainPattern, text))...)
	candidates = append(candidates, emailPattern.FindAllString(text, -1)...)
	candidates = append(candidates, standalone(githubPattern, text)...)
	for _, m := range handlePattern.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, standalone(shortenerPattern, text)...)

	res := Result{
		All: []string{},
		ByCategory: ByCategory{
			GitHub:       []string{},
			LinkedIn:     []string{},
			Portfolio:    []string{},
			Social:       []string{},
			Professional: []string{},
			Other:        []string{},
		},
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		res.All = append(res.All, c)
		res.ByCategory.add(Categorize(c), c)
	}
	return res
}

// standalone returns matches that are not embedded in a longer URL or an email address.
func standalone(pattern *regexp.Regexp, text string) []string {
	var out []string
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			prev := text[loc[0]-1]
			if prev == '@' || prev == '/' || prev == '.' {
				continue
			}
		}
		if loc[1] < len(text) && text[loc[1]] == '@' {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

func trimAll(matches []string) []string {
	for i, m := range matches {
		matches[i] = strings.TrimRight(m, trailingPunct)
	}
	return matches
}

// Categorize assigns a single category, first matching rule wins.
func Categorize(url string) Category {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "github.com"):
		return CategoryGitHub
	case strings.Contains(lower, "linkedin.com"):
		return CategoryLinkedIn
	case strings.Contains(lower, "portfolio"), hasSuffixHost(lower, ".dev"), hasSuffixHost(lower, ".me"):
		return CategoryPortfolio
	case strings.Contains(lower, "twitter.com"), strings.Contains(lower, "instagram.com"), strings.Contains(lower, "facebook.com"):
		return CategorySocial
	case strings.Contains(lower, "stackoverflow.com"), strings.Contains(lower, "medium.com"), strings.Contains(lower, "dev.to"):
		return CategoryProfessional
	default:
		return CategoryOther
	}
}

// hasSuffixHost reports whether the URL ends with suffix, ignoring a trailing slash.
func hasSuffixHost(lower, suffix string) bool {
	return strings.HasSuffix(strings.TrimRight(lower, "/"), suffix)
}
