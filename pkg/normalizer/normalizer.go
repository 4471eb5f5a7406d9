package normalizer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelector matches subtrees that never carry primary content.
const boilerplateSelector = "nav, header, footer, aside, script, style, noscript, iframe, form, " +
	".sidebar, .menu, .navigation, .breadcrumb, .cookie-banner, .banner, .advert"

// contentSelectors are tried in priority order; the first non-empty match
// wins. If none match the remaining body text is used.
var contentSelectors = []string{
	"main",
	"article",
	"[role=main]",
	"#content",
	".content",
	"#mw-content-text",
	".mw-parser-output",
	".documentation",
}

var (
	editMarkerRe = regexp.MustCompile(`\[\s*edit\s*\]`)
	citationRe   = regexp.MustCompile(`\[\d+\]`)
)

// Normalizer turns rendered HTML into clean text: no markup, no boilerplate,
// no whitespace run longer than a single space.
type Normalizer struct {
	selectors []string
}

func New() *Normalizer {
	return &Normalizer{selectors: contentSelectors}
}

func (n *Normalizer) Normalize(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	doc.Find(boilerplateSelector).Remove()

	var text string
	for _, selector := range n.selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			if t := strings.TrimSpace(selected.First().Text()); t != "" {
				text = t
				break
			}
		}
	}

	if text == "" {
		text = doc.Find("body").Text()
	}

	return clean(text), nil
}

func clean(text string) string {
	text = editMarkerRe.ReplaceAllString(text, "")
	text = citationRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimSpace(text)
}
