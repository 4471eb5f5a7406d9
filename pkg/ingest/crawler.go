package ingest

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// crawl ingests startURL and follows same-host links up to MaxDepth. Pages
// are visited once; each page's chunks keep their own sequence numbering.
func (p *Pipeline) crawl(ctx context.Context, startURL string) (int, error) {
	base, err := url.Parse(startURL)
	if err != nil {
		return 0, err
	}

	visited := make(map[string]bool)
	total := 0
	err = p.crawlRecursive(ctx, base.Host, startURL, 0, visited, &total)
	return total, err
}

func (p *Pipeline) crawlRecursive(ctx context.Context, host, urlStr string, depth int, visited map[string]bool, total *int) error {
	if depth > p.config.MaxDepth || visited[urlStr] {
		return nil
	}
	if depth > 0 && !p.shouldVisit(host, urlStr) {
		return nil
	}
	visited[urlStr] = true
	p.logger.Debug("crawling", zap.String("url", urlStr), zap.Int("depth", depth))

	raw, err := p.loader.Fetch(ctx, urlStr)
	if err != nil {
		return err
	}

	n, err := p.ingestHTML(ctx, urlStr, raw)
	if err != nil {
		return err
	}
	*total += n

	for _, link := range extractLinks(raw, urlStr) {
		if err := p.crawlRecursive(ctx, host, link, depth+1, visited, total); err != nil {
			return err
		}
	}
	return nil
}

// shouldVisit applies the same-host, extension and ignore-pattern filters to
// a candidate link.
func (p *Pipeline) shouldVisit(host, urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if parsed.Host != host {
		return false
	}

	path := strings.ToLower(parsed.Path)
	validExt := false
	for _, ext := range p.config.AllowedExtensions {
		if strings.HasSuffix(path, ext) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	for _, pattern := range p.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}
	return true
}

// extractLinks resolves every anchor href in the page against baseURL.
func extractLinks(rawHTML, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, ok := selection.Attr("href")
		if !ok {
			return
		}
		resolved, err := url.Parse(href)
		if err != nil {
			return
		}
		if !resolved.IsAbs() {
			resolved = base.ResolveReference(resolved)
		}
		resolved.Fragment = ""
		links = append(links, resolved.String())
	})
	return links
}
