// Package goquery discovers static assets referenced by HTML pages.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mtgrules"
	"golang.org/x/net/html"
)

var _ mtgrules.AssetExtractor = (*AssetExtractor)(nil)

// assetSelectors maps CSS selectors to the attribute holding the asset URL.
var assetSelectors = []struct {
	selector string
	attr     string
}{
	{`link[href]`, "href"},
	{`script[src]`, "src"},
	{`img[src]`, "src"},
	{`source[src]`, "src"},
}

// AssetExtractor finds stylesheets, scripts, icons and images referenced by
// a page.
type AssetExtractor struct{}

// NewAssetExtractor creates a new AssetExtractor.
func NewAssetExtractor() *AssetExtractor {
	return &AssetExtractor{}
}

// ExtractAssets returns absolute, deduplicated asset URLs in document order.
// Only URLs on the page's host whose path starts with prefix are returned.
func (e *AssetExtractor) ExtractAssets(page string, pageURL string, prefix string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, mtgrules.Errorf(mtgrules.EINVALID, "invalid page URL: %v", err)
	}

	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, mtgrules.Errorf(mtgrules.EINVALID, "failed to parse HTML: %v", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	// <base href> changes how relative references resolve.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved := resolveURL(base, href); resolved != "" {
			if u, err := url.Parse(resolved); err == nil {
				base = u
			}
		}
	}

	seen := make(map[string]bool)
	var assets []string
	for _, s := range assetSelectors {
		doc.Find(s.selector).Each(func(_ int, sel *goquery.Selection) {
			ref, _ := sel.Attr(s.attr)
			ref = strings.TrimSpace(ref)
			if ref == "" || isNonHTTPLink(ref) {
				return
			}
			if sel.Is("link") && !isAssetLink(sel) {
				return
			}

			resolved := resolveURL(base, ref)
			if resolved == "" || seen[resolved] {
				return
			}
			u, err := url.Parse(resolved)
			if err != nil || u.Host != base.Host || !strings.HasPrefix(u.Path, prefix) {
				return
			}

			seen[resolved] = true
			assets = append(assets, resolved)
		})
	}

	return assets, nil
}

// isAssetLink reports whether a <link> element refers to a fetchable
// resource rather than navigation metadata.
func isAssetLink(sel *goquery.Selection) bool {
	rel, _ := sel.Attr("rel")
	for _, r := range strings.Fields(strings.ToLower(rel)) {
		switch r {
		case "stylesheet", "icon", "apple-touch-icon", "manifest", "preload", "modulepreload":
			return true
		}
	}
	return false
}

// resolveURL resolves href against base and strips the fragment.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a reference uses a scheme that cannot be fetched.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
