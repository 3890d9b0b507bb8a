package discovery

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/shubhamdixena/opportunity-harvester/app/scrape"
)

// Discovery source types, in probe order.
const (
	SourceRSS     = "rss"
	SourceSitemap = "sitemap"
	SourceLinks   = "links"
)

const (
	maxFeedURLs    = 30
	maxSitemapURLs = 30
	maxLinkURLs    = 20
	maxTotalURLs   = 50
)

var feedPaths = []string{"/feed", "/rss", "/feed.xml", "/rss.xml", "/atom.xml", "/index.xml"}

var sitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemaps/sitemap.xml"}

// Result is the outcome of one discovery pass over a site root.
type Result struct {
	Success bool
	URLs    []string
	Source  string
}

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlLoc `xml:"url"`
}

type xmlLoc struct {
	Loc string `xml:"loc"`
}

type xmlSitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []xmlLoc `xml:"sitemap"`
}

// Discoverer finds candidate content URLs on a site, trying RSS/Atom feeds,
// then XML sitemaps, then raw link scraping of the landing page.
// First strategy to yield URLs wins.
type Discoverer struct {
	fetcher    *scrape.Fetcher
	feedParser *gofeed.Parser
}

func NewDiscoverer(fetcher *scrape.Fetcher) *Discoverer {
	return &Discoverer{
		fetcher:    fetcher,
		feedParser: gofeed.NewParser(),
	}
}

// Run probes the site. Network failures at individual probe steps fall
// through to the next strategy; only total exhaustion yields Success=false.
func (d *Discoverer) Run(ctx context.Context, siteURL string) Result {
	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		slog.Warn("Invalid site URL for discovery", "url", siteURL, "error", err)
		return Result{Success: false}
	}

	if urls := d.discoverFromFeeds(ctx, base); len(urls) > 0 {
		return Result{Success: true, URLs: capURLs(urls, maxTotalURLs), Source: SourceRSS}
	}

	if urls := d.discoverFromSitemaps(ctx, base); len(urls) > 0 {
		return Result{Success: true, URLs: capURLs(urls, maxTotalURLs), Source: SourceSitemap}
	}

	if urls := d.discoverFromLinks(ctx, base); len(urls) > 0 {
		return Result{Success: true, URLs: capURLs(urls, maxTotalURLs), Source: SourceLinks}
	}

	return Result{Success: false}
}

func (d *Discoverer) discoverFromFeeds(ctx context.Context, base *url.URL) []string {
	for _, path := range feedPaths {
		data, err := d.fetcher.Fetch(ctx, base.ResolveReference(&url.URL{Path: path}).String())
		if err != nil {
			continue
		}

		if !looksLikeFeed(data) {
			continue
		}

		feed, err := d.feedParser.Parse(bytes.NewReader(data))
		if err != nil {
			slog.Debug("Feed probe returned unparsable body", "site", base.Host, "path", path, "error", err)
			continue
		}

		var candidates []string
		for _, item := range feed.Items {
			link := item.Link
			if link == "" {
				link = item.GUID
			}
			if link == "" {
				continue
			}
			candidates = append(candidates, resolveURL(base, link))
		}

		urls := capURLs(FilterOpportunityURLs(candidates), maxFeedURLs)
		if len(urls) > 0 {
			slog.Debug("Discovered URLs via feed", "site", base.Host, "path", path, "count", len(urls))
			return urls
		}
	}

	return nil
}

func (d *Discoverer) discoverFromSitemaps(ctx context.Context, base *url.URL) []string {
	for _, path := range sitemapPaths {
		data, err := d.fetcher.Fetch(ctx, base.ResolveReference(&url.URL{Path: path}).String())
		if err != nil {
			continue
		}

		candidates := d.parseSitemap(ctx, base, data, 0)

		urls := capURLs(FilterOpportunityURLs(candidates), maxSitemapURLs)
		if len(urls) > 0 {
			slog.Debug("Discovered URLs via sitemap", "site", base.Host, "path", path, "count", len(urls))
			return urls
		}
	}

	return nil
}

// parseSitemap handles both urlset and sitemapindex documents. Child
// sitemaps of an index are fetched one level deep.
func (d *Discoverer) parseSitemap(ctx context.Context, base *url.URL, data []byte, depth int) []string {
	var urlset xmlURLSet
	if err := xml.Unmarshal(data, &urlset); err == nil && len(urlset.URLs) > 0 {
		locs := make([]string, 0, len(urlset.URLs))
		for _, entry := range urlset.URLs {
			if loc := strings.TrimSpace(entry.Loc); loc != "" {
				locs = append(locs, resolveURL(base, loc))
			}
		}
		return locs
	}

	if depth > 0 {
		return nil
	}

	var index xmlSitemapIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil
	}

	var locs []string
	for _, child := range index.Sitemaps {
		loc := strings.TrimSpace(child.Loc)
		if loc == "" {
			continue
		}

		childData, err := d.fetcher.Fetch(ctx, resolveURL(base, loc))
		if err != nil {
			continue
		}

		locs = append(locs, d.parseSitemap(ctx, base, childData, depth+1)...)
		if len(locs) >= maxSitemapURLs {
			break
		}
	}

	return locs
}

func (d *Discoverer) discoverFromLinks(ctx context.Context, base *url.URL) []string {
	data, err := d.fetcher.Fetch(ctx, base.String())
	if err != nil {
		slog.Debug("Landing page probe failed", "site", base.Host, "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Landing page is not parseable HTML", "site", base.Host, "error", err)
		return nil
	}

	var candidates []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}
		candidates = append(candidates, resolveURL(base, href))
	})

	urls := capURLs(FilterOpportunityURLs(candidates), maxLinkURLs)
	if len(urls) > 0 {
		slog.Debug("Discovered URLs via link scraping", "site", base.Host, "count", len(urls))
	}

	return urls
}

// looksLikeFeed scans the whole body; XML prologs and comment blocks can push
// the root element far past the start.
func looksLikeFeed(data []byte) bool {
	body := strings.ToLower(string(data))
	return strings.Contains(body, "<rss") || strings.Contains(body, "<feed") || strings.Contains(body, "<atom")
}

func resolveURL(base *url.URL, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(parsed).String()
}

func capURLs(urls []string, limit int) []string {
	if len(urls) > limit {
		return urls[:limit]
	}
	return urls
}

// SiteRootURL builds the probe root for a source domain.
func SiteRootURL(rootDomain string) string {
	if strings.HasPrefix(rootDomain, "http://") || strings.HasPrefix(rootDomain, "https://") {
		return rootDomain
	}
	return fmt.Sprintf("https://%s", rootDomain)
}
