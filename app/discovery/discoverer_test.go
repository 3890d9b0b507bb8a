package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shubhamdixena/opportunity-harvester/app/scrape"
)

func newTestDiscoverer(server *httptest.Server) *Discoverer {
	fetcher := scrape.NewFetcher(server.Client(), "TestAgent/1.0", 5*time.Second)
	return NewDiscoverer(fetcher)
}

func TestDiscoverer_Run_RSSFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Feed</title>
<item><title>A</title><link>https://example.org/scholarship-a</link></item>
<item><title>B</title><link>https://example.org/about</link></item>
<item><title>C</title><link>https://example.org/grant-c</link></item>
</channel></rss>`)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		t.Error("Sitemap should not be probed when the feed yields URLs")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result := newTestDiscoverer(server).Run(context.Background(), server.URL)

	if !result.Success {
		t.Fatal("Expected discovery to succeed")
	}
	if result.Source != SourceRSS {
		t.Errorf("Expected source 'rss', got: %s", result.Source)
	}
	if len(result.URLs) != 2 {
		t.Fatalf("Expected 2 keyword-matching URLs, got: %v", result.URLs)
	}
	if result.URLs[0] != "https://example.org/scholarship-a" {
		t.Errorf("Expected first URL from feed, got: %s", result.URLs[0])
	}
}

func TestDiscoverer_Run_FeedWithLongProlog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		// A comment block pushes the rss element past the first kilobytes.
		fmt.Fprintf(w, `<?xml version="1.0"?>
<!-- %s -->
<rss version="2.0"><channel><title>Feed</title>
<item><title>A</title><link>https://example.org/scholarship-a</link></item>
</channel></rss>`, strings.Repeat("generator preamble ", 300))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result := newTestDiscoverer(server).Run(context.Background(), server.URL)

	if !result.Success || result.Source != SourceRSS {
		t.Fatalf("Expected feed discovery despite long prolog, got: %+v", result)
	}
	if len(result.URLs) != 1 || result.URLs[0] != "https://example.org/scholarship-a" {
		t.Errorf("Expected the feed URL, got: %v", result.URLs)
	}
}

func TestDiscoverer_Run_SitemapFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<url><loc>https://example.org/fellowship-1</loc></url>
<url><loc>https://example.org/news</loc></url>
<url><loc>https://example.org/funding-call</loc></url>
</urlset>`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result := newTestDiscoverer(server).Run(context.Background(), server.URL)

	if !result.Success {
		t.Fatal("Expected discovery to succeed via sitemap")
	}
	if result.Source != SourceSitemap {
		t.Errorf("Expected source 'sitemap', got: %s", result.Source)
	}
	if len(result.URLs) != 2 {
		t.Errorf("Expected 2 keyword-matching URLs, got: %v", result.URLs)
	}
}

func TestDiscoverer_Run_SitemapIndex(t *testing.T) {
	var serverURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<sitemap><loc>%s/sitemap-posts.xml</loc></sitemap>
</sitemapindex>`, serverURL)
	})
	mux.HandleFunc("/sitemap-posts.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<url><loc>https://example.org/scholarship-x</loc></url>
</urlset>`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	result := newTestDiscoverer(server).Run(context.Background(), server.URL)

	if !result.Success {
		t.Fatal("Expected discovery to succeed via sitemap index")
	}
	if result.Source != SourceSitemap {
		t.Errorf("Expected source 'sitemap', got: %s", result.Source)
	}
	if len(result.URLs) != 1 || result.URLs[0] != "https://example.org/scholarship-x" {
		t.Errorf("Expected the child sitemap URL, got: %v", result.URLs)
	}
}

func TestDiscoverer_Run_LinkScrapingFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body>
<a href="/scholarship-one">One</a>
<a href="#top">Top</a>
<a href="javascript:void(0)">JS</a>
<a href="mailto:info@example.org">Mail</a>
<a href="/about">About</a>
<a href="/grants/open">Grants</a>
</body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result := newTestDiscoverer(server).Run(context.Background(), server.URL)

	if !result.Success {
		t.Fatal("Expected discovery to succeed via link scraping")
	}
	if result.Source != SourceLinks {
		t.Errorf("Expected source 'links', got: %s", result.Source)
	}

	for _, u := range result.URLs {
		if strings.Contains(u, "about") || strings.Contains(u, "#") || strings.Contains(u, "mailto") {
			t.Errorf("Unexpected URL survived filtering: %s", u)
		}
	}
	if len(result.URLs) != 2 {
		t.Errorf("Expected 2 URLs, got: %v", result.URLs)
	}
}

func TestDiscoverer_Run_AllStrategiesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	result := newTestDiscoverer(server).Run(context.Background(), server.URL)

	if result.Success {
		t.Error("Expected discovery to fail when every strategy is exhausted")
	}
	if len(result.URLs) != 0 {
		t.Errorf("Expected no URLs, got: %v", result.URLs)
	}
}

func TestSiteRootURL(t *testing.T) {
	if got := SiteRootURL("example.org"); got != "https://example.org" {
		t.Errorf("Expected https scheme added, got: %s", got)
	}
	if got := SiteRootURL("http://example.org"); got != "http://example.org" {
		t.Errorf("Expected explicit scheme kept, got: %s", got)
	}
}
