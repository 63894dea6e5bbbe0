package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/redsunink/veliankeeper/internal/errors"
)

// WikiClient fetches item and facility thumbnails from the community wiki.
type WikiClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWikiClient creates a wiki client for the given base URL.
func NewWikiClient(baseURL string, httpClient *http.Client) *WikiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WikiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ScrapeImageURL fetches the wiki page for a search term and returns the
// absolute URL of its thumbnail image. Page titles use underscores for
// spaces.
func (c *WikiClient) ScrapeImageURL(ctx context.Context, searchTerm string) (string, error) {
	pageTitle := strings.ReplaceAll(searchTerm, " ", "_")
	pageURL := c.baseURL + "/" + url.PathEscape(pageTitle)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("scraper: fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", errors.NewNotFoundError("wiki page", searchTerm)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scraper: fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("scraper: parse %s: %w", pageURL, err)
	}

	src, found := findThumbnail(doc)
	if !found {
		return "", errors.NewNotFoundError("wiki image", searchTerm)
	}
	if strings.HasPrefix(src, "/") {
		src = c.baseURL + src
	}
	return src, nil
}

// findThumbnail walks the document for the first img tag whose class list
// marks it as a thumbnail.
func findThumbnail(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "img" {
		var class, src string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "class":
				class = attr.Val
			case "src":
				src = attr.Val
			}
		}
		if src != "" && isThumbnailClass(class) {
			return src, true
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if src, found := findThumbnail(child); found {
			return src, true
		}
	}
	return "", false
}

func isThumbnailClass(class string) bool {
	for _, name := range strings.Fields(class) {
		if name == "thumbimage" || name == "thumbinner" {
			return true
		}
	}
	return false
}
