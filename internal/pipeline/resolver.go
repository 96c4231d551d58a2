package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/cache"
	"github.com/ppiankov/newsverify/internal/metrics"
	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/validate"
)

// Extraction limits
const (
	MinContentLength = 100  // Shorter pages are rejected as empty
	MaxContentLength = 3000 // Longer text is cut and marked with "..."
	titleNotFound    = "Title not found"
)

// removedTags never contain article text
var removedTags = "script, style, nav, header, footer, aside, noscript, iframe"

// contentSelectors are tried in order; the first non-empty match wins
var contentSelectors = []string{
	"article",
	`[role="main"]`,
	".content",
	".post-content",
	".entry-content",
	".article-body",
	".story-body",
}

// Resolver turns a URL into ExtractedContent
type Resolver struct {
	fetcher *Fetcher
	cache   *cache.PageCache
	logger  *zap.Logger
}

// NewResolver creates a resolver. pages may be nil.
func NewResolver(fetcher *Fetcher, pages *cache.PageCache, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{fetcher: fetcher, cache: pages, logger: logger}
}

// Resolve fetches rawURL and extracts its readable text. It fails with
// *apperr.FetchError or *apperr.EmptyContentError.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*model.ExtractedContent, error) {
	if content, ok := r.cache.Get(ctx, rawURL); ok {
		metrics.PageFetches.WithLabelValues("cached").Inc()
		return content, nil
	}

	page, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	content, err := Extract(page.HTML, page.FinalURL)
	if err != nil {
		metrics.PageFetches.WithLabelValues("empty").Inc()
		return nil, err
	}
	metrics.PageFetches.WithLabelValues("ok").Inc()

	if err := r.cache.Put(ctx, rawURL, content); err != nil {
		r.logger.Warn("cache page", zap.String("url", rawURL), zap.Error(err))
	}
	return content, nil
}

// Extract pulls the title and main text out of an HTML document
func Extract(page []byte, pageURL string) (*model.ExtractedContent, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, &apperr.FetchError{URL: pageURL, Err: fmt.Errorf("parse HTML: %w", err)}
	}
	doc := goquery.NewDocumentFromNode(root)

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = titleNotFound
	}
	title = collapseSpace(title)

	doc.Find(removedTags).Remove()

	text := collapseSpace(nodeText(mainContent(doc)))
	length := utf8.RuneCountInString(text)
	if length < MinContentLength {
		return nil, &apperr.EmptyContentError{URL: pageURL, Length: length}
	}

	return &model.ExtractedContent{
		Title:  title,
		Body:   validate.Preview(text, MaxContentLength),
		Domain: hostOf(pageURL),
		URL:    pageURL,
	}, nil
}

// mainContent returns the first selector match holding text, else the body,
// else the whole document
func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		s := doc.Find(sel).First()
		if s.Length() > 0 && strings.TrimSpace(s.Text()) != "" {
			return s
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// nodeText concatenates text nodes, separating elements with spaces so
// adjacent paragraphs do not run together
func nodeText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			b.WriteByte(' ')
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			b.WriteByte(' ')
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
