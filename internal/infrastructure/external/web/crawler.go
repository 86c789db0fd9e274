package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultUserAgent = "meeting-knowledge/1.0 (+https://github.com/johnquangdev/meeting-knowledge)"
	maxBodyBytes     = 5 << 20
)

var (
	// ErrUnsupportedURL is returned for URLs that are not http or https
	ErrUnsupportedURL = errors.New("only http and https URLs can be crawled")

	// ErrNotHTML is returned when the response is not an HTML or text page
	ErrNotHTML = errors.New("response is not an html page")
)

// Page is a fetched web page rendered as markdown
type Page struct {
	URL       string
	Title     string
	Markdown  string
	FetchedAt time.Time
}

// Options configures the crawler
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// Crawler fetches single pages and converts them to markdown
type Crawler struct {
	opts   Options
	client *http.Client
	logger *zap.Logger
}

// NewCrawler creates a new crawler
func NewCrawler(opts Options, logger *zap.Logger) *Crawler {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Crawler{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}
}

type statusError struct {
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fetch returned status %d", e.Status)
}

// Fetch downloads rawURL and renders its main content. Plain text
// responses are returned as is.
func (c *Crawler) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrUnsupportedURL
	}

	var body []byte
	var contentType string
	err = backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			se := &statusError{Status: resp.StatusCode}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return se
			}
			return backoff.Permanent(se)
		}
		contentType = resp.Header.Get("Content-Type")
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return err
	}, backoff.WithContext(c.backOff(), ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}

	page := &Page{URL: u.String(), FetchedAt: time.Now().UTC()}
	switch {
	case strings.HasPrefix(contentType, "text/plain"):
		page.Markdown = strings.TrimSpace(string(body))
	case contentType == "" || strings.Contains(contentType, "html"):
		title, md, err := Render(strings.NewReader(string(body)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", u, err)
		}
		page.Title = title
		page.Markdown = md
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	if page.Title == "" {
		page.Title = titleFromURL(u)
	}
	if c.logger != nil {
		c.logger.Debug("Fetched web page",
			zap.String("url", page.URL),
			zap.String("title", page.Title),
			zap.Int("bytes", len(body)),
		)
	}
	return page, nil
}

func (c *Crawler) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = c.opts.RetryMaxElapsed
	if b.MaxElapsedTime <= 0 {
		return backoff.WithMaxRetries(b, 0)
	}
	return b
}

func titleFromURL(u *url.URL) string {
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return u.Host
	}
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

// Render parses an HTML document and returns its title and the
// markdown of its readable content. Scripts, styles and page chrome
// such as navigation, headers and footers are dropped.
func Render(r io.Reader) (string, string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var title string
	var find func(*html.Node)
	find = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title && n.FirstChild != nil {
			title = collapse(n.FirstChild.Data)
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			find(ch)
		}
	}
	find(doc)

	root := doc
	if main := findFirst(doc, atom.Main); main != nil {
		root = main
	} else if article := findFirst(doc, atom.Article); article != nil {
		root = article
	} else if body := findFirst(doc, atom.Body); body != nil {
		root = body
	}

	w := &mdWriter{}
	w.walk(root)
	return title, w.String(), nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if found := findFirst(ch, a); found != nil {
			return found
		}
	}
	return nil
}

func skipped(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer,
		atom.Header, atom.Aside, atom.Form, atom.Iframe, atom.Svg, atom.Template:
		return true
	}
	return false
}

// mdWriter accumulates markdown blocks separated by blank lines
type mdWriter struct {
	blocks []string
	line   strings.Builder
	prefix string
}

func (w *mdWriter) String() string {
	w.flush()
	return strings.Join(w.blocks, "\n\n")
}

func (w *mdWriter) flush() {
	text := collapse(w.line.String())
	w.line.Reset()
	if text != "" {
		w.blocks = append(w.blocks, w.prefix+text)
	}
	w.prefix = ""
}

func (w *mdWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.line.WriteString(n.Data)
		return
	case html.ElementNode:
		if skipped(n.DataAtom) {
			return
		}
	}

	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.flush()
		w.prefix = strings.Repeat("#", int(n.Data[1]-'0')) + " "
		w.children(n)
		w.flush()
	case atom.Li:
		w.flush()
		w.prefix = "- "
		w.children(n)
		w.flush()
	case atom.Pre:
		w.flush()
		if code := strings.TrimSpace(textOf(n)); code != "" {
			w.blocks = append(w.blocks, "```\n"+code+"\n```")
		}
	case atom.Br:
		w.line.WriteString(" ")
	case atom.P, atom.Div, atom.Section, atom.Blockquote, atom.Table, atom.Tr, atom.Ul, atom.Ol, atom.Dl:
		w.flush()
		w.children(n)
		w.flush()
	case atom.A:
		text := collapse(textOf(n))
		href := attr(n, "href")
		if text != "" && strings.HasPrefix(href, "http") {
			w.line.WriteString(" [" + text + "](" + href + ") ")
		} else {
			w.line.WriteString(" " + text + " ")
		}
	case atom.Td, atom.Th:
		w.children(n)
		w.line.WriteString(" | ")
	default:
		w.children(n)
	}
}

func (w *mdWriter) children(n *html.Node) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		w.walk(ch)
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && skipped(n.DataAtom) {
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
