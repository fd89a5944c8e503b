package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"retroref/internal/logging"
	"retroref/internal/services"
	"retroref/internal/systems"
)

// Crawler enumerates ROM files from an HTML directory index, recursing into
// subdirectory links breadth-first up to MaxDepth. Mirrored or cyclic link
// graphs terminate because every URL is expanded at most once.
type Crawler struct {
	Client      *http.Client
	Catalog     *systems.Catalog
	Filter      *Filter
	System      string
	MaxDepth    int
	Concurrency int
	Timeout     time.Duration
	Logger      *slog.Logger
}

type crawlNode struct {
	url   *url.URL
	depth int
}

// sizeHintPattern matches the trailing size column of Apache and nginx
// autoindex pages ("1.2M", "123456", "4.0K").
var sizeHintPattern = regexp.MustCompile(`(\d+(?:\.\d+)?\s*[KMGTP]?i?B?)\s*$`)

// Enumerate crawls the index rooted at rawRoot. The root page being
// unreachable is fatal for the system; a deeper page failing only skips its
// subtree. Results are sorted by URL so selection input order is reproducible
// regardless of worker interleaving.
func (c *Crawler) Enumerate(ctx context.Context, rawRoot string) ([]CandidateRef, error) {
	root, err := url.Parse(rawRoot)
	if err != nil || root.Scheme == "" || root.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sources", "crawl",
			fmt.Sprintf("invalid source url %q", rawRoot), err)
	}
	if !strings.HasSuffix(root.Path, "/") {
		root.Path += "/"
	}

	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxDepth := c.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		refs    []CandidateRef
		visited = map[string]struct{}{canonicalURL(root): {}}
	)

	frontier := []crawlNode{{url: root, depth: 0}}
	for len(frontier) > 0 {
		var (
			nextMu sync.Mutex
			next   []crawlNode
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, node := range frontier {
			node := node
			g.Go(func() error {
				files, dirs, err := c.fetchPage(gctx, client, node.url)
				if err != nil {
					if node.depth == 0 {
						return services.Wrap(services.ErrEnumeration, "sources", "crawl",
							"fetch root index", err)
					}
					logger.Warn("skipping unreachable subtree",
						logging.String("url", node.url.String()),
						logging.Error(err))
					return nil
				}

				mu.Lock()
				refs = append(refs, files...)
				mu.Unlock()

				if node.depth >= maxDepth {
					return nil
				}
				for _, dir := range dirs {
					key := canonicalURL(dir)
					mu.Lock()
					_, seen := visited[key]
					if !seen {
						visited[key] = struct{}{}
					}
					mu.Unlock()
					if seen {
						continue
					}
					nextMu.Lock()
					next = append(next, crawlNode{url: dir, depth: node.depth + 1})
					nextMu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		frontier = next
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].URL < refs[j].URL })
	logger.Info("crawl complete",
		logging.Int("pages", len(visited)),
		logging.Int("candidates", len(refs)))
	return refs, nil
}

// fetchPage downloads one index page and splits its anchors into file
// candidates and subdirectory URLs.
func (c *Crawler) fetchPage(ctx context.Context, client *http.Client, page *url.URL) ([]CandidateRef, []*url.URL, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page.String(), nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, nil, fmt.Errorf("index fetch: unexpected status %s", resp.Status)
	}

	return c.parseIndex(page, resp.Body)
}

// parseIndex tokenizes an index page. The text immediately following an
// anchor is inspected for the listing's size column so remote candidates
// carry a size hint.
func (c *Crawler) parseIndex(page *url.URL, body io.Reader) ([]CandidateRef, []*url.URL, error) {
	var (
		files    []CandidateRef
		dirs     []*url.URL
		lastFile = -1
		inAnchor bool
	)

	tokenizer := html.NewTokenizer(body)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, nil, fmt.Errorf("parse index: %w", err)
			}
			return files, dirs, nil
		case html.TextToken:
			// The anchor's own text is the filename; the size column is text
			// that follows the closing tag. Table layouts put the modification
			// date in its own cell first, so scanning continues until a size
			// parses or the row ends.
			if inAnchor || lastFile < 0 {
				continue
			}
			if size := parseSizeHint(string(tokenizer.Text())); size > 0 {
				files[lastFile].Size = size
				lastFile = -1
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "a":
				inAnchor = false
			case "tr", "li", "pre":
				// The size column never crosses a row boundary.
				lastFile = -1
			}
		case html.StartTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "a" {
				continue
			}
			inAnchor = true
			lastFile = -1
			if !hasAttr {
				continue
			}
			resolved := c.resolveLink(page, anchorHref(tokenizer))
			if resolved == nil {
				continue
			}
			if strings.HasSuffix(resolved.Path, "/") {
				dirs = append(dirs, resolved)
				continue
			}
			if ref, ok := c.fileCandidate(resolved); ok {
				files = append(files, ref)
				lastFile = len(files) - 1
			}
		}
	}
}

func anchorHref(tokenizer *html.Tokenizer) string {
	for {
		key, value, more := tokenizer.TagAttr()
		if string(key) == "href" {
			return string(value)
		}
		if !more {
			return ""
		}
	}
}

// resolveLink turns an href into an absolute URL within the crawled tree.
// Sort toggles, fragments, parent links, and off-host links all return nil.
func (c *Crawler) resolveLink(page *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
		return nil
	}
	if strings.Contains(href, "://") && !strings.HasPrefix(href, "http") {
		return nil
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := page.ResolveReference(parsed)
	resolved.Fragment = ""
	resolved.RawQuery = ""
	if resolved.Scheme != page.Scheme || resolved.Host != page.Host {
		return nil
	}
	// Parent and self links escape the tree being expanded.
	if !strings.HasPrefix(resolved.Path, page.Path) || resolved.Path == page.Path {
		return nil
	}
	return resolved
}

func (c *Crawler) fileCandidate(link *url.URL) (CandidateRef, bool) {
	name := path.Base(link.Path)
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if !c.Catalog.IsROMFile(name) {
		return CandidateRef{}, false
	}
	if c.System != "" {
		if system := c.Catalog.SystemForExtension(path.Ext(name)); system != "" && !strings.EqualFold(system, c.System) {
			return CandidateRef{}, false
		}
	}
	if !c.Filter.Admit(name) {
		return CandidateRef{}, false
	}
	return CandidateRef{Name: name, URL: link.String()}, true
}

// parseSizeHint pulls a byte count out of index-listing column text.
func parseSizeHint(text string) int64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "-" {
		return 0
	}
	loc := sizeHintPattern.FindStringIndex(trimmed)
	if loc == nil {
		return 0
	}
	// Timestamps such as "17:04" and "2023-03-17" also end in digits. A size
	// must stand alone: at the start of the text or on a whitespace boundary.
	if loc[0] > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(trimmed[:loc[0]]); !unicode.IsSpace(prev) {
			return 0
		}
	}
	match := strings.TrimSpace(trimmed[loc[0]:loc[1]])
	// Listings round with 1024-based units printed as bare letters ("4.0M"
	// is 4 MiB, not 4 MB).
	if n := len(match); n > 0 {
		switch match[n-1] {
		case 'K', 'M', 'G', 'T', 'P':
			match += "iB"
		}
	}
	value, err := humanize.ParseBytes(match)
	if err != nil {
		return 0
	}
	return int64(value)
}

// canonicalURL is the dedup key for visited pages.
func canonicalURL(u *url.URL) string {
	clone := *u
	clone.Fragment = ""
	clone.RawQuery = ""
	return clone.String()
}
