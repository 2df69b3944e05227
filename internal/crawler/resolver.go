package crawler

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/model"
)

// indexPage matches directory index file names that alias to their
// directory. host/, host and host/index.html must collapse to one
// canonical URL or the frontier would crawl the same page twice.
var indexPage = regexp.MustCompile(`^index\.(html|php|jsp)$`)

// Resolution is a classified link: the canonical URL to enqueue and the
// mode it should be crawled in.
type Resolution struct {
	// URL is the canonical absolute URL.
	URL string
	// Mode is Analyze for in-scope links and ProbeOnly for links that
	// are only existence-checked.
	Mode model.Mode
}

// Resolver canonicalizes raw hrefs and classifies them against the
// crawl scope.
//
// Design decision: Resolve is a pure function with no frontier side
// effects. Every discovered link, analyze or probe, goes through the
// frontier's Enqueue at the call site, so the frontier stays the single
// choke point for the at-most-once guarantee.
type Resolver struct {
	scheme      string
	host        string
	basePath    string
	subPathOnly bool
}

// NewResolver creates a Resolver for the given crawl scope.
// When subPathOnly is true, same-host links outside the scope's base
// path are downgraded to probe-only.
func NewResolver(scope config.Scope, subPathOnly bool) *Resolver {
	return &Resolver{
		scheme:      scope.Scheme,
		host:        scope.Host,
		basePath:    scope.BasePath,
		subPathOnly: subPathOnly,
	}
}

// Resolve canonicalizes href found on the page at pagePath and
// classifies it. It returns false for links that must be ignored:
// empty hrefs, fragment-only and query-only links, unsupported schemes
// (mailto, javascript), and hrefs that do not parse as URLs.
func (r *Resolver) Resolve(href, pagePath string) (Resolution, bool) {
	h := strings.TrimSpace(href)
	if h == "" || strings.HasPrefix(h, "#") || strings.HasPrefix(h, "?") {
		return Resolution{}, false
	}

	// Protocol-relative links inherit the configured scheme.
	if strings.HasPrefix(h, "//") {
		h = r.scheme + ":" + h
	}

	u, err := url.Parse(h)
	if err != nil {
		return Resolution{}, false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return Resolution{}, false
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = r.scheme
	}
	// The port stays part of the host so that a site served on a
	// non-default port keeps its links in scope.
	host := strings.ToLower(u.Host)
	relative := host == ""
	if relative {
		host = r.host
	}

	// Relative paths resolve against the directory of the current page.
	p := u.Path
	if relative && !strings.HasPrefix(p, "/") {
		p = path.Join(pageDir(pagePath), p)
	}
	p = canonicalPath(p)

	canonical := scheme + "://" + host + p

	if host == r.host && (!r.subPathOnly || strings.HasPrefix(p, r.basePath)) {
		return Resolution{URL: canonical, Mode: model.ModeAnalyze}, true
	}
	return Resolution{URL: canonical, Mode: model.ModeProbeOnly}, true
}

// Canonicalize normalizes a full URL the same way discovered links are
// normalized. The crawl entry point uses this on the start URL so the
// root record carries the same key a discovered link to it would.
func (r *Resolver) Canonicalize(rawURL string) (string, bool) {
	res, ok := r.Resolve(rawURL, "/")
	if !ok {
		return "", false
	}
	return res.URL, true
}

// pageDir returns the directory portion of a page path, always with a
// trailing slash.
func pageDir(pagePath string) string {
	if pagePath == "" {
		return "/"
	}
	if strings.HasSuffix(pagePath, "/") {
		return pagePath
	}
	return path.Dir(pagePath) + "/"
}

// canonicalPath applies index-page aliasing: an empty path, a bare
// slash, and a directory index file all map to the directory itself.
func canonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	if indexPage.MatchString(path.Base(p)) {
		dir := path.Dir(p)
		if dir == "/" {
			return "/"
		}
		return dir + "/"
	}
	return p
}
