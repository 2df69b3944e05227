package crawler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/seoscan/internal/fetch"
	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/scoring"
)

// Processor consumes fetch results: it records status, extracts page
// metadata, discovers links, and hands analyze-mode pages to the
// scoring engine.
type Processor struct {
	frontier  *Frontier
	resolver  *Resolver
	extractor *scoring.Extractor
	engine    *scoring.Engine
}

// NewProcessor creates a Processor bound to one crawl run's frontier
// and scope.
func NewProcessor(frontier *Frontier, resolver *Resolver, extractor *scoring.Extractor, engine *scoring.Engine) *Processor {
	return &Processor{
		frontier:  frontier,
		resolver:  resolver,
		extractor: extractor,
		engine:    engine,
	}
}

// Process handles one completed fetch. Transport errors mark the record
// failed; probe-only records are completed on status alone; analyze-mode
// HTML pages are mined for links and scored. No outcome here aborts the
// crawl.
func (p *Processor) Process(rec *model.CrawlRecord, result *fetch.Result, fetchErr error) error {
	if fetchErr != nil {
		if err := p.frontier.MarkFailed(rec.URL); err != nil {
			return err
		}
		return nil
	}

	if err := p.frontier.MarkFetched(rec.URL, result.StatusCode); err != nil {
		return err
	}

	if rec.Mode == model.ModeProbeOnly {
		if result.StatusCode >= http.StatusBadRequest {
			return p.frontier.MarkFailed(rec.URL)
		}
		return p.frontier.MarkProbed(rec.URL)
	}

	// Analyze mode: redirects, error statuses, and non-HTML content
	// count as visited but are never scored.
	if result.StatusCode >= http.StatusMultipleChoices || !result.HTML() {
		return p.frontier.MarkSkipped(rec.URL)
	}

	pagePath := recordPath(rec.URL)
	p.discoverLinks(result.Document, rec.URL, pagePath)

	meta := extractMeta(result.Document)
	terms := p.extractor.Extract(corpus(meta, result.Document))
	scored := p.engine.Score(meta, terms)

	return p.frontier.MarkAnalyzed(rec.URL, meta, scored.Terms, scored.Score, scored.Analysis)
}

// discoverLinks enqueues every classifiable anchor on the page.
// Duplicate URLs are rejected by the frontier, not here.
func (p *Processor) discoverLinks(doc *goquery.Document, pageURL, pagePath string) {
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		res, ok := p.resolver.Resolve(href, pagePath)
		if !ok {
			return
		}
		p.frontier.Enqueue(res.URL, pageURL, res.Mode)
	})
}

// extractMeta pulls the scored metadata fields out of a parsed page.
// The H1 is lower-cased at extraction time; the scoring engine folds
// the other fields at comparison time.
func extractMeta(doc *goquery.Document) model.PageMeta {
	return model.PageMeta{
		Title:        strings.TrimSpace(doc.Find("title").First().Text()),
		Description:  metaContent(doc, "description"),
		Keywords:     metaContent(doc, "keywords"),
		LastModified: metaContent(doc, "last-modified"),
		Product:      metaContent(doc, "product"),
		Version:      metaContent(doc, "version"),
		HeaderOne:    strings.ToLower(strings.TrimSpace(doc.Find("h1").First().Text())),
	}
}

// metaContent returns the content attribute of a named meta element.
func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).First()
	return strings.TrimSpace(sel.AttrOr("content", ""))
}

// corpus builds the single-document text corpus: the three privileged
// metadata fields plus the body with scripts and styles removed.
func corpus(meta model.PageMeta, doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()

	var sb strings.Builder
	sb.WriteString(meta.Title)
	sb.WriteString(" ")
	sb.WriteString(meta.Description)
	sb.WriteString(" ")
	sb.WriteString(strings.ReplaceAll(meta.Keywords, ",", " "))
	sb.WriteString(" ")
	sb.WriteString(body.Text())
	return sb.String()
}

// recordPath extracts the path component of a canonical URL.
func recordPath(canonical string) string {
	u, err := url.Parse(canonical)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
