package seo

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"storefront-seo-router/internal/model"
)

// Injector fills the metadata of an application shell document. It leaves
// documents alone whose description a page has already set deliberately.
type Injector struct {
	placeholders map[string]bool
}

// NewInjector creates an Injector. A description equal to one of the
// placeholders (or empty) is considered unset.
func NewInjector(placeholders ...string) *Injector {
	in := &Injector{placeholders: make(map[string]bool, len(placeholders))}
	for _, p := range placeholders {
		if p = strings.TrimSpace(p); p != "" {
			in.placeholders[p] = true
		}
	}
	return in
}

// NeedsMetadata reports whether description counts as unset.
func (in *Injector) NeedsMetadata(description string) bool {
	d := strings.TrimSpace(description)
	return d == "" || in.placeholders[d]
}

// Inject returns doc with meta applied, and whether anything was changed.
// When the document already carries a real description the original bytes
// are returned untouched.
func (in *Injector) Inject(doc []byte, meta model.PageMetadata) ([]byte, bool, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, false, fmt.Errorf("parse document: %w", err)
	}

	current, _ := d.Find(`meta[name="description"]`).First().Attr("content")
	if !in.NeedsMetadata(current) {
		return doc, false, nil
	}

	head := d.Find("head").First()
	if head.Length() == 0 {
		return nil, false, fmt.Errorf("document has no head element")
	}

	title := head.Find("title")
	if title.Length() == 0 {
		head.PrependHtml("<title></title>")
		title = head.Find("title")
	}
	title.First().SetText(meta.Title)

	setMeta(head, "name", "description", meta.Description)
	setMeta(head, "name", "robots", meta.Robots)
	setMeta(head, "name", "keywords", meta.Keywords)
	setMeta(head, "name", "author", meta.Author)
	setLink(head, "canonical", meta.CanonicalURL)

	setMeta(head, "property", "og:title", meta.Title)
	setMeta(head, "property", "og:description", meta.Description)
	setMeta(head, "property", "og:url", meta.CanonicalURL)
	setMeta(head, "property", "og:type", meta.Type)
	setMeta(head, "property", "og:site_name", meta.SiteName)
	setMeta(head, "property", "og:image", meta.Image)
	setMeta(head, "name", "twitter:title", meta.Title)
	setMeta(head, "name", "twitter:description", meta.Description)
	setMeta(head, "name", "twitter:image", meta.Image)

	if meta.Language != "" {
		d.Find("html").First().SetAttr("lang", meta.Language)
	}

	out, err := d.Html()
	if err != nil {
		return nil, false, fmt.Errorf("serialize document: %w", err)
	}
	return []byte(out), true, nil
}

// setMeta upserts <meta attr="key" content="value">. Empty values are skipped
// so an existing tag is not blanked.
func setMeta(head *goquery.Selection, attr, key, value string) {
	if value == "" {
		return
	}
	selector := fmt.Sprintf(`meta[%s=%q]`, attr, key)
	sel := head.Find(selector)
	if sel.Length() == 0 {
		head.AppendHtml(fmt.Sprintf(`<meta %s="%s">`, attr, html.EscapeString(key)))
		sel = head.Find(selector)
	}
	sel.First().SetAttr("content", value)
}

func setLink(head *goquery.Selection, rel, href string) {
	if href == "" {
		return
	}
	selector := fmt.Sprintf(`link[rel=%q]`, rel)
	sel := head.Find(selector)
	if sel.Length() == 0 {
		head.AppendHtml(fmt.Sprintf(`<link rel="%s">`, html.EscapeString(rel)))
		sel = head.Find(selector)
	}
	sel.First().SetAttr("href", href)
}
