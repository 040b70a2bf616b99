package seo

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"storefront-seo-router/internal/model"
)

const shell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Loading</title>
<meta name="description" content="__SEO_DESCRIPTION__">
<script type="module" src="/assets/index.js"></script>
</head>
<body><div id="root"></div></body>
</html>`

var shoe = model.PageMetadata{
	Title:        "Red Shoe",
	Description:  "A very red shoe",
	CanonicalURL: "https://shop.example.com/products/shoe",
	Image:        "https://cdn.example.com/shoe.png",
	Robots:       "index, follow",
	Language:     "de",
	Type:         "product",
	SiteName:     "Example Shop",
}

func parse(t *testing.T, doc []byte) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(string(doc)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func attr(d *goquery.Document, selector, name string) string {
	v, _ := d.Find(selector).First().Attr(name)
	return v
}

func TestRender(t *testing.T) {
	out, err := Render(shoe)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	d := parse(t, out)

	if got := d.Find("title").Text(); got != "Red Shoe" {
		t.Errorf("title = %q, want %q", got, "Red Shoe")
	}
	checks := []struct {
		selector, attr, want string
	}{
		{"html", "lang", "de"},
		{`meta[name="description"]`, "content", "A very red shoe"},
		{`meta[name="robots"]`, "content", "index, follow"},
		{`link[rel="canonical"]`, "href", "https://shop.example.com/products/shoe"},
		{`meta[property="og:title"]`, "content", "Red Shoe"},
		{`meta[property="og:image"]`, "content", "https://cdn.example.com/shoe.png"},
		{`meta[property="og:type"]`, "content", "product"},
		{`meta[property="og:site_name"]`, "content", "Example Shop"},
		{`meta[name="twitter:card"]`, "content", "summary_large_image"},
	}
	for _, c := range checks {
		if got := attr(d, c.selector, c.attr); got != c.want {
			t.Errorf("%s[%s] = %q, want %q", c.selector, c.attr, got, c.want)
		}
	}
}

func TestRender_EscapesValues(t *testing.T) {
	out, err := Render(model.PageMetadata{Title: `<script>alert(1)</script>`, Description: `"quoted"`})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(string(out), "<script>alert(1)</script>") {
		t.Error("title must be HTML-escaped")
	}
	d := parse(t, out)
	if got := attr(d, `meta[name="description"]`, "content"); got != `"quoted"` {
		t.Errorf("description = %q, want %q", got, `"quoted"`)
	}
	if got := attr(d, `meta[name="twitter:card"]`, "content"); got != "summary" {
		t.Errorf("twitter:card = %q, want %q without image", got, "summary")
	}
}

func TestInjector_FillsPlaceholder(t *testing.T) {
	in := NewInjector("__SEO_DESCRIPTION__")

	out, changed, err := in.Inject([]byte(shell), shoe)
	if err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if !changed {
		t.Fatal("Inject() changed = false, want true for placeholder description")
	}
	d := parse(t, out)

	if got := d.Find("title").Text(); got != "Red Shoe" {
		t.Errorf("title = %q, want %q", got, "Red Shoe")
	}
	if n := d.Find("title").Length(); n != 1 {
		t.Errorf("title count = %d, want 1", n)
	}
	if got := attr(d, `meta[name="description"]`, "content"); got != "A very red shoe" {
		t.Errorf("description = %q", got)
	}
	if got := attr(d, `link[rel="canonical"]`, "href"); got != shoe.CanonicalURL {
		t.Errorf("canonical = %q", got)
	}
	if got := attr(d, `meta[property="og:image"]`, "content"); got != shoe.Image {
		t.Errorf("og:image = %q", got)
	}
	if got := attr(d, `meta[name="robots"]`, "content"); got != "index, follow" {
		t.Errorf("robots = %q", got)
	}
	if got := attr(d, "html", "lang"); got != "de" {
		t.Errorf("lang = %q, want %q", got, "de")
	}
	if d.Find(`script[src="/assets/index.js"]`).Length() != 1 {
		t.Error("application script must be preserved")
	}
	if !strings.HasPrefix(strings.ToLower(string(out)), "<!doctype html>") {
		t.Error("doctype must be preserved")
	}
}

func TestInjector_EmptyOrMissingDescription(t *testing.T) {
	in := NewInjector()
	docs := map[string]string{
		"empty":   `<html><head><meta name="description" content=""></head><body></body></html>`,
		"missing": `<html><head></head><body></body></html>`,
		"bare":    `<div id="root"></div>`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			out, changed, err := in.Inject([]byte(doc), shoe)
			if err != nil {
				t.Fatalf("Inject() error = %v", err)
			}
			if !changed {
				t.Fatal("changed = false, want true")
			}
			d := parse(t, out)
			if got := attr(d, `meta[name="description"]`, "content"); got != shoe.Description {
				t.Errorf("description = %q, want %q", got, shoe.Description)
			}
			if got := d.Find("title").Text(); got != shoe.Title {
				t.Errorf("title = %q, want %q", got, shoe.Title)
			}
		})
	}
}

func TestInjector_RespectsPageMetadata(t *testing.T) {
	in := NewInjector("__SEO_DESCRIPTION__")
	doc := []byte(`<html><head><title>Hand made</title><meta name="description" content="Set by the page"></head><body></body></html>`)

	out, changed, err := in.Inject(doc, shoe)
	if err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if changed {
		t.Error("changed = true, want false for page-specific description")
	}
	if string(out) != string(doc) {
		t.Error("document must be returned byte-identical")
	}
}

func TestInjector_Idempotent(t *testing.T) {
	in := NewInjector("__SEO_DESCRIPTION__")

	first, _, err := in.Inject([]byte(shell), shoe)
	if err != nil {
		t.Fatalf("first Inject() error = %v", err)
	}
	second, changed, err := in.Inject(first, shoe)
	if err != nil {
		t.Fatalf("second Inject() error = %v", err)
	}
	if changed {
		t.Error("second run changed the document")
	}
	if string(first) != string(second) {
		t.Error("second run must leave the document unchanged")
	}
}

func TestInjector_SkipsEmptyValues(t *testing.T) {
	in := NewInjector()
	doc := `<html><head><meta name="keywords" content="keep"></head><body></body></html>`

	out, _, err := in.Inject([]byte(doc), model.PageMetadata{Title: "T", Description: "D"})
	if err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	d := parse(t, out)
	if got := attr(d, `meta[name="keywords"]`, "content"); got != "keep" {
		t.Errorf("keywords = %q, want existing value kept", got)
	}
	if d.Find(`meta[property="og:image"]`).Length() != 0 {
		t.Error("og:image should not be added without an image")
	}
}
