package seo

import (
	"bytes"
	"fmt"
	"html/template"

	"storefront-seo-router/internal/model"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
{{- if .Keywords}}
<meta name="keywords" content="{{.Keywords}}">
{{- end}}
{{- if .Author}}
<meta name="author" content="{{.Author}}">
{{- end}}
<meta name="robots" content="{{.Robots}}">
{{- if .CanonicalURL}}
<link rel="canonical" href="{{.CanonicalURL}}">
<meta property="og:url" content="{{.CanonicalURL}}">
{{- end}}
<meta property="og:type" content="{{.Type}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
{{- if .SiteName}}
<meta property="og:site_name" content="{{.SiteName}}">
{{- end}}
{{- if .Image}}
<meta property="og:image" content="{{.Image}}">
<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:image" content="{{.Image}}">
{{- else}}
<meta name="twitter:card" content="summary">
{{- end}}
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
{{- if .Image}}
<img src="{{.Image}}" alt="{{.Title}}">
{{- end}}
{{- if .CanonicalURL}}
<p><a href="{{.CanonicalURL}}">{{.Title}}</a></p>
{{- end}}
</body>
</html>
`))

// Render writes meta as a standalone HTML document for crawlers.
func Render(meta model.PageMetadata) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, meta); err != nil {
		return nil, fmt.Errorf("render page metadata: %w", err)
	}
	return buf.Bytes(), nil
}
