package model

// PageMetadata is the SEO record of a single logical page.
type PageMetadata struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	CanonicalURL string `json:"canonical_url,omitempty"`
	Image        string `json:"image,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Robots       string `json:"robots,omitempty"`
	Author       string `json:"author,omitempty"`
	Language     string `json:"language,omitempty"`
	SiteName     string `json:"site_name,omitempty"`
	Type         string `json:"type,omitempty"`
}

// WithDefaults returns a copy of m where every empty field is taken from d.
func (m PageMetadata) WithDefaults(d PageMetadata) PageMetadata {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&m.Title, d.Title)
	fill(&m.Description, d.Description)
	fill(&m.CanonicalURL, d.CanonicalURL)
	fill(&m.Image, d.Image)
	fill(&m.Keywords, d.Keywords)
	fill(&m.Robots, d.Robots)
	fill(&m.Author, d.Author)
	fill(&m.Language, d.Language)
	fill(&m.SiteName, d.SiteName)
	fill(&m.Type, d.Type)
	return m
}
