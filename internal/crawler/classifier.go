package crawler

import "strings"

// Classification holds the result of classifying a User-Agent string.
type Classification struct {
	IsCrawler bool   `json:"is_crawler"`
	Token     string `json:"token,omitempty"`
	Family    string `json:"family,omitempty"`
}

// Classifier matches User-Agent strings against an ordered signature set.
// It is safe for concurrent use; the set is never modified after construction.
type Classifier struct {
	signatures []Signature
}

// NewClassifier creates a Classifier. Extra signatures are checked before the
// defaults; with replaceDefaults only the extra signatures are used.
func NewClassifier(extra []Signature, replaceDefaults bool) *Classifier {
	sigs := make([]Signature, 0, len(extra)+len(DefaultSignatures))
	for _, s := range extra {
		token := strings.ToLower(strings.TrimSpace(s.Token))
		if token == "" {
			continue
		}
		family := s.Family
		if family == "" {
			family = FamilyGeneric
		}
		sigs = append(sigs, Signature{Token: token, Family: family})
	}
	if !replaceDefaults {
		sigs = append(sigs, DefaultSignatures...)
	}
	return &Classifier{signatures: sigs}
}

// Classify reports whether userAgent belongs to a crawler. An empty
// User-Agent is never a crawler.
func (c *Classifier) Classify(userAgent string) Classification {
	if userAgent == "" {
		return Classification{}
	}
	ua := strings.ToLower(userAgent)
	for _, s := range c.signatures {
		if strings.Contains(ua, s.Token) {
			return Classification{IsCrawler: true, Token: s.Token, Family: s.Family}
		}
	}
	return Classification{}
}

// IsCrawler is shorthand for Classify(userAgent).IsCrawler.
func (c *Classifier) IsCrawler(userAgent string) bool {
	return c.Classify(userAgent).IsCrawler
}

// Signatures returns a copy of the signature set in match order.
func (c *Classifier) Signatures() []Signature {
	out := make([]Signature, len(c.signatures))
	copy(out, c.signatures)
	return out
}
