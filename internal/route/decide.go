package route

import (
	"net/url"
	"strings"

	"storefront-seo-router/internal/crawler"
)

// Action is the outcome of a routing decision.
type Action string

const (
	// ActionPassThrough forwards the request unmodified to the application.
	ActionPassThrough Action = "pass_through"
	// ActionRewrite retargets the request to the internal metadata endpoint.
	ActionRewrite Action = "rewrite"
	// ActionProxy relays pre-rendered HTML from the metadata service.
	ActionProxy Action = "proxy"
)

// Crawler dispatch strategies.
const (
	StrategyRewrite = "rewrite"
	StrategyProxy   = "proxy"
)

// Header carries the applied action on every routed response.
const Header = "X-Seo-Route"

// Decision reasons, also used as metric labels.
const (
	ReasonExempt        = "exempt"
	ReasonHuman         = "human"
	ReasonDefaultDomain = "default_domain"
	ReasonCrawler       = "crawler"
	ReasonForced        = "forced"
)

// Input is everything a decision depends on.
type Input struct {
	Path      string
	Host      string
	UserAgent string
	Query     url.Values
}

// Decision is a routing verdict for a single request.
type Decision struct {
	Action  Action                 `json:"action"`
	Reason  string                 `json:"reason"`
	Crawler crawler.Classification `json:"crawler"`
	// Target is the rewritten request URI for ActionRewrite.
	Target string `json:"target,omitempty"`
}

// Options configures a Decider.
type Options struct {
	Strategy          string
	RewritePath       string
	CustomDomainsOnly bool
	// OverrideParam names a query parameter that forces the verdict:
	// "1" treats the caller as a crawler, "0" as a human.
	OverrideParam string
}

// Decider computes routing decisions. It holds no mutable state.
type Decider struct {
	classifier *crawler.Classifier
	exemptions *Exemptions
	domains    *DomainMatcher
	opts       Options
}

// NewDecider creates a Decider.
func NewDecider(c *crawler.Classifier, e *Exemptions, d *DomainMatcher, opts Options) *Decider {
	if opts.Strategy == "" {
		opts.Strategy = StrategyRewrite
	}
	return &Decider{classifier: c, exemptions: e, domains: d, opts: opts}
}

// Strategy returns the configured crawler dispatch strategy.
func (d *Decider) Strategy() string {
	return d.opts.Strategy
}

// Decide returns the routing decision for in. Exemption is checked before
// classification so asset requests never reach the metadata path.
func (d *Decider) Decide(in Input) Decision {
	if d.exemptions.Exempt(in.Path) {
		return Decision{Action: ActionPassThrough, Reason: ReasonExempt}
	}

	class := d.classifier.Classify(in.UserAgent)
	reason := ReasonCrawler
	if d.opts.OverrideParam != "" && in.Query != nil {
		switch in.Query.Get(d.opts.OverrideParam) {
		case "1":
			class.IsCrawler = true
			reason = ReasonForced
		case "0":
			class = crawler.Classification{}
		}
	}

	if !class.IsCrawler {
		return Decision{Action: ActionPassThrough, Reason: ReasonHuman}
	}
	if d.opts.CustomDomainsOnly && !d.domains.IsCustom(in.Host) {
		return Decision{Action: ActionPassThrough, Reason: ReasonDefaultDomain, Crawler: class}
	}

	if d.opts.Strategy == StrategyProxy {
		return Decision{Action: ActionProxy, Reason: reason, Crawler: class}
	}
	return Decision{
		Action:  ActionRewrite,
		Reason:  reason,
		Crawler: class,
		Target:  RewriteTarget(d.opts.RewritePath, in.Path),
	}
}

// RewriteTarget builds the internal metadata URI carrying the original path.
// Slashes are legal in a query component and are left unescaped.
func RewriteTarget(rewritePath, originalPath string) string {
	return rewritePath + "?path=" + strings.ReplaceAll(url.QueryEscape(originalPath), "%2F", "/")
}
