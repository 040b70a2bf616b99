// Package crawler classifies requests as automated content fetchers by User-Agent.
package crawler

// Crawler families.
const (
	FamilySocial    = "social"
	FamilySearch    = "search"
	FamilySEO       = "seo"
	FamilyAI        = "ai"
	FamilyMessaging = "messaging"
	FamilyGeneric   = "generic"
)

// Signature maps a lowercase User-Agent substring to a crawler family.
type Signature struct {
	Token  string `toml:"token" json:"token"`
	Family string `toml:"family" json:"family"`
}

// DefaultSignatures is the shared signature table. Order matters: the first
// matching token decides the family, so the generic tokens come last.
var DefaultSignatures = []Signature{
	// Link-preview fetchers.
	{"facebookexternalhit", FamilySocial},
	{"facebot", FamilySocial},
	{"meta-externalagent", FamilySocial},
	{"twitterbot", FamilySocial},
	{"linkedinbot", FamilySocial},
	{"pinterest", FamilySocial},
	{"redditbot", FamilySocial},
	{"tumblr", FamilySocial},
	{"vkshare", FamilySocial},
	{"embedly", FamilySocial},
	{"quora link preview", FamilySocial},
	{"showyoubot", FamilySocial},
	{"outbrain", FamilySocial},
	{"w3c_validator", FamilySocial},

	// Messaging apps unfurling links.
	{"slackbot", FamilyMessaging},
	{"discordbot", FamilyMessaging},
	{"telegrambot", FamilyMessaging},
	{"whatsapp", FamilyMessaging},
	{"skypeuripreview", FamilyMessaging},
	{"viber", FamilyMessaging},

	// Search engine indexers.
	{"googlebot", FamilySearch},
	{"google-inspectiontool", FamilySearch},
	{"adsbot-google", FamilySearch},
	{"bingbot", FamilySearch},
	{"bingpreview", FamilySearch},
	{"slurp", FamilySearch},
	{"duckduckbot", FamilySearch},
	{"baiduspider", FamilySearch},
	{"yandex", FamilySearch},
	{"applebot", FamilySearch},
	{"sogou", FamilySearch},
	{"exabot", FamilySearch},
	{"petalbot", FamilySearch},

	// SEO tooling.
	{"semrushbot", FamilySEO},
	{"ahrefsbot", FamilySEO},
	{"mj12bot", FamilySEO},
	{"dotbot", FamilySEO},
	{"rogerbot", FamilySEO},
	{"screaming frog", FamilySEO},

	// AI crawlers.
	{"gptbot", FamilyAI},
	{"chatgpt-user", FamilyAI},
	{"oai-searchbot", FamilyAI},
	{"claudebot", FamilyAI},
	{"perplexitybot", FamilyAI},
	{"ccbot", FamilyAI},
	{"bytespider", FamilyAI},
	{"cohere-ai", FamilyAI},

	{"bot", FamilyGeneric},
	{"crawler", FamilyGeneric},
	{"spider", FamilyGeneric},
}
