package redact

// Category names of the default rule table.
const (
	CategoryCredential = "credential"
	CategoryAPIKey     = "api_key"
	CategoryEmail      = "email"
	CategoryCard       = "card"
	CategorySSN        = "ssn"
	CategoryPhone      = "phone"
	CategoryIP         = "ip"
	CategorySecret     = "secret"
)

// DefaultRules returns the default ordered rule table.
//
// Order matters: credential assignments go first so the keyword and value
// disappear together, long digit runs are claimed as card numbers before the
// phone rule sees them, and SSNs are matched before phone numbers.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category:    CategoryCredential,
			Description: "Credential assignment (password=..., api_key: ...)",
			Pattern:     `(?i)\b(?:api[_-]?key|secret|password|passwd|pwd|token|access[_-]?token)\s*[:=]\s*['"]?[^\s'",;]+['"]?`,
		},
		{
			Category:    CategoryCredential,
			Description: "Bearer token",
			Pattern:     `(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{8,}=*`,
		},
		{
			Category:    CategoryAPIKey,
			Description: "Provider API key with a self-identifying prefix",
			Pattern:     `\b(?:(?:sk|pk|rk)_(?:live|test)_[A-Za-z0-9]{10,}|sk-[A-Za-z0-9_\-]{20,}|gh[pousr]_[A-Za-z0-9]{30,}|github_pat_[A-Za-z0-9_]{22,}|xox[abprs]-[A-Za-z0-9\-]{10,}|AKIA[0-9A-Z]{16}|AIza[A-Za-z0-9_\-]{35})`,
		},
		{
			Category:    CategoryEmail,
			Description: "Email address",
			Pattern:     `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
		},
		{
			Category:    CategoryCard,
			Description: "Payment card number (13-19 digits)",
			Pattern:     `\b(?:\d[ \-]?){12,18}\d\b`,
		},
		{
			Category:    CategorySSN,
			Description: "US social security number",
			Pattern:     `\b\d{3}-\d{2}-\d{4}\b`,
		},
		{
			Category:    CategoryPhone,
			Description: "Phone number",
			Pattern:     `(?:\+\d{1,3}[ .\-]?)?(?:\(\d{3}\)|\b\d{3})[ .\-]?\d{3}[ .\-]?\d{4}\b`,
		},
		{
			Category:    CategoryIP,
			Description: "IPv4 address",
			Pattern:     `\b(?:\d{1,3}\.){3}\d{1,3}\b`,
		},
	}
}
