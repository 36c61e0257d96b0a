package casestudies

import "github.com/microcosm-cc/bluemonday"

// ContentPolicy decides what HTML is kept in a case study body before it is
// stored. The body is later rendered unescaped.
type ContentPolicy interface {
	Sanitize(html string) string
}

// TrustedContent stores the body as submitted. Only suitable when every
// author is trusted.
type TrustedContent struct{}

func (TrustedContent) Sanitize(html string) string {
	return html
}

// SanitizingPolicy strips scripts, event handlers and other active markup
// while keeping the formatting a rich-text editor produces.
type SanitizingPolicy struct {
	policy *bluemonday.Policy
}

func NewSanitizingPolicy() *SanitizingPolicy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("p", "span", "div", "ol", "ul", "li", "pre", "code", "blockquote")
	return &SanitizingPolicy{policy: p}
}

func (s *SanitizingPolicy) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
