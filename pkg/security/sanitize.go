package security

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxFilenameLength    = 255
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// Patterns shared by detection and sanitization. Plain SELECT is allowed;
// only statement shapes that never belong in user input are flagged.
var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?i)insert\s+into`),
	regexp.MustCompile(`(?i)delete\s+from`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)update\s+\S+\s+set`),
	regexp.MustCompile(`(?i)exec(ute)?\s*\(`),
	regexp.MustCompile(`(?i)script\s*>`),
	regexp.MustCompile(`(?i)javascript:`),
}

var xssRemovalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<script[^>]*>`),
	regexp.MustCompile(`(?i)</script\s*>`),
	regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)<iframe[^>]*>`),
	regexp.MustCompile(`(?i)</iframe\s*>`),
	regexp.MustCompile(`(?i)<embed[^>]*>`),
	regexp.MustCompile(`(?i)<object[^>]*>`),
	regexp.MustCompile(`(?i)</object\s*>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)\son\w+\s*=\s*('[^']*'|"[^"]*"|[^\s>]*)`),
}

var xssDetectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<embed`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
}

var (
	emailAllowedChars = regexp.MustCompile(`[^a-z0-9@._+\-]`)
	phoneAllowedChars = regexp.MustCompile(`[^0-9+]`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	namedTagPattern   = regexp.MustCompile(`(?i)<\s*(/?)\s*([a-z][a-z0-9]*)[^>]*>`)
)

var allowedHTMLTags = map[string]bool{
	"b":      true,
	"i":      true,
	"em":     true,
	"strong": true,
	"p":      true,
	"br":     true,
	"span":   true,
}

// SanitizeString trims surrounding whitespace and strips control characters.
// Newlines and tabs survive.
func SanitizeString(s string) string {
	return strings.TrimSpace(removeControlCharacters(s))
}

// removeControlCharacters drops every control character except newline and
// tab. Carriage returns are dropped too so values normalize to LF.
func removeControlCharacters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeHTML escapes HTML metacharacters so the value is safe to embed in
// markup.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

// SanitizeForSQL removes statement fragments commonly used in injection
// attempts. Queries use parameter binding; this is a second line of defense
// for values that end up in logs or free-text columns.
func SanitizeForSQL(s string) string {
	for {
		cleaned := s
		for _, pattern := range sqlInjectionPatterns {
			cleaned = pattern.ReplaceAllString(cleaned, "")
		}
		if cleaned == s {
			return cleaned
		}
		s = cleaned
	}
}

// SanitizeForXSS removes script, iframe, embed and object tags, inline event
// handlers and javascript: URLs. Removal repeats until the value is stable so
// split payloads cannot reassemble.
func SanitizeForXSS(s string) string {
	for {
		cleaned := s
		for _, pattern := range xssRemovalPatterns {
			cleaned = pattern.ReplaceAllString(cleaned, "")
		}
		if cleaned == s {
			return cleaned
		}
		s = cleaned
	}
}

// SanitizeEmail lowercases the address and keeps only characters valid in a
// plain email.
func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	return emailAllowedChars.ReplaceAllString(email, "")
}

// SanitizePhone keeps digits and plus signs, dropping formatting characters.
func SanitizePhone(phone string) string {
	return phoneAllowedChars.ReplaceAllString(strings.TrimSpace(phone), "")
}

// SanitizeAlphanumeric keeps only letters and digits, including non-ASCII
// letters.
func SanitizeAlphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeFilename strips path separators and traversal sequences, replaces
// anything outside [a-zA-Z0-9._-] with an underscore and caps the length.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "")
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return TruncateString(b.String(), maxFilenameLength)
}

// SanitizeURL accepts only absolute http and https URLs and rejects anything
// carrying a javascript: payload. Invalid input becomes the empty string.
func SanitizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, "javascript:") {
		return ""
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ""
	}
	if _, err := url.Parse(rawURL); err != nil {
		return ""
	}
	return rawURL
}

// StripHTMLTags removes every tag and comment, keeping only text content.
func StripHTMLTags(s string) string {
	return htmlTagPattern.ReplaceAllString(s, "")
}

// StripNonAllowedHTMLTags keeps a small set of formatting tags, stripped of
// their attributes, and removes all other tags while preserving their text.
func StripNonAllowedHTMLTags(s string) string {
	return namedTagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		m := namedTagPattern.FindStringSubmatch(tag)
		if m == nil {
			return ""
		}
		name := strings.ToLower(m[2])
		if !allowedHTMLTags[name] {
			return ""
		}
		if m[1] == "/" {
			return "</" + name + ">"
		}
		return "<" + name + ">"
	})
}

// TruncateString caps s at maxLength bytes without splitting a rune.
func TruncateString(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if len(s) <= maxLength {
		return s
	}
	truncated := s[:maxLength]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

// NormalizeWhitespace collapses whitespace runs to single spaces and trims
// the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContainsSQLInjection reports whether s matches a known injection shape.
func ContainsSQLInjection(s string) bool {
	for _, pattern := range sqlInjectionPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// ContainsXSS reports whether s carries a script tag, inline event handler
// or javascript: URL.
func ContainsXSS(s string) bool {
	for _, pattern := range xssDetectionPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// SanitizeInput is the general-purpose cleaner for free-text fields such as
// moderation reasons and audit notes. It strips control characters, removes
// XSS and injection fragments until stable, normalizes whitespace and caps
// the length.
func SanitizeInput(input string, maxLength int) string {
	input = SanitizeString(input)
	for {
		cleaned := SanitizeForXSS(input)
		cleaned = SanitizeForSQL(cleaned)
		if cleaned == input {
			break
		}
		input = cleaned
	}
	input = NormalizeWhitespace(input)
	return TruncateString(input, maxLength)
}

// UserInput bundles the free-form fields accepted from admin requests.
type UserInput struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Sanitize cleans every field in place.
func (u *UserInput) Sanitize() {
	u.Email = SanitizeEmail(u.Email)
	u.Phone = SanitizePhone(u.Phone)
	u.Name = SanitizeInput(u.Name, maxNameLength)
	u.Description = SanitizeInput(u.Description, maxDescriptionLength)
	u.URL = SanitizeURL(u.URL)
}
