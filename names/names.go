// Package names derives identifier spellings for generated symbols: casing
// conversions, pluralization and a shared acronym registry.
package names

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
	titler   = cases.Title(language.Und, cases.NoLower)
)

func ruleset() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	for _, w := range []string{
		"ACL", "API", "ASCII", "AWS", "CPU", "CSS", "DNS", "EOF", "GB", "GUID",
		"HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "KB", "LHS", "MAC", "MB",
		"QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "SSO", "TCP",
		"TLS", "TTL", "UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID", "VM",
		"XML", "XMPP", "XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		r.AddAcronym(w)
	}
	return r
}

// AddAcronym registers a word to keep fully uppercased in Pascal and Camel
// conversions. Re-registering an already known acronym logs a warning and
// keeps the latest registration.
func AddAcronym(word string) {
	word = strings.ToUpper(word)
	if _, ok := acronyms[word]; ok {
		log.Warn("acronym already registered", "word", word)
	}
	acronyms[word] = struct{}{}
	rules.AddAcronym(word)
}

// Snake converts an identifier to snake_case, keeping acronym runs
// together: "HTTPCode" becomes "http_code" and "UserIDs" "user_ids".
func Snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// A word boundary sits before an uppercase letter that follows a
		// lowercase one, or that starts the trailing word of an acronym run.
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Pascal converts snake_case or kebab-case to PascalCase, uppercasing
// registered acronyms: "api_url" becomes "APIURL".
func Pascal(s string) string {
	return pascalWords(strings.FieldsFunc(s, isSeparator))
}

// Camel converts snake_case or kebab-case to camelCase: "user_id" becomes
// "userID".
func Camel(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	if len(words) == 0 {
		return ""
	}
	if len(words) == 1 {
		return strings.ToLower(words[0])
	}
	return strings.ToLower(words[0]) + pascalWords(words[1:])
}

func pascalWords(words []string) string {
	var b strings.Builder
	for _, w := range words {
		if upper := strings.ToUpper(w); hasAcronym(upper) {
			b.WriteString(upper)
			continue
		}
		b.WriteString(titler.String(w))
	}
	return b.String()
}

func hasAcronym(word string) bool {
	_, ok := acronyms[word]
	return ok
}

func isSeparator(r rune) bool { return r == '_' || r == '-' || r == ' ' }

// Plural pluralizes a name. When the pluralized form equals the input, for
// uncountable or already-plural names, a "List" suffix disambiguates the
// collection identifier.
func Plural(name string) string {
	p := rules.Pluralize(name)
	if p == name {
		p += "List"
	}
	return p
}

// Singular singularizes a name.
func Singular(name string) string {
	return rules.Singularize(name)
}

// Receiver abbreviates a name to its word initials: "UserQuery" becomes
// "uq". Slice, pointer and array markers are stripped first.
func Receiver(name string) string {
	name = strings.Trim(name, "[]*&0123456789")
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for _, w := range strings.Split(Snake(name), "_") {
		if w != "" {
			b.WriteByte(w[0])
		}
	}
	return b.String()
}
