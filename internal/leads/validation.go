package leads

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLen    = 200
	MaxEmailLen   = 255
	MaxMessageLen = 5000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Validated holds the two views of an accepted submission. Record is trimmed
// and is what gets stored; Escaped additionally has HTML special characters
// escaped and is only meant for rendering the notification email.
type Validated struct {
	Record  CreateLeadRequest
	Escaped CreateLeadRequest
}

// Validate checks a submission and normalizes it. Checks run in a fixed order
// and stop at the first failure.
func Validate(sub Submission) (*Validated, error) {
	rec := CreateLeadRequest{
		Category:     Category(strings.TrimSpace(sub.Type)),
		Name:         strings.TrimSpace(sub.Name),
		Email:        strings.TrimSpace(sub.Email),
		Phone:        optional(strings.TrimSpace(sub.Phone)),
		Message:      optional(strings.TrimSpace(sub.Message)),
		ProjectType:  optional(strings.TrimSpace(sub.ProjectType)),
		Address:      optional(strings.TrimSpace(sub.Address)),
		ProjectTitle: optional(strings.TrimSpace(sub.ProjectTitle)),
	}

	if rec.Category == "" || rec.Name == "" || rec.Email == "" {
		return nil, ErrMissingFields
	}
	if _, ok := ParseCategory(string(rec.Category)); !ok {
		return nil, ErrInvalidCategory
	}
	if tooLong(rec.Name, MaxNameLen) || tooLong(rec.Email, MaxEmailLen) ||
		(rec.Message != nil && tooLong(*rec.Message, MaxMessageLen)) {
		return nil, ErrInputTooLong
	}
	if !validEmail(rec.Email) {
		return nil, ErrInvalidEmail
	}

	return &Validated{Record: rec, Escaped: escapeRequest(rec)}, nil
}

// validEmail reports whether s has the local@domain.tld shape and fits the column.
func validEmail(s string) bool {
	return !tooLong(s, MaxEmailLen) && emailPattern.MatchString(s)
}

// EscapeHTML escapes the characters & < > " ' for inclusion in HTML.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// tooLong counts runes so every limit matches the VARCHAR(n) columns.
func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

func escapeRequest(rec CreateLeadRequest) CreateLeadRequest {
	esc := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := EscapeHTML(*p)
		return &v
	}
	return CreateLeadRequest{
		Category:     rec.Category,
		Name:         EscapeHTML(rec.Name),
		Email:        EscapeHTML(rec.Email),
		Phone:        esc(rec.Phone),
		Message:      esc(rec.Message),
		ProjectType:  esc(rec.ProjectType),
		Address:      esc(rec.Address),
		ProjectTitle: esc(rec.ProjectTitle),
	}
}
