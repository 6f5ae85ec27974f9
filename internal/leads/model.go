package leads

import (
	"time"
)

// Category is the kind of form a lead was submitted through.
type Category string

const (
	CategoryContact   Category = "contact"
	CategoryValuation Category = "valorisation"
	CategoryBrochure  Category = "brochure"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategoryContact, CategoryValuation, CategoryBrochure}

// ParseCategory maps a wire value to a Category.
func ParseCategory(raw string) (Category, bool) {
	switch Category(raw) {
	case CategoryContact, CategoryValuation, CategoryBrochure:
		return Category(raw), true
	default:
		return "", false
	}
}

// Lead is a stored inquiry submitted through one of the site's forms.
type Lead struct {
	ID           string    `json:"id"`
	Category     Category  `json:"type"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	Message      *string   `json:"message,omitempty"`
	ProjectType  *string   `json:"project_type,omitempty"`
	Address      *string   `json:"address,omitempty"`
	ProjectTitle *string   `json:"project_title,omitempty"`
	EmailSent    bool      `json:"email_sent"`
	CreatedAt    time.Time `json:"created_at"`
}

// Submission is the raw form payload as posted by the site.
type Submission struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Message      string `json:"message,omitempty"`
	ProjectType  string `json:"projectType,omitempty"`
	Address      string `json:"address,omitempty"`
	ProjectTitle string `json:"projectTitle,omitempty"`
}

// CreateLeadRequest is a validated, normalized lead ready for persistence.
// Optional fields are nil when the submitter left them blank.
type CreateLeadRequest struct {
	Category     Category
	Name         string
	Email        string
	Phone        *string
	Message      *string
	ProjectType  *string
	Address      *string
	ProjectTitle *string
}

// ListFilter narrows admin listings.
type ListFilter struct {
	Category Category // empty means all categories
	Limit    int
	Offset   int
}

// Normalize clamps paging values to the admin defaults.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 || f.Limit > MaxListLimit {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
