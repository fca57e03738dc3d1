// internal/gateway/types.go
package gateway

import "time"

// Content type identifiers accepted by the service.
const (
	TypeBlog          = "blog"
	TypeResearch      = "research"
	TypeCaseStudy     = "case-study"
	TypeDocumentation = "documentation"
	TypeHelp          = "help"
)

// ContentItem is the wire shape of a content item. The same shape is
// sent on create and update; server-managed fields (id, status,
// timestamps) are ignored on input.
type ContentItem struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`

	Excerpt  string            `json:"excerpt,omitempty"`
	Body     string            `json:"body"`
	Author   string            `json:"author,omitempty"`
	Date     time.Time         `json:"date,omitempty"`
	ReadTime int               `json:"read_time,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Category string            `json:"category,omitempty"`
	Featured bool              `json:"featured,omitempty"`
	Image    string            `json:"image,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`

	Status      string     `json:"status,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	Reactions map[string]int64 `json:"reactions,omitempty"`

	Product string `json:"product,omitempty"`
	Section string `json:"section,omitempty"`
	Page    string `json:"page,omitempty"`

	DocType       string   `json:"doc_type,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`

	Industry string   `json:"industry,omitempty"`
	Results  []string `json:"results,omitempty"`

	Citation string `json:"citation,omitempty"`

	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
	CreatedByID   string    `json:"created_by_id,omitempty"`
	CreatedByName string    `json:"created_by_name,omitempty"`
}

// ListOptions narrows List results. Zero values mean no filter.
type ListOptions struct {
	Type     string
	Query    string
	Category string
	Featured *bool
	Limit    int
}
