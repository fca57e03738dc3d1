// internal/domain/models/content.go
package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentType discriminates the content variants. Every item validates
// against exactly one variant; validation is structural, not semantic.
type ContentType string

const (
	ContentBlog          ContentType = "blog"
	ContentResearch      ContentType = "research"
	ContentCaseStudy     ContentType = "case-study"
	ContentDocumentation ContentType = "documentation"
	ContentHelp          ContentType = "help"
)

// ContentTypes is the full set of allowed content type identifiers, the
// single source of truth for validation.
var ContentTypes = []ContentType{
	ContentBlog,
	ContentResearch,
	ContentCaseStudy,
	ContentDocumentation,
	ContentHelp,
}

// Valid reports whether t is one of the recognized content types.
func (t ContentType) Valid() bool {
	for _, ct := range ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// Content status values. Draft items become published immediately, or pass
// through scheduled when publish carries a future timestamp. Archived is
// terminal; archiving never removes the item from the store.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// DocType identifiers for documentation items.
const (
	DocTypeGuide     = "guide"
	DocTypeReference = "reference"
	DocTypeTutorial  = "tutorial"
	DocTypeAPI       = "api"
)

// Content is a single content item. The base fields are shared by every
// variant; the variant sections at the bottom are populated only for the
// types that use them (enforced by Validate).
type Content struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type    ContentType        `bson:"type" json:"type"`
	Slug    string             `bson:"slug" json:"slug"`
	Title   string             `bson:"title" json:"title"`
	TitleCI string             `bson:"title_ci" json:"-"` // lowercase, diacritics-stripped

	Excerpt  string   `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Body     string   `bson:"body" json:"body"`
	Author   string   `bson:"author" json:"author"`
	Date     time.Time `bson:"date" json:"date"`
	ReadTime int      `bson:"read_time,omitempty" json:"read_time,omitempty"` // minutes
	Tags     []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Category string   `bson:"category,omitempty" json:"category,omitempty"`
	Featured bool     `bson:"featured" json:"featured"`
	Image    string   `bson:"image,omitempty" json:"image,omitempty"`
	Meta     map[string]string `bson:"meta,omitempty" json:"meta,omitempty"`

	Status      string     `bson:"status" json:"status"`
	ScheduledAt *time.Time `bson:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`

	Reactions map[string]int64 `bson:"reactions,omitempty" json:"reactions,omitempty"`

	// Documentation and help: hierarchical product path.
	Product string `bson:"product,omitempty" json:"product,omitempty"`
	Section string `bson:"section,omitempty" json:"section,omitempty"`
	Page    string `bson:"page,omitempty" json:"page,omitempty"`

	// Documentation only.
	DocType       string   `bson:"doc_type,omitempty" json:"doc_type,omitempty"`
	Prerequisites []string `bson:"prerequisites,omitempty" json:"prerequisites,omitempty"`

	// Case study only.
	Industry string   `bson:"industry,omitempty" json:"industry,omitempty"`
	Results  []string `bson:"results,omitempty" json:"results,omitempty"`

	// Research only.
	Citation string `bson:"citation,omitempty" json:"citation,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	CreatedByID   *primitive.ObjectID `bson:"created_by_id,omitempty" json:"created_by_id,omitempty"`
	CreatedByName string              `bson:"created_by_name,omitempty" json:"created_by_name,omitempty"`

	// IdempotencyKey is the client-supplied key from the create request,
	// kept so a retried create can be answered with the existing item.
	IdempotencyKey string `bson:"idempotency_key,omitempty" json:"-"`
}

// ErrInvalidContent wraps every Validate failure so callers can
// distinguish schema violations from store faults with errors.Is.
var ErrInvalidContent = errors.New("invalid content")

var (
	errMissingTitle   = fmt.Errorf("%w: title is required", ErrInvalidContent)
	errMissingBody    = fmt.Errorf("%w: body is required", ErrInvalidContent)
	errMissingSlug    = fmt.Errorf("%w: slug is required", ErrInvalidContent)
	errMissingProduct = fmt.Errorf("%w: documentation/help content requires a product", ErrInvalidContent)
)

// Validate checks the item against its variant schema. The switch is
// exhaustive over ContentTypes so adding a variant without a rule fails
// loudly.
func (c *Content) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown content type %q", ErrInvalidContent, c.Type)
	}
	if c.Title == "" {
		return errMissingTitle
	}
	if c.Slug == "" {
		return errMissingSlug
	}
	if c.Body == "" {
		return errMissingBody
	}

	switch c.Type {
	case ContentBlog, ContentResearch, ContentCaseStudy:
		// No hierarchical path on these variants.
	case ContentDocumentation:
		if c.Product == "" {
			return errMissingProduct
		}
		if c.DocType != "" && !validDocType(c.DocType) {
			return fmt.Errorf("%w: unknown doc type %q", ErrInvalidContent, c.DocType)
		}
	case ContentHelp:
		if c.Product == "" {
			return errMissingProduct
		}
	}
	return nil
}

func validDocType(dt string) bool {
	switch dt {
	case DocTypeGuide, DocTypeReference, DocTypeTutorial, DocTypeAPI:
		return true
	}
	return false
}

// IsTerminal reports whether the item's status admits no further transitions.
func (c *Content) IsTerminal() bool { return c.Status == StatusArchived }
