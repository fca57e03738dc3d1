// internal/app/store/content/contentstore.go
package contentstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/contenthub/internal/app/system/normalize"
	"github.com/dalemusser/contenthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit caps list and search results when the caller does not supply
// a limit. MaxLimit is the hard ceiling regardless of what was asked for.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var (
	// ErrNotFound is returned when no content matches the lookup.
	ErrNotFound = errors.New("content not found")
	// ErrDuplicateSlug is returned when creating content with a slug that
	// already exists.
	ErrDuplicateSlug = errors.New("content with this slug already exists")
	// ErrArchived is returned when mutating an archived (terminal) item.
	ErrArchived = errors.New("content is archived")
)

// Store persists content items in the "content" collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("content")}
}

// EnsureIndexes creates the unique slug index and the lookup indexes used by
// listing, the product-path hierarchy, and scheduled publishing.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("idx_content_slug").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_content_type_status_date"),
		},
		{
			Keys:    bson.D{{Key: "product", Value: 1}, {Key: "section", Value: 1}, {Key: "page", Value: 1}},
			Options: options.Index().SetName("idx_content_product_path").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("idx_content_scheduled"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new content item as a draft after normalizing and
// validating it against its variant schema.
func (s *Store) Create(ctx context.Context, c models.Content) (models.Content, error) {
	now := time.Now().UTC()

	c.ID = primitive.NewObjectID()
	c.Slug = normalize.Slug(c.Slug)
	c.Title = normalize.Name(c.Title)
	c.TitleCI = text.Fold(c.Title)
	c.Status = models.StatusDraft
	c.ScheduledAt = nil
	c.PublishedAt = nil
	if c.Date.IsZero() {
		c.Date = now
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := c.Validate(); err != nil {
		return models.Content{}, err
	}

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Content{}, ErrDuplicateSlug
		}
		return models.Content{}, err
	}
	return c, nil
}

// Update replaces the mutable fields of an existing item. Status and
// reaction counters are not touched: publishing and archiving are separate
// transitions, and reactions are incremented atomically. Archived items
// reject updates.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, mut models.Content) (models.Content, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Content{}, err
	}
	if existing.IsTerminal() {
		return models.Content{}, ErrArchived
	}

	// Validate the merged document before writing.
	merged := existing
	merged.Title = normalize.Name(mut.Title)
	merged.TitleCI = text.Fold(merged.Title)
	merged.Excerpt = mut.Excerpt
	merged.Body = mut.Body
	merged.Author = mut.Author
	merged.ReadTime = mut.ReadTime
	merged.Tags = mut.Tags
	merged.Category = mut.Category
	merged.Featured = mut.Featured
	merged.Image = mut.Image
	merged.Meta = mut.Meta
	merged.Product = mut.Product
	merged.Section = mut.Section
	merged.Page = mut.Page
	merged.DocType = mut.DocType
	merged.Prerequisites = mut.Prerequisites
	merged.Industry = mut.Industry
	merged.Results = mut.Results
	merged.Citation = mut.Citation
	merged.UpdatedAt = time.Now().UTC()

	if err := merged.Validate(); err != nil {
		return models.Content{}, err
	}

	set := bson.M{
		"title":         merged.Title,
		"title_ci":      merged.TitleCI,
		"excerpt":       merged.Excerpt,
		"body":          merged.Body,
		"author":        merged.Author,
		"read_time":     merged.ReadTime,
		"tags":          merged.Tags,
		"category":      merged.Category,
		"featured":      merged.Featured,
		"image":         merged.Image,
		"meta":          merged.Meta,
		"product":       merged.Product,
		"section":       merged.Section,
		"page":          merged.Page,
		"doc_type":      merged.DocType,
		"prerequisites": merged.Prerequisites,
		"industry":      merged.Industry,
		"results":       merged.Results,
		"citation":      merged.Citation,
		"updated_at":    merged.UpdatedAt,
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return models.Content{}, err
	}
	if res.MatchedCount == 0 {
		return models.Content{}, ErrNotFound
	}
	return merged, nil
}

// Delete removes an item from the store entirely. Distinct from Archive,
// which is a status transition.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID loads a content item by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Content, error) {
	var c models.Content
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Content{}, ErrNotFound
		}
		return models.Content{}, err
	}
	return c, nil
}

// GetBySlug loads a content item by its unique slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Content, error) {
	var c models.Content
	if err := s.c.FindOne(ctx, bson.M{"slug": normalize.Slug(slug)}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Content{}, ErrNotFound
		}
		return models.Content{}, err
	}
	return c, nil
}

// GetByProductPath resolves the hierarchical documentation/help lookup.
// More specific segments narrow the result; when a deeper segment is absent
// the node at the coarsest available level is returned. Only published
// content participates.
func (s *Store) GetByProductPath(ctx context.Context, product, section, page string) (models.Content, error) {
	filter := bson.M{
		"product": product,
		"status":  models.StatusPublished,
	}
	if section != "" {
		filter["section"] = section
	} else {
		filter["section"] = bson.M{"$in": bson.A{nil, ""}}
	}
	if page != "" {
		filter["page"] = page
	} else {
		filter["page"] = bson.M{"$in": bson.A{nil, ""}}
	}

	var c models.Content
	err := s.c.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})).Decode(&c)
	if err == nil {
		return c, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.Content{}, err
	}

	// Walk back up the hierarchy: page -> section -> product root.
	if page != "" {
		return s.GetByProductPath(ctx, product, section, "")
	}
	if section != "" {
		return s.GetByProductPath(ctx, product, "", "")
	}
	return models.Content{}, ErrNotFound
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Type     models.ContentType
	Query    string
	Category string
	Featured *bool
	Limit    int64
}

// List returns published content matching the filter, newest first. Listing
// is public; drafts, scheduled, and archived items never appear.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Content, error) {
	filter := bson.M{"status": models.StatusPublished}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Featured != nil {
		filter["featured"] = *f.Featured
	}
	if q := normalize.Query(f.Query); q != "" {
		filter["$or"] = queryClauses(q)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	find := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Content
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs a free-text query across published content, optionally
// constrained by type and product.
func (s *Store) Search(ctx context.Context, query string, typ models.ContentType, product string) ([]models.Content, error) {
	q := normalize.Query(query)
	if q == "" {
		return nil, nil
	}

	filter := bson.M{
		"status": models.StatusPublished,
		"$or":    queryClauses(q),
	}
	if typ != "" {
		filter["type"] = typ
	}
	if product != "" {
		filter["product"] = product
	}

	find := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(DefaultLimit)

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Content
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Publish transitions a draft (or already scheduled item) toward published.
// A future scheduledAt moves the item to scheduled; a nil or past timestamp
// publishes immediately. Archived items reject the transition.
func (s *Store) Publish(ctx context.Context, id primitive.ObjectID, scheduledAt *time.Time) (models.Content, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Content{}, err
	}
	if existing.IsTerminal() {
		return models.Content{}, ErrArchived
	}

	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if scheduledAt != nil && scheduledAt.After(now) {
		set["status"] = models.StatusScheduled
		set["scheduled_at"] = scheduledAt.UTC()
	} else {
		set["status"] = models.StatusPublished
		set["published_at"] = now
		unset["scheduled_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var c models.Content
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Content{}, ErrNotFound
		}
		return models.Content{}, err
	}
	return c, nil
}

// Archive moves a published or scheduled item to the terminal archived
// status. The item stays in the store.
func (s *Store) Archive(ctx context.Context, id primitive.ObjectID) (models.Content, error) {
	var c models.Content
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$in": bson.A{models.StatusPublished, models.StatusScheduled}},
		},
		bson.M{
			"$set":   bson.M{"status": models.StatusArchived, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"scheduled_at": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Content{}, ErrNotFound
		}
		return models.Content{}, err
	}
	return c, nil
}

// AddReaction atomically increments a reaction counter. No authorization:
// anonymous callers may react.
func (s *Store) AddReaction(ctx context.Context, id primitive.ObjectID, reaction string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"reactions." + reaction: 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PublishDue promotes scheduled items whose time has elapsed to published.
// Called periodically by the scheduler task; returns the number promoted.
func (s *Store) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":       models.StatusScheduled,
			"scheduled_at": bson.M{"$lte": now.UTC()},
		},
		bson.M{
			"$set":   bson.M{"status": models.StatusPublished, "published_at": now.UTC(), "updated_at": now.UTC()},
			"$unset": bson.M{"scheduled_at": ""},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// queryClauses builds the case-insensitive match used by List and Search.
// The query is regex-escaped so user input cannot change the match shape.
func queryClauses(q string) bson.A {
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(q)), Options: "i"}
	plain := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	return bson.A{
		bson.M{"title_ci": rx},
		bson.M{"excerpt": plain},
		bson.M{"tags": plain},
	}
}
