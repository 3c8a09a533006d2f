// Package sink writes restaurants and their reviews to the document store.
package sink

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

// Collection names.
const (
	RestaurantsCollection = "restaurants"
	ReviewsCollection     = "reviews"
)

// Sink is a document store for restaurants and their reviews. Writes are
// idempotent upserts keyed by restaurant ID and review key.
type Sink interface {
	// PutRestaurant writes restaurants/{id} with its name, address and id.
	PutRestaurant(ctx context.Context, r *model.Restaurant) error
	// PutReviews writes every review under restaurants/{id}/reviews in one
	// all-or-nothing batch per chunk.
	PutReviews(ctx context.Context, id string, reviews []model.Review) error
	// KnownIDs lists the IDs of every stored restaurant.
	KnownIDs(ctx context.Context) ([]string, error)
	// RestaurantDocs returns every restaurant document with its fields.
	RestaurantDocs(ctx context.Context) ([]Document, error)
	Close() error
}

// Document is one stored document.
type Document struct {
	ID     string
	Fields map[string]any
}

// RestaurantFields is the stored form of a restaurant.
func RestaurantFields(r *model.Restaurant) map[string]any {
	return map[string]any{
		"name":    r.Name,
		"address": r.Address,
		"id":      r.ID,
	}
}

// ReviewFields is the stored form of a review. Absent strings become "" and
// absent integers become 0.
func ReviewFields(r model.Review) map[string]any {
	return map[string]any{
		"reviewer_name":          model.Deref(r.ReviewerName),
		"reviewer_state":         model.Deref(r.ReviewerState),
		"reviewer_id":            model.Deref(r.ReviewerID),
		"reviewer_total_reviews": int64(model.Deref(r.ReviewerTotalReviews)),
		"reviewer_total_photos":  int64(model.Deref(r.ReviewerTotalPhotos)),
		"star_rating":            int64(model.Deref(r.StarRating)),
		"comment":                model.Deref(r.Comment),
		"photo_url":              model.Deref(r.PhotoURL),
		"service_type":           model.Deref(r.ServiceType),
		"meal_type":              model.Deref(r.MealType),
		"spend":                  model.Deref(r.Spend),
		"food_score":             int64(model.Deref(r.FoodScore)),
		"service_score":          int64(model.Deref(r.ServiceScore)),
		"atmosphere_score":       int64(model.Deref(r.AtmosphereScore)),
		"comment_date":           model.Deref(r.CommentDate),
	}
}

// ReviewKey is the document ID of a review: the reviewer ID, or for a review
// without one a name-based UUID of its content so re-uploads overwrite
// rather than duplicate.
func ReviewKey(r model.Review) string {
	if id := model.Deref(r.ReviewerID); id != "" {
		return id
	}
	b, _ := json.Marshal(r)
	return uuid.NewSHA1(uuid.NameSpaceOID, b).String()
}

type reviewDoc struct {
	key    string
	fields map[string]any
}

// reviewDocs keys each review and keeps the last write for a repeated key,
// in first-seen order.
func reviewDocs(reviews []model.Review) []reviewDoc {
	idx := make(map[string]int, len(reviews))
	docs := make([]reviewDoc, 0, len(reviews))
	for _, r := range reviews {
		key := ReviewKey(r)
		d := reviewDoc{key: key, fields: ReviewFields(r)}
		if i, ok := idx[key]; ok {
			docs[i] = d
			continue
		}
		idx[key] = len(docs)
		docs = append(docs, d)
	}
	return docs
}
