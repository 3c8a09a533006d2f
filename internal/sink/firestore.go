package sink

import (
	"context"
	"errors"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

// MaxBatchWrites is the Firestore limit on writes in one commit.
const MaxBatchWrites = 500

// FirestoreConfig selects the project and credentials.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreSink stores documents in Cloud Firestore.
type FirestoreSink struct {
	client *firestore.Client
}

// NewFirestore opens a Firestore client. An unreadable credentials file
// falls back to application default credentials.
func NewFirestore(ctx context.Context, cfg FirestoreConfig) (*FirestoreSink, error) {
	log := zap.L().With(zap.String("component", "sink"), zap.String("project", cfg.ProjectID))

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			log.Warn("credentials file not found, using default credentials",
				zap.String("file", cfg.CredentialsFile))
		} else {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "sink: create firestore client")
	}
	log.Info("firestore client initialized")
	return &FirestoreSink{client: client}, nil
}

// NewFirestoreFromClient wraps an existing client.
func NewFirestoreFromClient(client *firestore.Client) *FirestoreSink {
	return &FirestoreSink{client: client}
}

func (s *FirestoreSink) restaurants() *firestore.CollectionRef {
	return s.client.Collection(RestaurantsCollection)
}

func (s *FirestoreSink) PutRestaurant(ctx context.Context, r *model.Restaurant) error {
	if _, err := s.restaurants().Doc(r.ID).Set(ctx, RestaurantFields(r)); err != nil {
		return eris.Wrapf(err, "sink: put restaurant %s", r.ID)
	}
	return nil
}

func (s *FirestoreSink) PutReviews(ctx context.Context, id string, reviews []model.Review) error {
	docs := reviewDocs(reviews)
	col := s.restaurants().Doc(id).Collection(ReviewsCollection)

	for start := 0; start < len(docs); start += MaxBatchWrites {
		end := min(start+MaxBatchWrites, len(docs))
		batch := s.client.Batch()
		for _, d := range docs[start:end] {
			batch.Set(col.Doc(d.key), d.fields)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return eris.Wrapf(err, "sink: commit reviews %s [%d:%d]", id, start, end)
		}
	}
	return nil
}

func (s *FirestoreSink) KnownIDs(ctx context.Context) ([]string, error) {
	iter := s.restaurants().DocumentRefs(ctx)
	var ids []string
	for {
		ref, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "sink: list restaurant ids")
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

func (s *FirestoreSink) RestaurantDocs(ctx context.Context) ([]Document, error) {
	iter := s.restaurants().Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "sink: list restaurants")
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

func (s *FirestoreSink) Close() error {
	return s.client.Close()
}
