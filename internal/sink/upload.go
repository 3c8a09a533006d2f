package sink

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/resilience"
)

// UploadObserver is told the outcome of each restaurant upload.
type UploadObserver interface {
	ObserveUpload(ok bool, reviews int)
}

// Uploader writes a restaurant and then its reviews, each under the sink
// retry policy.
type Uploader struct {
	sink     Sink
	retry    resilience.Policy
	observer UploadObserver
}

// NewUploader creates an uploader. observer may be nil.
func NewUploader(s Sink, retry resilience.Policy, observer UploadObserver) *Uploader {
	return &Uploader{sink: s, retry: retry, observer: observer}
}

// Upload writes r and its reviews. IsUpload is set only after both writes
// succeed; a restaurant without reviews skips the review batch.
func (u *Uploader) Upload(ctx context.Context, r *model.Restaurant) error {
	err := u.upload(ctx, r)
	if u.observer != nil {
		u.observer.ObserveUpload(err == nil, len(r.Reviews))
	}
	if err != nil {
		zap.L().Error("upload failed",
			zap.String("component", "sink"),
			zap.String("id", r.ID),
			zap.String("name", r.Name),
			zap.Error(err),
		)
		return err
	}
	r.IsUpload = true
	zap.L().Info("restaurant uploaded",
		zap.String("component", "sink"),
		zap.String("id", r.ID),
		zap.Int("reviews", len(r.Reviews)),
	)
	return nil
}

func (u *Uploader) upload(ctx context.Context, r *model.Restaurant) error {
	if r.ID == "" {
		return eris.New("sink: restaurant has no id")
	}
	err := u.retry.WithLogger("put_restaurant").Do(ctx, func(ctx context.Context) error {
		return u.sink.PutRestaurant(ctx, r)
	})
	if err != nil {
		return eris.Wrapf(err, "sink: upload restaurant %s", r.ID)
	}

	if len(r.Reviews) == 0 {
		return nil
	}
	err = u.retry.WithLogger("put_reviews").Do(ctx, func(ctx context.Context) error {
		return u.sink.PutReviews(ctx, r.ID, r.Reviews)
	})
	if err != nil {
		return eris.Wrapf(err, "sink: upload reviews %s", r.ID)
	}
	return nil
}
