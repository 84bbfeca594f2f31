// Package moderation implements the pending→approved workflow for media items
// and guest wishes, including the sequential best-effort batch operations.
// Every operation is scoped to one event: an id that belongs to a different
// event surfaces the store's not-found error and nothing is touched.
package moderation

import (
	"context"

	"github.com/rs/zerolog"

	"gala/internal/model"
)

// mediaStore is the subset of repo.Repository the workflow needs for media.
// All lookups and mutations carry the owning event id.
type mediaStore interface {
	GetMediaItem(ctx context.Context, eventID, id int64) (*model.MediaItem, error)
	UpdateMediaStatus(ctx context.Context, eventID, id int64, status string) error
	DeleteMediaItem(ctx context.Context, eventID, id int64) error
	GetCategory(ctx context.Context, eventID, id int64) (*model.HighlightCategory, error)
	ClearCategoryRefs(ctx context.Context, eventID, categoryID int64) error
	DeleteCategory(ctx context.Context, eventID, id int64) error
}

// wishStore is the subset of repo.Repository the workflow needs for wishes.
type wishStore interface {
	GetWish(ctx context.Context, eventID, id int64) (*model.GuestWish, error)
	UpdateWishApproved(ctx context.Context, eventID, id int64, approved bool) error
	DeleteWish(ctx context.Context, eventID, id int64) error
}

type Workflow struct {
	media  mediaStore
	wishes wishStore
	log    *zerolog.Logger
}

func NewWorkflow(media mediaStore, wishes wishStore, log *zerolog.Logger) *Workflow {
	return &Workflow{media: media, wishes: wishes, log: log}
}

// BatchResult is the outcome of a sequential batch: every id before the
// failure point was mutated and stays mutated, the failing id and everything
// after it were not touched. It is a first-class outcome, not an error.
type BatchResult struct {
	Processed []int64 `json:"processed"`
	FailedID  int64   `json:"failed_id,omitempty"`
	Err       error   `json:"-"`
}

func (r BatchResult) AllSucceeded() bool  { return r.Err == nil }
func (r BatchResult) NoneAttempted() bool { return len(r.Processed) == 0 && r.Err != nil }

// runBatch folds op over ids strictly in the order given, short-circuiting on
// the first failure. There is no concurrency; the stop point is always a
// prefix of ids.
func runBatch(ctx context.Context, ids []int64, op func(context.Context, int64) error) BatchResult {
	res := BatchResult{Processed: make([]int64, 0, len(ids))}
	for _, id := range ids {
		if err := op(ctx, id); err != nil {
			res.FailedID = id
			res.Err = err
			return res
		}
		res.Processed = append(res.Processed, id)
	}
	return res
}

// ApproveMedia marks one item of the event approved. Approving an
// already-approved item is a no-op success.
func (w *Workflow) ApproveMedia(ctx context.Context, eventID, id int64) error {
	item, err := w.media.GetMediaItem(ctx, eventID, id)
	if err != nil {
		return err
	}
	if item.Approved() {
		return nil
	}
	return w.media.UpdateMediaStatus(ctx, eventID, id, model.MediaApproved)
}

func (w *Workflow) DeleteMedia(ctx context.Context, eventID, id int64) error {
	return w.media.DeleteMediaItem(ctx, eventID, id)
}

func (w *Workflow) ApproveManyMedia(ctx context.Context, eventID int64, ids []int64) BatchResult {
	res := runBatch(ctx, ids, func(ctx context.Context, id int64) error {
		return w.ApproveMedia(ctx, eventID, id)
	})
	if res.Err != nil {
		w.log.Warn().Err(res.Err).Int64("media_id", res.FailedID).
			Int("processed", len(res.Processed)).Msg("approve batch halted")
	}
	return res
}

func (w *Workflow) DeleteManyMedia(ctx context.Context, eventID int64, ids []int64) BatchResult {
	res := runBatch(ctx, ids, func(ctx context.Context, id int64) error {
		return w.DeleteMedia(ctx, eventID, id)
	})
	if res.Err != nil {
		w.log.Warn().Err(res.Err).Int64("media_id", res.FailedID).
			Int("processed", len(res.Processed)).Msg("delete batch halted")
	}
	return res
}

// ApproveWish mirrors ApproveMedia with a boolean flag instead of an enum.
func (w *Workflow) ApproveWish(ctx context.Context, eventID, id int64) error {
	wish, err := w.wishes.GetWish(ctx, eventID, id)
	if err != nil {
		return err
	}
	if wish.Approved {
		return nil
	}
	return w.wishes.UpdateWishApproved(ctx, eventID, id, true)
}

func (w *Workflow) DeleteWish(ctx context.Context, eventID, id int64) error {
	return w.wishes.DeleteWish(ctx, eventID, id)
}

// RemoveCategory confirms the category belongs to the event, clears the
// category reference on every media item pointing at it, then deletes the
// category itself. If clearing fails the category is left in place (fail
// closed), so a partial clear can be retried. A category of another event is
// not found and nothing is cleared.
func (w *Workflow) RemoveCategory(ctx context.Context, eventID, categoryID int64) error {
	if _, err := w.media.GetCategory(ctx, eventID, categoryID); err != nil {
		return err
	}
	if err := w.media.ClearCategoryRefs(ctx, eventID, categoryID); err != nil {
		w.log.Error().Err(err).Int64("category_id", categoryID).
			Msg("category reference cleanup failed, keeping category")
		return err
	}
	return w.media.DeleteCategory(ctx, eventID, categoryID)
}
