package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"gala/internal/access"
	"gala/internal/changes"
	"gala/internal/dto"
	"gala/internal/guard"
	"gala/internal/model"
	"gala/internal/moderation"
	"gala/internal/notify"
	"gala/internal/rabbit"
	"gala/internal/repo"
	"gala/internal/retention"
	"gala/internal/upload"
	"gala/pkg/validator"
)

type Service interface {
	CreateEvent(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	ListEvents(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	UploadCover(ctx *ginext.Context)

	ListMedia(ctx *ginext.Context)
	ApproveMedia(ctx *ginext.Context)
	DeleteMedia(ctx *ginext.Context)
	DeleteAllMedia(ctx *ginext.Context)

	AddCategory(ctx *ginext.Context)
	RemoveCategory(ctx *ginext.Context)

	ListWishes(ctx *ginext.Context)
	ApproveWish(ctx *ginext.Context)
	DeleteWish(ctx *ginext.Context)

	SendAlbumEmails(ctx *ginext.Context)
}

type service struct {
	repo       repo.Repository
	log        *zerolog.Logger
	rbt        *rabbit.Client
	flow       *moderation.Workflow
	dispatcher *notify.Dispatcher
	uploader   upload.Uploader
}

func NewService(
	repository repo.Repository,
	logger *zerolog.Logger,
	rbt *rabbit.Client,
	dispatcher *notify.Dispatcher,
	uploader upload.Uploader,
) Service {
	return &service{
		repo:       repository,
		log:        logger,
		rbt:        rbt,
		flow:       moderation.NewWorkflow(repository, repository, logger),
		dispatcher: dispatcher,
		uploader:   uploader,
	}
}

// actorFrom reads the identity the auth middleware stored on the context.
func actorFrom(ctx *ginext.Context) model.Identity {
	return model.Identity{
		ID:    ctx.GetString("user_id"),
		Email: ctx.GetString("email"),
		Role:  ctx.GetString("role"),
	}
}

// loadAuthorizedEvent fetches the event and applies the mutation guard. On
// failure it has already written the response and returns nil.
func (s *service) loadAuthorizedEvent(ctx *ginext.Context) *model.Event {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return nil
	}

	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
		} else {
			s.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to load event")
			dto.InternalServerError(ctx)
		}
		return nil
	}

	if !guard.CanMutate(event, actorFrom(ctx)) {
		dto.PermissionDeniedError(ctx)
		return nil
	}
	return event
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.EventPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	actor := actorFrom(ctx)
	base := &model.Event{AdvancePaymentStatus: model.PaymentPendingCreation}
	event, ferr := req.Apply(base, actor.IsAdmin())
	if ferr != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, ferr.Field+": "+ferr.Desc)
		return
	}

	code, err := access.NewCode()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate access code")
		dto.InternalServerError(ctx)
		return
	}
	event.AccessCode = code
	event.CreatedBy = actor.ID

	id, err := s.repo.CreateEvent(ctx, event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}
	event.ID = id
	s.log.Info().Int64("event_id", id).Msg("event created")

	s.armRetentionSweep(event)

	dto.SuccessCreatedResponse(ctx, dto.EventResponse{
		Event:    event,
		Editable: true,
	})
}

func (s *service) GetEvent(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	resp := dto.EventResponse{Event: event, Editable: !event.EditLocked}
	if w := retention.Compute(event.EventDate, time.Now()); w.Determined {
		days := w.DaysUntilDeletion
		resp.DaysUntilDeletion = &days
		resp.DeletionWarning = w.Warning
		if !w.Editable {
			resp.Editable = false
		}
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) ListEvents(ctx *ginext.Context) {
	actor := actorFrom(ctx)
	events, err := s.repo.ListEvents(ctx, actor.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(ctx)
		return
	}

	now := time.Now()
	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		e := events[i]
		item := dto.EventResponse{Event: &e, Editable: !e.EditLocked}
		if w := retention.Compute(e.EventDate, now); w.Determined {
			days := w.DaysUntilDeletion
			item.DaysUntilDeletion = &days
			item.DeletionWarning = w.Warning
			if !w.Editable {
				item.Editable = false
			}
		}
		resp = append(resp, item)
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}
	actor := actorFrom(ctx)

	if !s.ensureEditable(ctx, event) {
		return
	}

	var req dto.EventPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	candidate, ferr := req.Apply(event, actor.IsAdmin())
	if ferr != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, ferr.Field+": "+ferr.Desc)
		return
	}

	if err := s.repo.UpdateEvent(ctx, candidate); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	// The mutation is durable from here on: the diff and its notifications
	// are best-effort and never undo or re-attempt the update.
	diff := changes.Diff(event, candidate)
	report := s.dispatcher.Dispatch(ctx, diff, candidate, actor)
	if failed := report.FailedChannels(); len(failed) > 0 {
		s.log.Warn().Strs("channels", failed).Int64("event_id", event.ID).
			Msg("some notification channels failed")
	}

	if dateChanged(event.EventDate, candidate.EventDate) {
		s.armRetentionSweep(candidate)
	}

	s.log.Info().Int64("event_id", event.ID).Int("changes", len(diff)).Msg("event updated")
	dto.SuccessResponse(ctx, dto.UpdateEventResponse{
		Event:          candidate,
		Changes:        diff.SummaryLines(),
		FailedChannels: report.FailedChannels(),
	})
}

// ensureEditable enforces the one-month edit window. The first rejection
// persists the lock so the decision never flips back, even across clock
// adjustments; afterwards the stored flag alone decides.
func (s *service) ensureEditable(ctx *ginext.Context, event *model.Event) bool {
	if event.EditLocked {
		dto.EditLockedError(ctx)
		return false
	}
	w := retention.Compute(event.EventDate, time.Now())
	if w.Determined && !w.Editable {
		if err := s.repo.LockEventEdits(ctx, event.ID); err != nil {
			s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to persist edit lock")
		}
		dto.EditLockedError(ctx)
		return false
	}
	return true
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	if err := s.repo.DeleteEvent(ctx, event.ID); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to delete event")
		dto.InternalServerError(ctx)
		return
	}
	s.log.Info().Int64("event_id", event.ID).Msg("event deleted")
	dto.SuccessResponse(ctx, map[string]int64{"id": event.ID})
}

func (s *service) UploadCover(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}
	actor := actorFrom(ctx)

	if !s.ensureEditable(ctx, event) {
		return
	}

	header, err := ctx.FormFile("cover")
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Missing cover file")
		return
	}
	file, err := header.Open()
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Failed to open cover file")
		return
	}
	defer file.Close()

	url, err := s.uploader.UploadCover(file, header)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("cover upload failed")
		dto.InternalServerError(ctx)
		return
	}

	candidate := *event
	candidate.CoverImageURL = url
	if err := s.repo.UpdateEvent(ctx, &candidate); err != nil {
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to store cover URL")
		dto.InternalServerError(ctx)
		return
	}

	diff := changes.Diff(event, &candidate)
	s.dispatcher.Dispatch(ctx, diff, &candidate, actor)

	dto.SuccessResponse(ctx, map[string]string{"cover_image_url": url})
}

func (s *service) ListMedia(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	filter := moderation.StatusFilter(ctx.DefaultQuery("status", string(moderation.FilterAll)))
	if !filter.Valid() {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Unknown status filter")
		return
	}
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "24"))
	if page < 1 || size < 1 {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid paging parameters")
		return
	}

	items, err := s.repo.ListMediaByEvent(ctx, event.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to list media")
		dto.InternalServerError(ctx)
		return
	}

	views := moderation.Partition(items)
	view := views.For(filter)
	dto.SuccessResponse(ctx, dto.MediaListResponse{
		Items:         moderation.Page(view, page, size),
		Total:         len(view),
		TotalPending:  len(views.Pending),
		TotalApproved: len(views.Approved),
		Page:          page,
		PageSize:      size,
	})
}

func (s *service) ApproveMedia(ctx *ginext.Context) {
	s.runMediaBatch(ctx, s.flow.ApproveMedia, s.flow.ApproveManyMedia)
}

func (s *service) DeleteMedia(ctx *ginext.Context) {
	s.runMediaBatch(ctx, s.flow.DeleteMedia, s.flow.DeleteManyMedia)
}

// runMediaBatch handles both the single-item and the sequential batch form.
// A single id keeps single-op semantics (abort entirely on failure); several
// ids halt at the first failure and report partial progress. The workflow is
// always invoked with the authorized event's id, so ids from other events
// resolve to not found.
func (s *service) runMediaBatch(
	ctx *ginext.Context,
	one func(context.Context, int64, int64) error,
	many func(context.Context, int64, []int64) moderation.BatchResult,
) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	var req dto.BatchIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if len(req.IDs) == 1 {
		if err := one(ctx, event.ID, req.IDs[0]); err != nil {
			s.respondMediaError(ctx, err)
			return
		}
		dto.SuccessResponse(ctx, dto.BatchResponse{Processed: req.IDs})
		return
	}

	res := many(ctx, event.ID, req.IDs)
	if res.AllSucceeded() {
		dto.SuccessResponse(ctx, dto.BatchResponse{Processed: res.Processed})
		return
	}
	dto.PartialBatchResponse(ctx, res.Processed, res.FailedID)
}

func (s *service) respondMediaError(ctx *ginext.Context, err error) {
	if errors.Is(err, repo.ErrMediaNotFound) {
		dto.NotFoundError(ctx, dto.MediaNotFound, "Media item not found")
		return
	}
	s.log.Error().Err(err).Msg("media operation failed")
	dto.InternalServerError(ctx)
}

func (s *service) DeleteAllMedia(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	n, err := s.repo.DeleteAllMedia(ctx, event.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to delete all media")
		dto.InternalServerError(ctx)
		return
	}
	s.log.Info().Int64("event_id", event.ID).Int64("deleted", n).Msg("all media deleted")
	dto.SuccessResponse(ctx, map[string]int64{"deleted": n})
}

func (s *service) AddCategory(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	var req dto.AddCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	category := &model.HighlightCategory{
		EventID:      event.ID,
		Name:         req.Name,
		Icon:         req.Icon,
		DisplayOrder: req.DisplayOrder,
	}
	id, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to create category")
		dto.InternalServerError(ctx)
		return
	}
	category.ID = id
	dto.SuccessCreatedResponse(ctx, category)
}

func (s *service) RemoveCategory(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	categoryID, err := strconv.ParseInt(ctx.Param("categoryID"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid category ID")
		return
	}

	if err := s.flow.RemoveCategory(ctx, event.ID, categoryID); err != nil {
		if errors.Is(err, repo.ErrCategoryNotFound) {
			dto.NotFoundError(ctx, dto.CategoryNotFound, "Category not found")
			return
		}
		s.log.Error().Err(err).Int64("category_id", categoryID).Msg("failed to remove category")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, map[string]int64{"id": categoryID})
}

func (s *service) ListWishes(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	wishes, err := s.repo.ListWishesByEvent(ctx, event.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to list wishes")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, wishes)
}

func (s *service) ApproveWish(ctx *ginext.Context) {
	s.runWishOp(ctx, s.flow.ApproveWish)
}

func (s *service) DeleteWish(ctx *ginext.Context) {
	s.runWishOp(ctx, s.flow.DeleteWish)
}

func (s *service) runWishOp(ctx *ginext.Context, op func(context.Context, int64, int64) error) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	wishID, err := strconv.ParseInt(ctx.Param("wishID"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid wish ID")
		return
	}

	if err := op(ctx, event.ID, wishID); err != nil {
		if errors.Is(err, repo.ErrWishNotFound) {
			dto.NotFoundError(ctx, dto.WishNotFound, "Wish not found")
			return
		}
		s.log.Error().Err(err).Int64("wish_id", wishID).Msg("wish operation failed")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, map[string]int64{"id": wishID})
}

func (s *service) SendAlbumEmails(ctx *ginext.Context) {
	event := s.loadAuthorizedEvent(ctx)
	if event == nil {
		return
	}

	media, err := s.repo.ListMediaByEvent(ctx, event.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to list media for album mailing")
		dto.InternalServerError(ctx)
		return
	}

	res := s.dispatcher.SendAlbumEmails(event, media)
	s.log.Info().Int64("event_id", event.ID).Int("sent", res.Sent).
		Int("failed", len(res.Failed)).Msg("album e-mails dispatched")
	dto.SuccessResponse(ctx, res)
}

// armRetentionSweep schedules the delayed sweep message for the event's
// deletion date. Publish failures are logged only; the sweep worker re-arms
// messages that fire early, so a lost message is an inconvenience, not data
// loss.
func (s *service) armRetentionSweep(event *model.Event) {
	w := retention.Compute(event.EventDate, time.Now())
	if !w.Determined {
		return
	}

	msg := dto.RetentionSweepMessage{EventID: event.ID, DueAt: w.DeletionDate}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal sweep message")
		return
	}

	delaySeconds := int(time.Until(w.DeletionDate).Seconds())
	if delaySeconds < 0 {
		delaySeconds = 0
	}
	if err := s.rbt.Publish(payload, delaySeconds); err != nil {
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to publish sweep message")
	}
}

func dateChanged(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil || b == nil:
		return true
	default:
		return !a.Equal(*b)
	}
}
