package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wb-go/wbf/zlog"

	"gala/internal/dto"
	"gala/internal/rabbit"
	"gala/internal/repo"
	"gala/internal/retention"
)

// Reader consumes delayed retention-sweep messages. A message fires once the
// event's deletion date has passed; the window is recomputed before acting so
// a rescheduled event is never deleted early.
type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("retention sweep reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.RetentionSweepMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().Err(err).Msgf("failed to unmarshal sweep message: %s", string(body))
				return err
			}

			zlog.Logger.Info().Int64("event_id", msg.EventID).Msg("sweep message received")

			event, err := r.repo.GetEventByID(cctx, msg.EventID)
			if err != nil {
				if errors.Is(err, repo.ErrEventNotFound) {
					// Already deleted by the organizer; nothing to sweep.
					return nil
				}
				zlog.Logger.Error().Err(err).Int64("event_id", msg.EventID).
					Msg("failed to load event in sweep worker")
				return err
			}

			w := retention.Compute(event.EventDate, time.Now())
			if !w.Determined {
				zlog.Logger.Info().Int64("event_id", event.ID).
					Msg("event has no date anymore, sweep skipped")
				return nil
			}

			if !w.ShouldDelete {
				// The event date moved. Re-arm for the new deletion date.
				return r.rearm(event.ID, w.DeletionDate)
			}

			if err := r.repo.DeleteEvent(cctx, event.ID); err != nil {
				zlog.Logger.Error().Err(err).Int64("event_id", event.ID).
					Msg("failed to delete expired event")
				return err
			}
			zlog.Logger.Info().Int64("event_id", event.ID).Msg("expired event deleted")
			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("retention sweep reader stopped by context")
	}()
}

func (r *Reader) rearm(eventID int64, dueAt time.Time) error {
	payload, err := json.Marshal(dto.RetentionSweepMessage{EventID: eventID, DueAt: dueAt})
	if err != nil {
		return err
	}
	delay := int(time.Until(dueAt).Seconds())
	if delay < 0 {
		delay = 0
	}
	if err := r.RMQ.Publish(payload, delay); err != nil {
		zlog.Logger.Error().Err(err).Int64("event_id", eventID).Msg("failed to re-arm sweep")
		return err
	}
	zlog.Logger.Info().Int64("event_id", eventID).Time("due_at", dueAt).Msg("sweep re-armed")
	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
