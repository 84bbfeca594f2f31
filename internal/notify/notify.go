// Package notify fans an event diff out to the notification channels. It runs
// strictly after the mutation is persisted; nothing here can roll it back.
package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"gala/internal/access"
	"gala/internal/changes"
	"gala/internal/mailer"
	"gala/internal/model"
)

const (
	ChannelOwnerEmail    = "owner_email"
	ChannelInternalEmail = "internal_email"
	ChannelAdminRecord   = "admin_record"
)

type Config struct {
	InternalAddress string
	GuestBaseURL    string
}

// adminSink persists the audit record; failure is logged, non-fatal.
type adminSink interface {
	CreateAdminNotification(ctx context.Context, n *model.AdminNotification) (int64, error)
}

type Dispatcher struct {
	mail mailer.Sender
	sink adminSink
	cfg  Config
	log  *zerolog.Logger
}

func NewDispatcher(mail mailer.Sender, sink adminSink, cfg Config, log *zerolog.Logger) *Dispatcher {
	return &Dispatcher{mail: mail, sink: sink, cfg: cfg, log: log}
}

// ChannelOutcome reports one channel's result; Err nil means delivered.
type ChannelOutcome struct {
	Channel string `json:"channel"`
	Err     error  `json:"-"`
}

type Report struct {
	Outcomes []ChannelOutcome `json:"outcomes"`
}

func (r Report) FailedChannels() []string {
	var failed []string
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o.Channel)
		}
	}
	return failed
}

// Dispatch sends the owner e-mail, the internal audit e-mail, and the admin
// record. Channels are attempted independently: one failing is logged and
// reported but never stops the others, and Dispatch itself never fails.
// An empty change set sends nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, cs changes.ChangeSet, event *model.Event, actor model.Identity) Report {
	if cs.Empty() {
		return Report{}
	}

	var rep Report

	if actor.Email != "" {
		err := d.mail.Send(actor.Email,
			fmt.Sprintf("Your event %q was updated", event.Name),
			ownerBody(cs, event, d.cfg.GuestBaseURL))
		if err != nil {
			d.log.Warn().Err(err).Str("to", actor.Email).Msg("owner notification failed")
		}
		rep.Outcomes = append(rep.Outcomes, ChannelOutcome{Channel: ChannelOwnerEmail, Err: err})
	}

	err := d.mail.Send(d.cfg.InternalAddress,
		fmt.Sprintf("Event #%d updated by %s", event.ID, actor.ID),
		internalBody(cs, event, actor))
	if err != nil {
		d.log.Warn().Err(err).Msg("internal notification failed")
	}
	rep.Outcomes = append(rep.Outcomes, ChannelOutcome{Channel: ChannelInternalEmail, Err: err})

	_, err = d.sink.CreateAdminNotification(ctx, &model.AdminNotification{
		EventID:   event.ID,
		EventName: event.Name,
		ActorID:   actor.ID,
		Summary:   cs.SummaryLines(),
	})
	if err != nil {
		d.log.Warn().Err(err).Msg("admin notification record failed")
	}
	rep.Outcomes = append(rep.Outcomes, ChannelOutcome{Channel: ChannelAdminRecord, Err: err})

	return rep
}

func ownerBody(cs changes.ChangeSet, event *model.Event, guestBaseURL string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>%s</h2><p>The following details were updated:</p><ul>", event.Name))
	for _, line := range cs.OwnerLines() {
		b.WriteString("<li>" + line + "</li>")
	}
	b.WriteString("</ul>")
	// The link is recomposed from the persisted record so a changed access
	// code is never sent stale.
	link := access.GuestLink(guestBaseURL, event.AccessCode)
	b.WriteString(fmt.Sprintf(`<p>Guest link: <a href="%s">%s</a></p>`, link, link))
	return b.String()
}

func internalBody(cs changes.ChangeSet, event *model.Event, actor model.Identity) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Event #%d (%s) updated by %s &lt;%s&gt;</p><ul>",
		event.ID, event.Name, actor.ID, actor.Email))
	for _, line := range cs.InternalLines() {
		b.WriteString("<li>" + line + "</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// AlbumResult is the outcome of the bulk guest mailing.
type AlbumResult struct {
	Sent   int      `json:"sent"`
	Failed []string `json:"failed,omitempty"`
}

// SendAlbumEmails mails a personal album link to every distinct contactable
// contributor of approved media. Recipients are attempted independently; a
// failure is recorded and the rest are still tried.
func (d *Dispatcher) SendAlbumEmails(event *model.Event, media []model.MediaItem) AlbumResult {
	var res AlbumResult
	link := access.GuestLink(d.cfg.GuestBaseURL, event.AccessCode)

	for _, addr := range contactableUploaders(media) {
		body := fmt.Sprintf(
			`<p>Thank you for sharing your photos from %s!</p><p>Your album: <a href="%s">%s</a></p><p>%s</p>`,
			event.Name, link, link, event.ThanksMessage,
		)
		if err := d.mail.Send(addr, fmt.Sprintf("Your photos from %s", event.Name), body); err != nil {
			d.log.Warn().Err(err).Str("to", addr).Msg("album e-mail failed")
			res.Failed = append(res.Failed, addr)
			continue
		}
		res.Sent++
	}
	return res
}

// contactableUploaders returns the distinct uploader identities of approved
// media that parse as an address, in first-seen order. Uploaders that only
// left a display name are excluded.
func contactableUploaders(media []model.MediaItem) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range media {
		if !m.Approved() {
			continue
		}
		addr, err := mail.ParseAddress(m.Uploader)
		if err != nil {
			continue
		}
		key := strings.ToLower(addr.Address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr.Address)
	}
	return out
}
