// Package guard decides whether an acting identity may mutate an event.
package guard

import "gala/internal/model"

// CanMutate allows admins and the event creator. The creator column holds an
// identity id on current records and a bare e-mail address on legacy ones, so
// both are checked, id first.
func CanMutate(event *model.Event, actor model.Identity) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.ID != "" && event.CreatedBy == actor.ID {
		return true
	}
	if actor.Email != "" && event.CreatedBy == actor.Email {
		return true
	}
	return false
}
