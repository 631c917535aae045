package server

import (
	"context"

	"engagement/internal/clients"
	"engagement/internal/featureflags"
	"engagement/internal/service"
)

// flaggedNotifier drops experience events for users outside the
// experience_events rollout.
type flaggedNotifier struct {
	next  service.ExperienceNotifier
	flags *featureflags.Manager
}

// gateExperienceEvents wraps next with the rollout gate. An unconfigured flag
// leaves every event flowing.
func gateExperienceEvents(next service.ExperienceNotifier, flags *featureflags.Manager) service.ExperienceNotifier {
	if !flags.Defined(featureflags.ExperienceEvents) {
		return next
	}
	return flaggedNotifier{next: next, flags: flags}
}

func (n flaggedNotifier) Notify(ctx context.Context, event clients.ExperienceEvent) {
	if n.flags.Enabled(featureflags.ExperienceEvents, event.UserID) {
		n.next.Notify(ctx, event)
	}
}
