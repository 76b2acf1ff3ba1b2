package dispatch

import (
	"context"
	"time"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/rules"
)

// Well-known delivery providers. Rules reference these IDs in their
// provider defaults; users override them per notification type.
const (
	// ProviderPlatform pushes into the in-app inbox UI of connected
	// clients.
	ProviderPlatform docevent.ProviderID = "platform"
	// ProviderBrowser drives native browser notifications.
	ProviderBrowser docevent.ProviderID = "browser"
	// ProviderEmail sends a transactional email per notification.
	ProviderEmail docevent.ProviderID = "email"
)

// Instruction is one delivery order for one provider: the recorded
// notification plus the presentation fields a channel needs.
type Instruction struct {
	Provider       docevent.ProviderID
	User           docevent.UserID
	NotificationID docevent.ID
	SourceTx       docevent.ID
	DocumentID     docevent.ID
	DocumentClass  docevent.Class
	RuleID         string
	Author         docevent.UserID
	Title          string
	Body           string
	// Templates carries the rule's template set for channels that render
	// richer payloads than the plain Title/Body pair.
	Templates *rules.Templates
	Timestamp time.Time
}

// Deliverer is one delivery channel. Deliver blocks until the
// instruction is handed to the transport or fails; the dispatcher owns
// retries.
type Deliverer interface {
	Provider() docevent.ProviderID
	Deliver(ctx context.Context, ins Instruction) error
}

// NoopDeliverer accepts every instruction and does nothing. It keeps a
// provider enabled in rules while its transport is not wired yet.
type NoopDeliverer struct {
	provider docevent.ProviderID
}

// NewNoopDeliverer creates a no-op deliverer for the provider.
func NewNoopDeliverer(provider docevent.ProviderID) *NoopDeliverer {
	return &NoopDeliverer{provider: provider}
}

func (d *NoopDeliverer) Provider() docevent.ProviderID { return d.provider }

func (d *NoopDeliverer) Deliver(ctx context.Context, ins Instruction) error { return nil }
