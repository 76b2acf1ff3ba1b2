package dispatch

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/email"
)

// AddressResolver maps a user to their email address. ErrNoAddress
// means the user cannot receive email and the instruction is skipped.
type AddressResolver interface {
	EmailAddress(ctx context.Context, user docevent.UserID) (string, error)
}

// AddressResolverFunc adapts a function to the AddressResolver interface.
type AddressResolverFunc func(ctx context.Context, user docevent.UserID) (string, error)

func (f AddressResolverFunc) EmailAddress(ctx context.Context, user docevent.UserID) (string, error) {
	return f(ctx, user)
}

// EmailDeliverer sends one transactional email per instruction.
type EmailDeliverer struct {
	sender    email.EmailSender
	addresses AddressResolver
}

// NewEmailDeliverer creates the email delivery channel.
func NewEmailDeliverer(sender email.EmailSender, addresses AddressResolver) *EmailDeliverer {
	return &EmailDeliverer{
		sender:    sender,
		addresses: addresses,
	}
}

func (d *EmailDeliverer) Provider() docevent.ProviderID { return ProviderEmail }

// Deliver resolves the recipient and sends the rendered email. A user
// without an address is skipped without error; there is nothing to
// retry.
func (d *EmailDeliverer) Deliver(ctx context.Context, ins Instruction) error {
	addr, err := d.addresses.EmailAddress(ctx, ins.User)
	if err != nil {
		if errors.Is(err, ErrNoAddress) {
			return nil
		}
		return fmt.Errorf("resolve address for %s: %w", ins.User, err)
	}

	subject := ins.Title
	if subject == "" {
		subject = fmt.Sprintf("Activity on %s", ins.DocumentClass)
	}

	return d.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   addr,
		Subject:  subject,
		BodyHTML: renderBody(ins),
		Tag:      ins.RuleID,
	})
}

// renderBody prefers the rule's HTML template and falls back to wrapping
// the plain body text.
func renderBody(ins Instruction) string {
	if ins.Templates != nil && ins.Templates.HTML != "" {
		return ins.Templates.HTML
	}

	body := ins.Body
	if body == "" {
		body = fmt.Sprintf("%s updated %s", ins.Author, ins.DocumentID)
	}
	return fmt.Sprintf("<p>%s</p>", html.EscapeString(body))
}
