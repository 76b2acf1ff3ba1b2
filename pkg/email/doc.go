// Package email provides a provider-agnostic interface for sending the
// engine's email notifications, with a Postmark implementation for
// production and a disk-based sender for local development.
//
// # Usage
//
//	import "github.com/dmitrymomot/docnotify/pkg/email"
//
//	cfg := email.Config{
//	    PostmarkServerToken:  "your-server-token",
//	    PostmarkAccountToken: "your-account-token",
//	    SenderEmail:          "notifications@example.com",
//	    SupportEmail:         "support@example.com",
//	}
//
//	client, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    // Handle configuration error
//	}
//
//	err = client.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Issue assigned to you",
//	    BodyHTML: htmlContent,
//	    Tag:      "issue-assigned",
//	})
//
// Development mode saves emails locally instead of sending them:
//
//	devSender := email.NewDevSender("./email-output")
//	err := devSender.SendEmail(ctx, params)
//
// # Error Handling
//
// Sentinel errors cover the common failure scenarios and can be checked
// with errors.Is(): ErrInvalidConfig, ErrInvalidParams,
// ErrFailedToSendEmail.
package email
