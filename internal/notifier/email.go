package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"

	"github.com/wneessen/go-mail"

	"github.com/restock-radar/restock-radar/internal/config"
	"github.com/restock-radar/restock-radar/internal/logger"
)

// EmailNotifier delivers notifications over SMTP.
//
// Connection parameters come from the settings file; the account credentials
// are injected separately so business logic never touches the process
// environment.
type EmailNotifier struct {
	// cfg holds the SMTP endpoint and transport security settings.
	cfg config.EmailConfig
	// creds is the SMTP account used for authentication and as sender address.
	creds config.Credentials
}

// NewEmailNotifier builds the production notifier from configuration and
// out-of-band credentials.
func NewEmailNotifier(cfg config.EmailConfig, creds config.Credentials) (*EmailNotifier, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, config.ErrMissingCredentials
	}

	return &EmailNotifier{cfg: cfg, creds: creds}, nil
}

// Send delivers the notification to all recipients as a single message.
func (n *EmailNotifier) Send(ctx context.Context, notification Notification) error {
	if len(notification.Recipients) == 0 {
		return &DeliveryError{Err: errors.New("no recipients"), Permanent: true}
	}

	message, err := n.buildMessage(notification)
	if err != nil {
		return err
	}

	client, err := n.buildClient()
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Sending email notification",
		"subject", notification.Subject,
		"recipients", len(notification.Recipients),
		"priority", notification.Priority.String())

	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return classifySendError(err)
	}

	return nil
}

// buildMessage renders the notification as a mail message.
func (n *EmailNotifier) buildMessage(notification Notification) (*mail.Msg, error) {
	message := mail.NewMsg()

	if err := message.FromFormat(n.cfg.SenderName, n.creds.Username); err != nil {
		return nil, &DeliveryError{Err: fmt.Errorf("invalid sender address: %w", err), Permanent: true}
	}

	if err := message.To(notification.Recipients...); err != nil {
		return nil, &DeliveryError{Err: fmt.Errorf("invalid recipient address: %w", err), Permanent: true}
	}

	message.Subject(notification.Subject)
	message.SetBodyString(mail.TypeTextPlain, notification.Body)
	message.SetImportance(importanceOf(notification.Priority))

	return message, nil
}

// buildClient creates a fresh SMTP client for one delivery. Runs are short
// lived, so there is nothing to gain from pooling connections.
func (n *EmailNotifier) buildClient() (*mail.Client, error) {
	options := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.creds.Username),
		mail.WithPassword(n.creds.Password),
	}

	switch {
	case n.cfg.EnableSSL:
		options = append(options, mail.WithSSL())
	case n.cfg.EnableTLS:
		options = append(options, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		options = append(options, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(n.cfg.Host, options...)
	if err != nil {
		return nil, &DeliveryError{Err: fmt.Errorf("configure SMTP client: %w", err), Permanent: true}
	}

	return client, nil
}

// classifySendError decides retryability from structured failure data:
// SMTP reply codes when the chain carries one, the mail library's own
// temporary-failure verdict otherwise. 5xx replies (bad auth, rejected
// addresses) are permanent; 4xx and transport failures are transient.
func classifySendError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return &DeliveryError{Err: err, Permanent: protoErr.Code >= 500}
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) && sendErr.IsTemp() {
		return &DeliveryError{Err: err}
	}

	// Dial failures and anything unclassified stay retryable.
	return &DeliveryError{Err: err}
}

// importanceOf maps notification priority onto mail importance headers.
func importanceOf(priority Priority) mail.Importance {
	switch priority {
	case PriorityLow:
		return mail.ImportanceLow
	case PriorityHigh:
		return mail.ImportanceHigh
	case PriorityUrgent:
		return mail.ImportanceUrgent
	default:
		return mail.ImportanceNormal
	}
}
