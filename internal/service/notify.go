package service

import (
	"bitwise74/bboard/internal/event"
	"bitwise74/bboard/internal/metrics"
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/pkg/security"
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"
)

//go:embed templates/email/*.txt
var emailTemplates embed.FS

// ListingAuthors resolves the listing a comment was left on, author included
type ListingAuthors interface {
	ListingWithAuthor(ctx context.Context, listingID uint) (*model.Listing, error)
}

// Dispatcher turns domain events into e-mails
type Dispatcher struct {
	mailer  Mailer
	signer  *security.Signer
	authors ListingAuthors
	metrics metrics.Recorder
	tmpl    *template.Template

	host string // Base URL used for links, without a trailing slash
	from string
}

func NewDispatcher(m Mailer, s *security.Signer, authors ListingAuthors, host, from string, rec metrics.Recorder) (*Dispatcher, error) {
	if m == nil || s == nil || authors == nil {
		return nil, errors.New("dispatcher needs a mailer, a signer and a listing lookup")
	}

	tmpl, err := template.ParseFS(emailTemplates, "templates/email/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse e-mail templates, %w", err)
	}

	if rec == nil {
		rec = metrics.Nop{}
	}

	return &Dispatcher{
		mailer:  m,
		signer:  s,
		authors: authors,
		metrics: rec,
		tmpl:    tmpl,
		host:    strings.TrimRight(host, "/"),
		from:    from,
	}, nil
}

// RegistrationCompleted sends the activation link to a freshly registered
// account. Failures are returned wrapped in ErrDelivery and never retried.
func (d *Dispatcher) RegistrationCompleted(ctx context.Context, e event.RegistrationCompleted) error {
	sign, err := d.signer.Sign(e.Account.Username)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	data := map[string]any{
		"Account": e.Account,
		"Host":    d.host,
		"Sign":    sign,
	}

	err = d.send(ctx, "activation", []string{e.Account.Email}, data)
	d.metrics.RecordNotification("activation", err)
	if err != nil {
		return err
	}

	zap.L().Debug("Activation mail sent", zap.String("account_id", e.Account.ID))
	return nil
}

// CommentCreated tells the listing's author about a new comment, provided
// they opted in and didn't write the comment themselves
func (d *Dispatcher) CommentCreated(ctx context.Context, e event.CommentCreated) error {
	listing, err := d.authors.ListingWithAuthor(ctx, e.Comment.ListingID)
	if err != nil {
		return fmt.Errorf("failed to look up listing author, %w", err)
	}

	author := listing.Author
	if author == nil {
		return fmt.Errorf("listing %d has no author loaded", listing.ID)
	}

	if !author.SendMessages {
		zap.L().Debug("Author opted out of comment notifications", zap.String("account_id", author.ID))
		return nil
	}

	if e.CommenterID != "" && e.CommenterID == author.ID {
		return nil
	}

	data := map[string]any{
		"Author":  author,
		"Host":    d.host,
		"Comment": e.Comment,
		"Listing": listing,
	}

	err = d.send(ctx, "new_comment", []string{author.Email}, data)
	d.metrics.RecordNotification("new_comment", err)

	return err
}

func (d *Dispatcher) send(ctx context.Context, name string, to []string, data map[string]any) error {
	subject, err := d.render(name+"_subject.txt", data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	body, err := d.render(name+"_body.txt", data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	err = d.mailer.Send(ctx, Message{
		From: d.from,
		To:   to,
		// Subjects must be a single line
		Subject: strings.Join(strings.Fields(subject), " "),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	return nil
}

func (d *Dispatcher) render(name string, data any) (string, error) {
	var buf bytes.Buffer

	if err := d.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s, %w", name, err)
	}

	return buf.String(), nil
}
