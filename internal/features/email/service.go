package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/peatiscoding/cadence-sub000/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is one outbound mail.
type Message struct {
	From    string
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
}

// Sender delivers messages for a single sending domain.
type Sender interface {
	SendMessage(ctx context.Context, msg Message) (messageID string, err error)
}

// Registry resolves a Sender by the domain of the message's from-address.
type Registry interface {
	SenderFor(domain string) (Sender, error)
}

type RegistryImpl struct {
	senders map[string]Sender
}

func NewRegistry(cfg *config.Config, logger *zap.Logger) Registry {
	senders := map[string]Sender{}
	for domain, smtpCfg := range cfg.Senders {
		senders[domain] = &smtpSender{config: smtpCfg, logger: logger}
	}
	return &RegistryImpl{senders: senders}
}

func (r *RegistryImpl) SenderFor(domain string) (Sender, error) {
	sender, ok := r.senders[strings.ToLower(domain)]
	if !ok {
		return nil, fmt.Errorf("no email sender configured for domain %q", domain)
	}
	return sender, nil
}

// DomainOf extracts the domain of an email address.
func DomainOf(address string) (string, error) {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return "", fmt.Errorf("invalid email address %q", address)
	}
	return strings.ToLower(address[at+1:]), nil
}

type smtpSender struct {
	config config.SMTPConfig
	logger *zap.Logger
}

func (s *smtpSender) SendMessage(ctx context.Context, msg Message) (string, error) {
	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	messageID := uuid.NewString()

	headers := []string{
		fmt.Sprintf("Message-ID: <%s@%s>", messageID, s.config.Domain),
		fmt.Sprintf("From: %s", msg.From),
		fmt.Sprintf("To: %s", strings.Join(msg.To, ", ")),
	}
	if len(msg.CC) > 0 {
		headers = append(headers, fmt.Sprintf("Cc: %s", strings.Join(msg.CC, ", ")))
	}
	headers = append(headers, fmt.Sprintf("Subject: %s", msg.Subject))

	body := []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Body + "\r\n")

	// BCC recipients appear in the envelope only
	recipients := append(append(append([]string{}, msg.To...), msg.CC...), msg.BCC...)

	s.logger.Info("sending email",
		zap.String("domain", s.config.Domain),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))

	if err := smtp.SendMail(addr, auth, msg.From, recipients, body); err != nil {
		return "", fmt.Errorf("smtp send via %s: %w", addr, err)
	}
	return messageID, nil
}
