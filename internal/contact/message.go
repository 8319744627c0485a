package contact

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kdblegal/kdbweb/pkg"
)

const (
	MaxMessageLength = 4000

	DefaultListLimit = 200
	MaxListLimit     = 500

	StatusNew = "new"
)

var ErrNotFound = errors.New("contact message not found")

type Message struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IP        string    `json:"-"`
	UserAgent string    `json:"-"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type SendParams struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (p SendParams) toMessage() (*Message, error) {
	msg := &Message{
		Name:    strings.TrimSpace(p.Name),
		Email:   strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:   strings.TrimSpace(p.Phone),
		Subject: strings.TrimSpace(p.Subject),
		Message: strings.TrimSpace(p.Message),
		Status:  StatusNew,
	}

	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, pkg.NewValidationError("name, email and message are required")
	}
	if !pkg.IsValidEmail(msg.Email) {
		return nil, pkg.NewValidationError("invalid email")
	}
	if utf8.RuneCountInString(msg.Message) > MaxMessageLength {
		return nil, pkg.NewValidationError("message is too long")
	}

	return msg, nil
}
