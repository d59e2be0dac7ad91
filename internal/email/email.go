// Package email models the business mailbox: append-only inbox and
// outbox with monotonically assigned ids, plus synthesis of supplier
// replies to the agent's outgoing mail.
package email

import (
	"fmt"
	"strings"
	"time"
)

// Type tags what an email is for.
type Type string

const (
	TypeOrder    Type = "order"
	TypeResponse Type = "response"
	TypeNotice   Type = "notice"
	TypeGeneral  Type = "general"
)

// Email is one message. Immutable once filed except for the Read flag.
type Email struct {
	ID        string
	Timestamp time.Time
	Sender    string
	Recipient string
	Subject   string
	Body      string
	Type      Type
	Read      bool
}

// DefaultAgentAddress is the operator's own address.
const DefaultAgentAddress = "vending.operator@business.com"

// System is the mailbox. Inbox and outbox only ever grow; ids are never
// reused.
type System struct {
	agentAddress string
	inbox        []*Email
	outbox       []*Email
	counter      int
	profiles     map[string]string
}

// NewSystem creates an empty mailbox owned by agentAddress.
func NewSystem(agentAddress string) *System {
	if agentAddress == "" {
		agentAddress = DefaultAgentAddress
	}
	return &System{agentAddress: agentAddress, profiles: make(map[string]string)}
}

// AgentAddress returns the operator's address.
func (s *System) AgentAddress() string { return s.agentAddress }

// Send files an outgoing email from the agent and returns its id.
func (s *System) Send(now time.Time, recipient, subject, body string, t Type) string {
	s.counter++
	e := &Email{
		ID:        fmt.Sprintf("sent_%03d", s.counter),
		Timestamp: now,
		Sender:    s.agentAddress,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Type:      t,
	}
	s.outbox = append(s.outbox, e)
	return e.ID
}

// Receive files an incoming email and returns its id.
func (s *System) Receive(now time.Time, sender, subject, body string, t Type) string {
	s.counter++
	e := &Email{
		ID:        fmt.Sprintf("recv_%03d", s.counter),
		Timestamp: now,
		Sender:    sender,
		Recipient: s.agentAddress,
		Subject:   subject,
		Body:      body,
		Type:      t,
	}
	s.inbox = append(s.inbox, e)
	return e.ID
}

// Unread returns inbox emails not yet read, oldest first.
func (s *System) Unread() []*Email {
	var out []*Email
	for _, e := range s.inbox {
		if !e.Read {
			out = append(out, e)
		}
	}
	return out
}

// Inbox returns a copy of the inbox slice.
func (s *System) Inbox() []*Email {
	return append([]*Email(nil), s.inbox...)
}

// Outbox returns a copy of the outbox slice.
func (s *System) Outbox() []*Email {
	return append([]*Email(nil), s.outbox...)
}

// UnreadCount returns how many inbox emails are unread.
func (s *System) UnreadCount() int {
	return len(s.Unread())
}

// MarkAllRead flags every inbox email read and returns how many changed.
func (s *System) MarkAllRead() int {
	count := 0
	for _, e := range s.inbox {
		if !e.Read {
			e.Read = true
			count++
		}
	}
	return count
}

// UnreadForAgent formats all unread emails for the agent transcript,
// separated by "----" spacers, and marks everything read as a side
// effect. Returns a fixed sentinel when nothing is unread.
func (s *System) UnreadForAgent() string {
	unread := s.Unread()
	if len(unread) == 0 {
		return "No unread emails."
	}

	blocks := make([]string, 0, len(unread))
	for _, e := range unread {
		blocks = append(blocks, fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\n%s",
			e.Sender, e.Subject, e.Timestamp.Format("2006-01-02 15:04 UTC"), e.Body))
	}
	s.MarkAllRead()
	return strings.Join(blocks, "\n----\n")
}
