package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/guestlobby/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Subjects consumed and published by the guest lobby service. Delivery is
// at-least-once with no ordering guarantee across subjects or projects.
const (
	// Project registry events
	ProjectCreated           = "project.created"
	ProjectDeleted           = "project.deleted"
	ProjectAccessCodeChanged = "project.access_code.changed"
	ProjectGuestsKick        = "project.guests.kick"

	// Lobby events
	LobbyRecalculate  = "lobby.recalculate"
	LobbyStateChanged = "lobby.state.changed"

	// Guest session events
	GuestSessionCreated = "guest.session.created"
	GuestSessionEnded   = "guest.session.ended"
	GuestInviteCreated  = "guest.invite.created"
)

// ProjectCreatedEvent carries a full project snapshot; every other project
// event carries only the project id.
type ProjectCreatedEvent struct {
	ProjectID  string    `json:"project_id"`
	OrgID      string    `json:"org_id"`
	Name       string    `json:"name"`
	AccessCode string    `json:"access_code"`
	HostEmail  string    `json:"host_email"`
	MaxGuests  int       `json:"max_guests"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProjectEvent struct {
	ProjectID string `json:"project_id"`
}

type LobbyStateChangedEvent struct {
	ProjectID string    `json:"project_id"`
	Previous  string    `json:"previous"`
	Current   string    `json:"current"`
	ChangedAt time.Time `json:"changed_at"`
}

type GuestSessionCreatedEvent struct {
	SessionID string    `json:"session_id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type GuestSessionEndedEvent struct {
	SessionID string    `json:"session_id"`
	ProjectID string    `json:"project_id"`
	Reason    string    `json:"reason"`
	EndedAt   time.Time `json:"ended_at"`
}

type GuestInviteCreatedEvent struct {
	InviteID   string    `json:"invite_id"`
	ProjectID  string    `json:"project_id"`
	GuestEmail string    `json:"guest_email"`
	InvitedBy  string    `json:"invited_by"`
	CreatedAt  time.Time `json:"created_at"`
}
