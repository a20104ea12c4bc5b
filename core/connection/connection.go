package connection

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
)

var (
	// errors
	ErrRequestNotFound   = core.NewNotFoundError("connection request")
	ErrNotFound          = core.NewNotFoundError("connection")
	ErrSelfRequest       = errors.New("you cannot connect with yourself")
	ErrAlreadyConnected  = errors.New("you are already connected")
	ErrRequestPending    = errors.New("a connection request is already pending")
	ErrRequestNotPending = errors.New("this request is no longer pending")
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
)

// Status is the relationship of a pair of users.
type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusConnected Status = "connected"
)

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

type Request struct {
	ID         string        `json:"id"`
	FromUserID string        `json:"from_user_id"`
	ToUserID   string        `json:"to_user_id"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Between reports whether the request links a and b, in either direction.
func (r Request) Between(a, b string) bool {
	return (r.FromUserID == a && r.ToUserID == b) || (r.FromUserID == b && r.ToUserID == a)
}

// Connection is undirected: UserID and ConnectedUserID are interchangeable.
type Connection struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ConnectedUserID string    `json:"connected_user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Other returns the party of the Connection that is not me.
func (c Connection) Other(me string) string {
	if c.UserID == me {
		return c.ConnectedUserID
	}
	return c.UserID
}

func (c Connection) Involves(id string) bool {
	return c.UserID == id || c.ConnectedUserID == id
}

// View is one of the viewer's connections.
type View struct {
	ID     string           `json:"id"`
	Person directory.Person `json:"person"`
	Info   string           `json:"info"`
	Since  time.Time        `json:"since"`
	Mutual int              `json:"mutual_connections"`
}

// RequestView is a pending request with its other party resolved.
type RequestView struct {
	Request
	Person    directory.Person `json:"person"`
	Direction Direction        `json:"direction"`
	Mutual    int              `json:"mutual_connections"`
}

// SearchResult is a searched user with their relationship to the viewer.
type SearchResult struct {
	Person    directory.Person `json:"person"`
	Info      string           `json:"info"`
	Status    Status           `json:"status"`
	RequestID string           `json:"request_id,omitempty"`
	Direction Direction        `json:"direction,omitempty"`
	Mutual    int              `json:"mutual_connections"`
}

type RequestFilter struct {
	// Involving matches requests sent or received by this user.
	Involving  string
	FromUserID string
	ToUserID   string
	Status     RequestStatus
}

type Repository interface {
	CreateRequest(ctx context.Context, r Request) (Request, error)
	GetRequestByID(ctx context.Context, id string) (Request, error)
	// QueryRequests returns the matching requests, most recent first.
	QueryRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
	UpdateRequest(ctx context.Context, r Request) (Request, error)
	DeleteRequest(ctx context.Context, id string) error
	// DeleteRequestsBetween removes the requests of the pair, in both directions.
	DeleteRequestsBetween(ctx context.Context, a, b string) error

	CreateConnection(ctx context.Context, c Connection) (Connection, error)
	// QueryConnections returns every connection involving any of userIDs.
	QueryConnections(ctx context.Context, userIDs ...string) ([]Connection, error)
	// DeleteConnectionBetween reports whether a connection of the pair was removed.
	DeleteConnectionBetween(ctx context.Context, a, b string) (bool, error)
}
