package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/messaging"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxFrame   = 16 << 10
)

// Frame types of the live message stream.
const (
	frameOpen    = "open"
	frameSend    = "send"
	frameResend  = "resend"
	frameClose   = "close"
	frameHistory = "history"
	frameMessage = "message"
	frameAck     = "ack"
	frameError   = "error"
)

var (
	errNoConversation = errors.New("no open conversation")
	errUnknownFrame   = errors.New("unknown frame type")
)

type (
	// inFrame is a frame sent by the client.
	inFrame struct {
		Type      string `json:"type"`
		ContactID string `json:"contact_id,omitempty"`
		ClientID  string `json:"client_id,omitempty"`
		Content   string `json:"content,omitempty"`
	}

	// outFrame is a frame sent by the server.
	outFrame struct {
		Type      string                  `json:"type"`
		ContactID string                  `json:"contact_id,omitempty"`
		Messages  []messaging.Message     `json:"messages,omitempty"`
		Message   *messaging.Message      `json:"message,omitempty"`
		ClientID  string                  `json:"client_id,omitempty"`
		Status    messaging.DeliveryState `json:"status,omitempty"`
		Error     string                  `json:"error,omitempty"`
	}
)

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get(echo.HeaderOrigin)
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// stream upgrades the request to a WebSocket carrying the live conversation of the user with one contact at a time.
func (api *messengerApi) stream(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// the upgrader already replied to the client
		api.deps.Logger.Warn(fmt.Sprintf("messenger: upgrading stream of %s: %v", usr.ID, err), err, usr)
		return nil
	}

	s := newStreamSession(conn, api.deps.Messages, api.deps.Logger, usr)
	s.run(ctx.Request().Context())
	return nil
}

type streamSession struct {
	conn   *websocket.Conn
	msgs   *messaging.Service
	logger core.Logger
	me     user.User

	out     chan outFrame
	done    chan struct{}
	writing sync.WaitGroup
	relays  sync.WaitGroup
	conv    *messaging.Conversation
}

func newStreamSession(conn *websocket.Conn, msgs *messaging.Service, logger core.Logger, me user.User) *streamSession {
	return &streamSession{
		conn:   conn,
		msgs:   msgs,
		logger: logger,
		me:     me,
		out:    make(chan outFrame, 16),
		done:   make(chan struct{}),
	}
}

func (s *streamSession) run(ctx context.Context) {
	s.writing.Add(1)
	go s.writeLoop()

	s.conn.SetReadLimit(maxFrame)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in inFrame
		if err := s.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug(fmt.Sprintf("messenger: stream of %s: %v", s.me.ID, err))
			}
			break
		}
		s.handle(ctx, in)
	}

	s.closeConversation()
	s.relays.Wait()
	close(s.done)
	s.writing.Wait()
	_ = s.conn.Close()
}

func (s *streamSession) handle(ctx context.Context, in inFrame) {
	switch in.Type {
	case frameOpen:
		s.open(ctx, in.ContactID)
	case frameSend:
		if s.conv == nil {
			s.fail(errNoConversation)
			return
		}
		e, err := s.conv.Send(ctx, in.ClientID, in.Content)
		if err != nil {
			s.fail(err)
			return
		}
		s.ack(e)
	case frameResend:
		if s.conv == nil {
			s.fail(errNoConversation)
			return
		}
		e, err := s.conv.Resend(ctx, in.ClientID)
		if err != nil {
			s.fail(err)
			return
		}
		s.ack(e)
	case frameClose:
		s.closeConversation()
	default:
		s.fail(errors.Wrapf(errUnknownFrame, "%q", in.Type))
	}
}

// open switches the stream to contactID, tearing down the previous subscription.
func (s *streamSession) open(ctx context.Context, contactID string) {
	s.closeConversation()
	if contactID == "" {
		s.fail(core.NewValidationError(nil, core.FieldError{Field: "contact_id", Error: "this field is required"}))
		return
	}

	conv, err := s.msgs.Open(ctx, s.me, contactID)
	if err != nil {
		s.fail(err)
		return
	}
	s.conv = conv

	entries := conv.Thread().Entries()
	history := make([]messaging.Message, 0, len(entries))
	for _, e := range entries {
		history = append(history, e.Message)
	}
	s.emit(outFrame{Type: frameHistory, ContactID: contactID, Messages: history})

	s.relays.Add(1)
	go s.relay(conv)
}

// relay forwards the messages received in conv until it closes.
func (s *streamSession) relay(conv *messaging.Conversation) {
	defer s.relays.Done()
	for m := range conv.Incoming() {
		s.emit(outFrame{Type: frameMessage, ContactID: conv.ContactID(), Message: &m})
	}
}

func (s *streamSession) closeConversation() {
	if s.conv == nil {
		return
	}
	if err := s.conv.Close(); err != nil {
		s.logger.Warn(fmt.Sprintf("messenger: closing conversation of %s: %v", s.me.ID, err), err, s.me)
	}
	s.conv = nil
}

func (s *streamSession) ack(e messaging.Entry) {
	f := outFrame{Type: frameAck, ClientID: e.ClientID, Status: e.State, Error: e.Error}
	if e.State == messaging.DeliveryConfirmed {
		m := e.Message
		f.Message = &m
	}
	s.emit(f)
}

// fail reports err to the client. Unexpected errors are logged and hidden.
func (s *streamSession) fail(err error) {
	msg := err.Error()
	switch cause := errors.Cause(err); cause.(type) {
	case *core.ValidationError, *core.NotFoundError:
	default:
		if cause != errNoConversation && cause != errUnknownFrame && cause != core.ErrPermissionDenied {
			s.logger.Error("messenger stream", err, s.me)
			msg = http.StatusText(http.StatusInternalServerError)
		}
	}
	s.emit(outFrame{Type: frameError, Error: msg})
}

func (s *streamSession) emit(f outFrame) {
	select {
	case s.out <- f:
	case <-s.done:
	}
}

// writeLoop is the only writer of the connection. After a write failure it keeps draining until done.
func (s *streamSession) writeLoop() {
	defer s.writing.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	broken := false
	for {
		select {
		case f := <-s.out:
			if broken {
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(f); err != nil {
				broken = true
				_ = s.conn.Close()
			}
		case <-ticker.C:
			if broken {
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				broken = true
				_ = s.conn.Close()
			}
		case <-s.done:
			return
		}
	}
}
