package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/coordinator"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/notify"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/session"
)

const (
	MsgSession = "session"
	MsgDrivers = "drivers"
	MsgHover   = "hover"

	MsgEvents = "events"
	MsgUpdate = "update"
	MsgError  = "error"
)

type (
	// ClientMessage is sent by the browser. Year is optional and defaults
	// to the configured season.
	ClientMessage struct {
		Type    string   `json:"type"`
		Year    int      `json:"year,omitempty"`
		Event   string   `json:"event,omitempty"`
		Drivers []string `json:"drivers,omitempty"`
		Driver  string   `json:"driver,omitempty"`
	}
	ServerMessage struct {
		Type    string        `json:"type"`
		Phase   string        `json:"phase,omitempty"`
		Message string        `json:"message,omitempty"`
		Events  []model.Event `json:"events,omitempty"`
		*coordinator.Update
	}

	connection struct {
		id    string
		ws    *websocket.Conn
		store *session.Store
		coord *coordinator.Coordinator
		state coordinator.State
		year  int
		l     *log.Logger
	}
)

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	reqLog := log.GetFromContext(r.Context())
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		reqLog.Warn("websocket upgrade failed", log.ErrorField(err))
		return
	}
	id := uuid.NewString()
	l := reqLog.With(log.String("conn", id))
	store := session.NewStore(s.da, session.WithLogger(l.Named("session")))
	c := &connection{
		id:    id,
		ws:    ws,
		store: store,
		coord: coordinator.New(store, s.resolver, coordinator.WithLogger(l)),
		year:  s.year,
		l:     l,
	}
	go notify.Forward(id, store.Subscribe(), s.publisher, l)

	l.Info("connection opened")
	defer func() {
		c.coord.Close()
		c.store.Close()
		ws.Close()
		l.Info("connection closed")
	}()
	c.run(r.Context(), s)
}

func (c *connection) run(ctx context.Context, s *Server) {
	if events, err := s.resolver.Events(ctx, c.year); err != nil {
		c.sendError(err)
	} else {
		c.send(&ServerMessage{Type: MsgEvents, Events: events})
		if ev, ok := defaultEvent(events); ok {
			c.l.Debug("loading default session", log.String("event", ev.OfficialName))
			c.handle(ctx, &ClientMessage{Type: MsgSession, Year: c.year, Event: ev.OfficialName})
		}
	}
	for {
		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				c.l.Debug("read failed", log.ErrorField(err))
			}
			return
		}
		c.handle(ctx, &msg)
	}
}

// defaultEvent is the first championship round, falling back to the first
// event if the schedule has no rounds.
func defaultEvent(events []model.Event) (model.Event, bool) {
	if ev, ok := lo.Find(events, func(e model.Event) bool { return e.Round > 0 }); ok {
		return ev, true
	}
	return lo.First(events)
}

func (c *connection) handle(ctx context.Context, msg *ClientMessage) {
	var (
		next coordinator.State
		upd  *coordinator.Update
		err  error
	)
	switch msg.Type {
	case MsgSession:
		year := msg.Year
		if year == 0 {
			year = c.year
		}
		next, upd, err = c.coord.SessionChoice(ctx, c.state,
			coordinator.SessionChoice{Year: year, Event: msg.Event})
	case MsgDrivers:
		next, upd, err = c.coord.DriverSetChoice(ctx, c.state, msg.Drivers)
	case MsgHover:
		next, upd, err = c.coord.HoverChoice(ctx, c.state,
			coordinator.HoverEvent{Driver: msg.Driver})
	default:
		c.send(&ServerMessage{Type: MsgError, Message: "unknown message type " + msg.Type})
		return
	}
	if err != nil {
		c.sendError(err)
		return
	}
	c.state = next
	if upd == nil {
		return
	}
	c.send(&ServerMessage{Type: MsgUpdate, Phase: next.Phase.String(), Update: upd})
}

func (c *connection) sendError(err error) {
	c.send(&ServerMessage{Type: MsgError, Message: err.Error()})
}

func (c *connection) send(msg *ServerMessage) {
	if err := c.ws.WriteJSON(msg); err != nil {
		c.l.Debug("write failed", log.String("type", msg.Type), log.ErrorField(err))
	}
}
