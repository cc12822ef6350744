// Package notify forwards session changes of a store to external consumers.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

type (
	// SessionChanged is published each time a connection loaded a new session.
	SessionChanged struct {
		Connection string                `json:"connection"`
		Identity   model.SessionIdentity `json:"identity"`
		Session    string                `json:"session"`
		Timestamp  time.Time             `json:"timestamp"`
	}

	Publisher interface {
		Publish(msg *SessionChanged) error
	}
	PublisherFunc func(msg *SessionChanged) error
)

func (f PublisherFunc) Publish(msg *SessionChanged) error {
	return f(msg)
}

// Forward publishes every identity received on changes until the channel is
// closed. Errors are logged, they do not stop forwarding.
//
//nolint:whitespace // can't make both editor and linter happy
func Forward(
	conn string,
	changes <-chan model.SessionIdentity,
	pub Publisher,
	l *log.Logger,
) {
	for id := range changes {
		msg := &SessionChanged{
			Connection: conn,
			Identity:   id,
			Session:    id.String(),
			Timestamp:  time.Now(),
		}
		if err := pub.Publish(msg); err != nil {
			l.Warn("could not publish session change",
				log.String("conn", conn), log.ErrorField(err))
		}
	}
	l.Debug("session change channel closed", log.String("conn", conn))
}

// LogPublisher writes session changes to the log only.
func LogPublisher(l *log.Logger) Publisher {
	return PublisherFunc(func(msg *SessionChanged) error {
		l.Info("session changed",
			log.String("conn", msg.Connection),
			log.String("session", msg.Session))
		return nil
	})
}

// Subject returns the NATS subject for session changes of conn.
func Subject(conn string) string {
	return fmt.Sprintf("ftd.session.%s", conn)
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(conn *nats.Conn) *NatsPublisher {
	return &NatsPublisher{conn: conn}
}

func (n *NatsPublisher) Publish(msg *SessionChanged) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.conn.Publish(Subject(msg.Connection), data)
}

// Multi publishes to all given publishers, the first error is returned.
func Multi(pubs ...Publisher) Publisher {
	return PublisherFunc(func(msg *SessionChanged) error {
		var first error
		for _, p := range pubs {
			if err := p.Publish(msg); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
