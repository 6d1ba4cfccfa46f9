// Package notify delivers interview notifications. Direct messages go to a
// single address; broadcasts go to the team channel.
package notify

import (
	"context"
	"errors"
)

type Notifier interface {
	SendMessage(ctx context.Context, to, subject, body string) error
	SendBroadcast(ctx context.Context, text string) error
}

type Mailer interface {
	SendMessage(ctx context.Context, to, subject, body string) error
}

type Broadcaster interface {
	SendBroadcast(ctx context.Context, text string) error
}

// Dispatcher routes direct messages to a Mailer and fans broadcasts out to
// every Broadcaster.
type Dispatcher struct {
	mailer       Mailer
	broadcasters []Broadcaster
}

func NewDispatcher(mailer Mailer, broadcasters ...Broadcaster) *Dispatcher {
	return &Dispatcher{mailer: mailer, broadcasters: broadcasters}
}

func (d *Dispatcher) SendMessage(ctx context.Context, to, subject, body string) error {
	return d.mailer.SendMessage(ctx, to, subject, body)
}

// SendBroadcast posts text to every broadcaster and joins their errors.
func (d *Dispatcher) SendBroadcast(ctx context.Context, text string) error {
	var errs []error
	for _, b := range d.broadcasters {
		if err := b.SendBroadcast(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
