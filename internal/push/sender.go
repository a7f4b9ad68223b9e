package push

import (
	"context"
	"errors"
)

// Notification es una notificacion push minima.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sender define la interfaz de envio de notificaciones push. Los envios son
// fire-and-forget: un fallo nunca debe abortar la operacion principal del
// caller.
type Sender interface {
	Send(ctx context.Context, userID string, n Notification) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _ string, _ Notification) error {
	if s.reason == "" {
		return errors.New("push sender disabled")
	}
	return errors.New(s.reason)
}
