package event

import (
	"context"
	"sync"
)

// Tipos de evento de dominio.
const (
	TypeProfileChanged     = "profile.changed"
	TypeEmbeddingGenerated = "profile.embedding_generated"
	TypeMatchCreated       = "match.created"
)

// Event es un hecho de dominio ya ocurrido.
type Event struct {
	Type   string
	UserID string
	Data   map[string]string
}

// Publisher es el sink de eventos que reciben los servicios. Los suscriptores
// se registran en el wiring de main, nunca con back-references en runtime.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Handler procesa un evento. No debe bloquear al publicador mas alla de lo
// razonable: la entrega es sincrona y en orden de registro.
type Handler func(ctx context.Context, ev Event)

// Bus es un Publisher en memoria con suscripcion por tipo de evento.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registra un handler para un tipo de evento.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := b.handlers[ev.Type]
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}

// NopPublisher descarta todos los eventos. Util en tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
