package domain

import "time"

// Roles de mensaje. En chat de match ambos lados son "user"; en la
// conversacion de onboarding el asistente responde con rol "assistant".
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message pertenece a una conversacion: el ID de un match para chat entre
// usuarios, o el ID del usuario para su conversacion de onboarding.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
