package domain

import "time"

// Tipos de interaccion entre usuarios.
const (
	InteractionLike = "like"
	InteractionPass = "pass"
)

// Interaction registra un like o un pass de un usuario hacia otro.
type Interaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TargetUserID string    `json:"target_user_id"`
	Kind         string    `json:"kind"`
	CreatedAt    time.Time `json:"created_at"`
}

// Match es un like mutuo. El par se guarda ordenado (User1ID < User2ID) para
// que la restriccion de unicidad cubra ambas direcciones.
type Match struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderMatchPair normaliza un par de usuarios al orden canonico del match.
func OrderMatchPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// OtherUser devuelve el otro participante del match.
func (m Match) OtherUser(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}
