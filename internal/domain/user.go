package domain

import "time"

// User representa la cuenta de autenticacion. Los datos de citas (bio,
// intereses, preferencias) viven en Profile; toda cuenta nueva se crea con su
// perfil vacio en el mismo flujo de registro.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name,omitempty"`
	PasswordHash    string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	OtpCodeHash     string     `json:"-"`
	OtpExpiresAt    *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Verified indica si el email de la cuenta fue confirmado via OTP.
func (u User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
