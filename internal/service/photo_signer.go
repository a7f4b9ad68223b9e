package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PhotoSigner genera URLs firmadas con expiracion para las fotos de perfil.
// La firma es HMAC-SHA256 sobre "key|expiry" con un secreto compartido.
type PhotoSigner struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
}

func NewPhotoSigner(baseURL, secret string, ttl time.Duration) *PhotoSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PhotoSigner{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		ttl:     ttl,
	}
}

// SignURL devuelve la URL firmada de una foto. Con secreto vacio devuelve la
// URL sin firmar (modo desarrollo).
func (s *PhotoSigner) SignURL(photoKey string) string {
	plain := s.baseURL + "/" + url.PathEscape(photoKey)
	if len(s.secret) == 0 {
		return plain
	}
	expires := time.Now().UTC().Add(s.ttl).Unix()
	sig := s.signature(photoKey, expires)
	return fmt.Sprintf("%s?expires=%d&sig=%s", plain, expires, sig)
}

// SignAll firma una lista de claves de foto preservando el orden.
func (s *PhotoSigner) SignAll(photoKeys []string) []string {
	if len(photoKeys) == 0 {
		return nil
	}
	out := make([]string, len(photoKeys))
	for i, key := range photoKeys {
		out[i] = s.SignURL(key)
	}
	return out
}

// Verify valida firma y expiracion de una URL generada por SignURL.
func (s *PhotoSigner) Verify(photoKey string, expires int64, sig string) bool {
	if len(s.secret) == 0 {
		return true
	}
	if time.Now().UTC().Unix() >= expires {
		return false
	}
	expected := s.signature(photoKey, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *PhotoSigner) signature(photoKey string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(photoKey + "|" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
