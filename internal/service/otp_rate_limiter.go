package service

import (
	"sync"
	"time"
)

// OTPRateLimiter limita la frecuencia de solicitudes de OTP por clave.
type OTPRateLimiter interface {
	Allow(key string) bool
}

// otpWindow es el contador de una clave dentro de su ventana actual.
type otpWindow struct {
	resetAt time.Time
	count   int
}

type otpRateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	buckets map[string]otpWindow
}

// NewOTPRateLimiter crea un rate limiter en memoria de ventana fija.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &otpRateLimiter{
		window:  window,
		max:     max,
		buckets: make(map[string]otpWindow),
	}
}

func (l *otpRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	bucket, ok := l.buckets[key]
	if !ok || now.After(bucket.resetAt) {
		l.buckets[key] = otpWindow{resetAt: now.Add(l.window), count: 1}
		return true
	}
	if bucket.count >= l.max {
		return false
	}
	bucket.count++
	l.buckets[key] = bucket
	return true
}
