package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// otpFixedWindowScript incrementa el contador de la clave y arranca la
// ventana en el primer hit. Atomico para que varias instancias del API
// compartan el mismo limite.
const otpFixedWindowScript = `
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return hits
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// otpRedisLimiter es la variante distribuida de OTPRateLimiter. Cualquier
// fallo de redis deja pasar la solicitud: un login degradado es preferible a
// un login caido.
type otpRedisLimiter struct {
	rdb       redisEvaler
	window    time.Duration
	max       int
	keyPrefix string
}

func NewRedisOTPRateLimiter(client *redis.Client, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &otpRedisLimiter{
		rdb:       client,
		window:    window,
		max:       max,
		keyPrefix: "alter:otp:",
	}
}

func (l *otpRedisLimiter) Allow(key string) bool {
	if l == nil || l.rdb == nil {
		return true
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	windowMs := l.window.Milliseconds()
	if windowMs <= 0 {
		windowMs = time.Minute.Milliseconds()
	}
	hits, err := l.rdb.Eval(ctx, otpFixedWindowScript, []string{l.keyPrefix + key}, windowMs).Int()
	if err != nil {
		return true
	}
	return hits <= l.max
}
