package redis

import (
	"errors"
	"net"

	"github.com/redis/go-redis/v9"

	"fleettrack/internal/repository"
)

// translateErr maps connection-level Redis failures to ErrUnavailable.
// redis.Nil is a miss, not a failure, and passes through untouched.
func translateErr(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	if errors.Is(err, redis.ErrClosed) {
		return repository.ErrUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return repository.ErrUnavailable
	}
	return err
}
