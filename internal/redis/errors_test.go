package redis

import (
	"errors"
	"net"
	"testing"

	"github.com/redis/go-redis/v9"

	"fleettrack/internal/repository"
)

func TestTranslateErr_ConnectionFailuresBecomeUnavailable(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		redis.ErrClosed,
		&net.OpError{Op: "dial", Err: errors.New("connection refused")},
	} {
		if got := translateErr(err); !errors.Is(got, repository.ErrUnavailable) {
			t.Errorf("translateErr(%v) = %v, want ErrUnavailable", err, got)
		}
	}
}

func TestTranslateErr_MissIsNotAFailure(t *testing.T) {
	t.Parallel()

	if got := translateErr(nil); got != nil {
		t.Errorf("translateErr(nil) = %v", got)
	}
	if got := translateErr(redis.Nil); !errors.Is(got, redis.Nil) {
		t.Errorf("translateErr(redis.Nil) = %v, want passthrough", got)
	}

	other := errors.New("wrong type operation")
	if got := translateErr(other); !errors.Is(got, other) {
		t.Errorf("translateErr(%v) = %v, want passthrough", other, got)
	}
}
