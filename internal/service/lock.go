package service

import (
	"context"
	"time"

	"fleettrack/internal/redis"
)

const (
	vehicleLockTTL      = 10 * time.Second
	lockRetryInterval   = 25 * time.Millisecond
	lockAcquireDeadline = 5 * time.Second
)

// acquireVehicleLock serializes writers for one vehicle. It retries the
// SetNX until acquired or the wait budget runs out, then returns a
// release func. The TTL bounds how long a crashed holder can block others.
func acquireVehicleLock(ctx context.Context, locks redis.LockStoreInterface, vehicleID string) (func(), error) {
	deadline := time.Now().Add(lockAcquireDeadline)

	for {
		ok, err := locks.AcquireVehicleLock(ctx, vehicleID, vehicleLockTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = locks.ReleaseVehicleLock(context.WithoutCancel(ctx), vehicleID)
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrVehicleBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
