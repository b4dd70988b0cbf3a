package shared

import (
	"context"
	"time"
)

// SubmissionGuard prevents the same deal submission from being sent to the
// remote API more than once. Keys are claimed before the create call goes out
// and released again if the call fails, so a corrected draft can be resubmitted.
type SubmissionGuard interface {
	// Claim marks a submission key as in flight with a TTL.
	// Returns true if the key was newly claimed, false if it was already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees a claimed key after a failed submission.
	Release(ctx context.Context, key string) error

	// IsClaimed reports whether a submission key is currently held.
	IsClaimed(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the guard
	Close() error
}
