// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrInvalidMaxAttempts indicates that maxAttempts is not positive.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

// RetryPolicy bounds caller-side retries of collaborator calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first. 1 disables retries.
	MaxAttempts int
	// InitialInterval is the delay before the first retry; later delays grow exponentially.
	InitialInterval time.Duration
	// MaxInterval caps a single delay.
	MaxInterval time.Duration
}

// DefaultRetryPolicy returns three attempts starting at half a second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Retry runs operation until it succeeds, the attempts are exhausted, or ctx ends.
// Context errors returned by operation are never retried.
func Retry(ctx context.Context, policy RetryPolicy, operation func() error) error {
	if policy.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	bo := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		bo.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		bo.MaxInterval = policy.MaxInterval
	}
	bo.MaxElapsedTime = 0

	attempt := 0
	wrapped := func() error {
		attempt++
		err := operation()
		if err == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", policy.MaxAttempts, "err", err)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(policy.MaxAttempts-1)), ctx)
	return backoff.Retry(wrapped, b)
}

// RetryingEmbedder retries failed embedding calls under a policy.
type RetryingEmbedder struct {
	next   Embedder
	policy RetryPolicy
}

// NewRetryingEmbedder wraps next with policy.
func NewRetryingEmbedder(next Embedder, policy RetryPolicy) Embedder {
	if policy.MaxAttempts <= 1 {
		return next
	}
	return &RetryingEmbedder{next: next, policy: policy}
}

func (r *RetryingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := Retry(ctx, r.policy, func() error {
		var err error
		vec, err = r.next.EmbedText(ctx, text)
		return err
	})
	return vec, err
}

func (r *RetryingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := Retry(ctx, r.policy, func() error {
		var err error
		vecs, err = r.next.EmbedTexts(ctx, texts)
		return err
	})
	return vecs, err
}
