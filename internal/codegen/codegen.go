// Package codegen allocates the six digit codes used for vendor codes and purchase order numbers.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const codeSpace = 1000000

// ErrCodeSpaceExhausted is returned when every attempt produced a code already in use
var ErrCodeSpaceExhausted = errors.New("no free code found")

// ErrCollision may be returned by the insert callback of Assign to request another code
var ErrCollision = errors.New("code collision")

// ExistsFunc reports whether code is already taken
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Allocator draws random codes and retries on collision
type Allocator struct {
	maxAttempts int
	source      func() uuid.UUID
}

// New returns an allocator that gives up after maxAttempts draws
func New(maxAttempts int) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Allocator{maxAttempts: maxAttempts, source: uuid.New}
}

// WithSource replaces the random source
func (a *Allocator) WithSource(source func() uuid.UUID) *Allocator {
	a.source = source
	return a
}

// Generate draws one code: a random 128-bit value reduced modulo 10^6, zero padded to 6 digits
func (a *Allocator) Generate() string {
	id := a.source()
	n := new(big.Int).SetBytes(id[:])
	n.Mod(n, big.NewInt(codeSpace))
	return fmt.Sprintf("%06d", n.Int64())
}

// Assign draws a free code and hands it to insert. When insert fails with ErrCollision
// (a concurrent writer took the code between the check and the insert) another code is
// drawn; both kinds of retry share the same attempt budget.
func (a *Allocator) Assign(ctx context.Context, exists ExistsFunc, insert func(code string) error) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := a.Generate()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code %s: %w", code, err)
		}
		if taken {
			continue
		}
		err = insert(code)
		if errors.Is(err, ErrCollision) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, a.maxAttempts)
}
