package extraction

import (
	"context"
	"fmt"
)

// maxDedupAttempts bounds the existence-check loop so pathological data can
// never spin it forever.
const maxDedupAttempts = 1000

// ExistsFunc answers whether an invoice number is already taken. It must be
// an authoritative check against the store, one round-trip per candidate.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// EnsureUniqueNumber derives a free invoice number from the extracted one by
// appending an incrementing numeric suffix until the store reports no
// collision. The result is advisory: two concurrent uploads can still race,
// and the store's unique constraint at write time stays authoritative.
func EnsureUniqueNumber(ctx context.Context, number string, exists ExistsFunc) (string, error) {
	candidate := number
	for counter := 1; counter <= maxDedupAttempts; counter++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking invoice number %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", number, counter)
	}
	return "", fmt.Errorf("no unique invoice number found for %q after %d attempts", number, maxDedupAttempts)
}
