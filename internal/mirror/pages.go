package mirror

import (
	"context"
	"fmt"
	"iter"
)

// pageFunc fetches the page after token and returns it with the next token.
type pageFunc[P any] func(ctx context.Context, token string) (P, string, error)

// pages yields every page of a listing, in order, starting from an empty token.
// The sequence ends when a page carries no continuation token, or after the
// first error. Each call to the returned sequence restarts the listing.
func pages[P any](ctx context.Context, fetch pageFunc[P]) iter.Seq2[P, error] {
	return func(yield func(P, error) bool) {
		seen := make(map[string]struct{})
		token := ""
		for {
			var zero P
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			page, next, err := fetch(ctx, token)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if next == "" {
				return
			}
			if _, dup := seen[next]; dup {
				yield(zero, fmt.Errorf("continuation token repeated: %q", next))
				return
			}
			seen[next] = struct{}{}
			token = next
		}
	}
}
