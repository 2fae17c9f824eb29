package pagination

import (
	"context"
	"errors"
)

const (
	stalledPaginationMessageConstant = "pagination did not advance"
)

// ErrStalled indicates a listing returned the same continuation it was asked for.
var ErrStalled = errors.New(stalledPaginationMessageConstant)

// PageFetcher retrieves the page described by request and reports the state of the response.
type PageFetcher[Item any] func(executionContext context.Context, request PageState) ([]Item, PageState, error)

// Collect calls fetch from initial until no page remains and concatenates the items in order.
// Any failure discards everything gathered so far.
func Collect[Item any](executionContext context.Context, initial PageState, fetch PageFetcher[Item]) ([]Item, error) {
	var collected []Item
	request := initial

	for {
		items, responseState, fetchError := fetch(executionContext, request)
		if fetchError != nil {
			return nil, fetchError
		}
		collected = append(collected, items...)

		if !responseState.HasNext() {
			return collected, nil
		}

		nextRequest := responseState.Next()
		if nextRequest == request {
			return nil, ErrStalled
		}
		request = nextRequest
	}
}
