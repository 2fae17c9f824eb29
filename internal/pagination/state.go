package pagination

// StateKind distinguishes the pagination protocols.
type StateKind int

// Supported pagination protocols.
const (
	StateKindNumbered StateKind = iota
	StateKindCursor
)

// PageState is either a numbered page position or a cursor token.
type PageState struct {
	kind   StateKind
	page   int
	pages  int
	cursor string
}

// FirstNumberedPage requests page 1 of a numbered listing.
func FirstNumberedPage() PageState {
	return PageState{kind: StateKindNumbered, page: 1}
}

// FirstCursorPage requests the first page of a cursor listing.
func FirstCursorPage() PageState {
	return PageState{kind: StateKindCursor}
}

// NumberedPage records the position reported by a numbered response.
func NumberedPage(page int, pages int) PageState {
	return PageState{kind: StateKindNumbered, page: page, pages: pages}
}

// CursorPage records the continuation token reported by a cursor response.
func CursorPage(nextCursor string) PageState {
	return PageState{kind: StateKindCursor, cursor: nextCursor}
}

// Page is the 1-based page number of a numbered state.
func (state PageState) Page() int {
	return state.page
}

// Cursor is the token of a cursor state; empty requests the first page.
func (state PageState) Cursor() string {
	return state.cursor
}

// HasNext reports whether another page remains after this response state.
func (state PageState) HasNext() bool {
	switch state.kind {
	case StateKindCursor:
		return len(state.cursor) > 0
	default:
		return state.page > 0 && state.page < state.pages
	}
}

// Next returns the request state for the following page.
func (state PageState) Next() PageState {
	switch state.kind {
	case StateKindCursor:
		return PageState{kind: StateKindCursor, cursor: state.cursor}
	default:
		return PageState{kind: StateKindNumbered, page: state.page + 1, pages: state.pages}
	}
}
