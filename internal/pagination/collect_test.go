package pagination_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/belay/internal/pagination"
)

const (
	testSubtestNameTemplateConstant = "%d_%s"
)

var errTestPageFailure = errors.New("page failure")

func numberedListing(pages [][]string, failOnPage int) (pagination.PageFetcher[string], *[]int) {
	requestedPages := []int{}
	return func(executionContext context.Context, request pagination.PageState) ([]string, pagination.PageState, error) {
		requestedPages = append(requestedPages, request.Page())
		if request.Page() == failOnPage {
			return nil, pagination.PageState{}, errTestPageFailure
		}
		return pages[request.Page()-1], pagination.NumberedPage(request.Page(), len(pages)), nil
	}, &requestedPages
}

func cursorListing(pages map[string][]string, nextCursors map[string]string) (pagination.PageFetcher[string], *[]string) {
	requestedCursors := []string{}
	return func(executionContext context.Context, request pagination.PageState) ([]string, pagination.PageState, error) {
		requestedCursors = append(requestedCursors, request.Cursor())
		return pages[request.Cursor()], pagination.CursorPage(nextCursors[request.Cursor()]), nil
	}, &requestedCursors
}

func TestCollectNumberedPages(testInstance *testing.T) {
	testCases := []struct {
		name           string
		pages          [][]string
		failOnPage     int
		expectedItems  []string
		expectedPages  []int
		expectedFailed bool
	}{
		{
			name:          "single_page",
			pages:         [][]string{{"a", "b"}},
			expectedItems: []string{"a", "b"},
			expectedPages: []int{1},
		},
		{
			name:          "three_pages_in_order",
			pages:         [][]string{{"a"}, {"b", "c"}, {"d"}},
			expectedItems: []string{"a", "b", "c", "d"},
			expectedPages: []int{1, 2, 3},
		},
		{
			name:           "failure_discards_accumulated_items",
			pages:          [][]string{{"a"}, {"b"}, {"c"}},
			failOnPage:     2,
			expectedPages:  []int{1, 2},
			expectedFailed: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			fetch, requestedPages := numberedListing(testCase.pages, testCase.failOnPage)
			items, collectError := pagination.Collect(context.Background(), pagination.FirstNumberedPage(), fetch)
			require.Equal(testInstance, testCase.expectedPages, *requestedPages)
			if testCase.expectedFailed {
				require.ErrorIs(testInstance, collectError, errTestPageFailure)
				require.Nil(testInstance, items)
				return
			}
			require.NoError(testInstance, collectError)
			require.Equal(testInstance, testCase.expectedItems, items)
		})
	}
}

func TestCollectCursorPages(testInstance *testing.T) {
	fetch, requestedCursors := cursorListing(
		map[string][]string{"": {"u1", "u2"}, "c1": {"u3"}, "c2": {}},
		map[string]string{"": "c1", "c1": "c2"},
	)

	items, collectError := pagination.Collect(context.Background(), pagination.FirstCursorPage(), fetch)
	require.NoError(testInstance, collectError)
	require.Equal(testInstance, []string{"u1", "u2", "u3"}, items)
	require.Equal(testInstance, []string{"", "c1", "c2"}, *requestedCursors)
}

func TestCollectDetectsStalledCursor(testInstance *testing.T) {
	fetch, _ := cursorListing(
		map[string][]string{"": {"u1"}, "loop": {"u2"}},
		map[string]string{"": "loop", "loop": "loop"},
	)

	items, collectError := pagination.Collect(context.Background(), pagination.FirstCursorPage(), fetch)
	require.ErrorIs(testInstance, collectError, pagination.ErrStalled)
	require.Nil(testInstance, items)
}

func TestPageStateHasNext(testInstance *testing.T) {
	testCases := []struct {
		name     string
		state    pagination.PageState
		expected bool
	}{
		{name: "numbered_more_pages", state: pagination.NumberedPage(1, 2), expected: true},
		{name: "numbered_last_page", state: pagination.NumberedPage(2, 2), expected: false},
		{name: "numbered_missing_paging", state: pagination.NumberedPage(0, 0), expected: false},
		{name: "cursor_present", state: pagination.CursorPage("next"), expected: true},
		{name: "cursor_exhausted", state: pagination.CursorPage(""), expected: false},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, testCase.state.HasNext())
		})
	}
}
