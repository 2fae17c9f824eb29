package audit

import (
	"context"

	"github.com/temirov/belay/internal/pagination"
	"github.com/temirov/belay/internal/slackapi"
)

// CollectIntegrationLogs gathers every integration log entry, following numbered pages.
func CollectIntegrationLogs(executionContext context.Context, source IntegrationLogSource) ([]slackapi.IntegrationLogEntry, error) {
	return pagination.Collect(executionContext, pagination.FirstNumberedPage(), func(pageContext context.Context, request pagination.PageState) ([]slackapi.IntegrationLogEntry, pagination.PageState, error) {
		page, pageError := source.IntegrationLogs(pageContext, request.Page())
		if pageError != nil {
			return nil, pagination.PageState{}, pageError
		}
		return page.Logs, pagination.NumberedPage(page.Paging.Page, page.Paging.Pages), nil
	})
}

// CollectMembers gathers every workspace member, following cursors.
func CollectMembers(executionContext context.Context, source MemberSource) ([]slackapi.User, error) {
	return pagination.Collect(executionContext, pagination.FirstCursorPage(), func(pageContext context.Context, request pagination.PageState) ([]slackapi.User, pagination.PageState, error) {
		page, pageError := source.Users(pageContext, request.Cursor())
		if pageError != nil {
			return nil, pagination.PageState{}, pageError
		}
		return page.Members, pagination.CursorPage(page.NextCursor), nil
	})
}
