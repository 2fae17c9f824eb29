package audit_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/belay/internal/audit"
	"github.com/temirov/belay/internal/slackapi"
	"github.com/temirov/belay/internal/teamconfig"
)

const (
	integrationSubtestTemplateConstant = "%d_%s"
	firstAppIDConstant                 = "A0FIRST"
	secondAppIDConstant                = "A0SECOND"
	serviceIDConstant                  = "1234567"
	logDateConstant                    = "1500000000"
	legacyViolationConstant            = "Legacy integration with full access to act as the user"
	adminViolationConstant             = "Admin permission"
	searchViolationConstant            = "Can search team files and messages"
	filesReadViolationConstant         = "Can read uploaded files"
)

func TestIntegrationAuditorAudit(testInstance *testing.T) {
	testCases := []struct {
		name               string
		entries            []slackapi.IntegrationLogEntry
		configuration      teamconfig.Configuration
		expectedIDs        []string
		expectedViolations [][]string
	}{
		{
			name:               "legacy_full_access_scope_is_flagged",
			entries:            []slackapi.IntegrationLogEntry{appLogEntry(firstAppIDConstant, "Legacy", "added", "MAX", logDateConstant)},
			expectedIDs:        []string{firstAppIDConstant},
			expectedViolations: [][]string{{legacyViolationConstant}},
		},
		{
			name:          "legacy_key_suppresses_full_access_scope",
			entries:       []slackapi.IntegrationLogEntry{appLogEntry(firstAppIDConstant, "Legacy", "added", "MAX", logDateConstant)},
			configuration: teamconfig.Configuration{IntegrationIssueWhitelist: []string{"legacy"}},
		},
		{
			name: "violations_follow_rule_order",
			entries: []slackapi.IntegrationLogEntry{
				appLogEntry(firstAppIDConstant, "Search", "added", "search:read,identify,admin,files:read", logDateConstant),
			},
			expectedIDs:        []string{firstAppIDConstant},
			expectedViolations: [][]string{{adminViolationConstant, filesReadViolationConstant, searchViolationConstant}},
		},
		{
			name: "most_recent_entry_determines_state",
			entries: []slackapi.IntegrationLogEntry{
				appLogEntry(firstAppIDConstant, "Reader", "removed", "admin", logDateConstant),
				appLogEntry(firstAppIDConstant, "Reader", "added", "admin", logDateConstant),
			},
		},
		{
			name: "later_removal_does_not_hide_current_grant",
			entries: []slackapi.IntegrationLogEntry{
				appLogEntry(firstAppIDConstant, "Reader", "expanded", "admin", logDateConstant),
				appLogEntry(firstAppIDConstant, "Reader", "removed", "", logDateConstant),
			},
			expectedIDs:        []string{firstAppIDConstant},
			expectedViolations: [][]string{{adminViolationConstant}},
		},
		{
			name: "global_issue_whitelist_suppresses_single_rule",
			entries: []slackapi.IntegrationLogEntry{
				appLogEntry(firstAppIDConstant, "Search", "added", "admin,search:read", logDateConstant),
			},
			configuration:      teamconfig.Configuration{IntegrationIssueWhitelist: []string{"admin"}},
			expectedIDs:        []string{firstAppIDConstant},
			expectedViolations: [][]string{{searchViolationConstant}},
		},
		{
			name: "per_integration_whitelist_applies_only_to_its_integration",
			entries: []slackapi.IntegrationLogEntry{
				appLogEntry(firstAppIDConstant, "First", "added", "admin", logDateConstant),
				appLogEntry(secondAppIDConstant, "Second", "added", "admin", logDateConstant),
			},
			configuration: teamconfig.Configuration{
				IntegrationWhitelist: map[string][]string{firstAppIDConstant: {"admin"}},
			},
			expectedIDs:        []string{secondAppIDConstant},
			expectedViolations: [][]string{{adminViolationConstant}},
		},
		{
			name: "service_identifier_used_without_app_identifier",
			entries: []slackapi.IntegrationLogEntry{
				{
					ChangeType:  "enabled",
					Scope:       stringPointer("admin"),
					ServiceID:   flexiblePointer(serviceIDConstant),
					ServiceType: stringPointer("RSS"),
					UserName:    "installer",
					Date:        slackapi.FlexibleString(logDateConstant),
				},
			},
			expectedIDs:        []string{serviceIDConstant},
			expectedViolations: [][]string{{adminViolationConstant}},
		},
		{
			name: "entries_without_identifier_are_skipped",
			entries: []slackapi.IntegrationLogEntry{
				{ChangeType: "removed", UserName: "installer", Date: slackapi.FlexibleString(logDateConstant)},
				{ChangeType: "added", Scope: stringPointer("admin"), UserName: "installer", Date: slackapi.FlexibleString(logDateConstant)},
			},
		},
		{
			name: "unknown_change_type_is_still_evaluated",
			entries: []slackapi.IntegrationLogEntry{
				appLogEntry(firstAppIDConstant, "Mystery", "transferred", "admin", logDateConstant),
			},
			expectedIDs:        []string{firstAppIDConstant},
			expectedViolations: [][]string{{adminViolationConstant}},
		},
		{
			name: "entries_without_scope_have_no_violations",
			entries: []slackapi.IntegrationLogEntry{
				{ChangeType: "added", AppID: flexiblePointer(firstAppIDConstant), UserName: "installer", Date: slackapi.FlexibleString(logDateConstant)},
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(integrationSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			problems := audit.NewIntegrationAuditor(nil).Audit(testCase.entries, testCase.configuration)

			require.Len(testInstance, problems, len(testCase.expectedIDs))
			for problemIndex, problem := range problems {
				require.Equal(testInstance, testCase.expectedIDs[problemIndex], problem.ID)
				require.Equal(testInstance, testCase.expectedViolations[problemIndex], problem.Violations)
			}
		})
	}
}

func TestIntegrationAuditorDeriveClassifiesStatus(testInstance *testing.T) {
	testCases := []struct {
		name           string
		changeType     string
		expectedStatus audit.IntegrationStatus
	}{
		{name: "added", changeType: "added", expectedStatus: audit.IntegrationStatusActive},
		{name: "enabled", changeType: "enabled", expectedStatus: audit.IntegrationStatusActive},
		{name: "updated", changeType: "updated", expectedStatus: audit.IntegrationStatusActive},
		{name: "expanded", changeType: "expanded", expectedStatus: audit.IntegrationStatusActive},
		{name: "reissued", changeType: "reissued", expectedStatus: audit.IntegrationStatusActive},
		{name: "removed", changeType: "removed", expectedStatus: audit.IntegrationStatusRemoved},
		{name: "disabled", changeType: "disabled", expectedStatus: audit.IntegrationStatusDisabled},
		{name: "unrecognized", changeType: "archived", expectedStatus: audit.IntegrationStatusUnknown},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(integrationSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			records := audit.NewIntegrationAuditor(nil).Derive([]slackapi.IntegrationLogEntry{
				appLogEntry(firstAppIDConstant, "Reader", testCase.changeType, "identify", logDateConstant),
			})

			require.Len(testInstance, records, 1)
			require.Equal(testInstance, testCase.expectedStatus, records[0].Status)
		})
	}
}

func TestIntegrationAuditorDeriveKeepsFirstEntryForDuplicateID(testInstance *testing.T) {
	laterEntry := appLogEntry(firstAppIDConstant, "Renamed", "removed", "files:read", "1600000000")
	laterEntry.UserID = flexiblePointer("U0OTHER")
	laterEntry.UserName = "other"

	records := audit.NewIntegrationAuditor(nil).Derive([]slackapi.IntegrationLogEntry{
		appLogEntry(firstAppIDConstant, "First", "added", "admin", logDateConstant),
		laterEntry,
	})

	require.Len(testInstance, records, 1)
	require.Equal(testInstance, firstAppIDConstant, records[0].ID)
	require.Equal(testInstance, "First", records[0].Name)
	require.Equal(testInstance, logDateConstant, records[0].Date)
	require.Equal(testInstance, "U0INSTALLER", records[0].UserID)
	require.Equal(testInstance, "installer", records[0].UserName)
	require.Equal(testInstance, audit.IntegrationStatusActive, records[0].Status)
	require.True(testInstance, records[0].HasScope("admin"))
	require.False(testInstance, records[0].HasScope("files:read"))
}

func TestIntegrationRecordProblemFields(testInstance *testing.T) {
	entry := appLogEntry(firstAppIDConstant, "Reader", "added", "search:read,admin", logDateConstant)
	entry.Reason = stringPointer("scope expansion")
	entry.Channel = stringPointer("C0GENERAL")

	records := audit.NewIntegrationAuditor(nil).Derive([]slackapi.IntegrationLogEntry{entry})
	require.Len(testInstance, records, 1)

	problem := records[0].Problem()
	require.Equal(testInstance, "Reader", problem.FieldText(audit.FieldName))
	require.Equal(testInstance, "active", problem.FieldText(audit.FieldStatus))
	require.Equal(testInstance, "admin, search:read", problem.FieldText(audit.FieldScopes))
	require.Equal(testInstance, "U0INSTALLER", problem.FieldText(audit.FieldUserID))
	require.Equal(testInstance, "2017-07-14T02:40:00Z", problem.FieldText(audit.FieldDate))
	require.Equal(testInstance, "scope expansion", problem.FieldText(audit.FieldReason))
	require.Equal(testInstance, "C0GENERAL", problem.FieldText(audit.FieldChannel))
}
