package audit

import (
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/belay/internal/slackapi"
	"github.com/temirov/belay/internal/teamconfig"
	"github.com/temirov/belay/internal/whitelist"
)

const (
	scopeSeparatorConstant = ","

	changeTypeAddedConstant    = "added"
	changeTypeEnabledConstant  = "enabled"
	changeTypeUpdatedConstant  = "updated"
	changeTypeExpandedConstant = "expanded"
	changeTypeReissuedConstant = "reissued"
	changeTypeRemovedConstant  = "removed"
	changeTypeDisabledConstant = "disabled"

	unknownChangeTypeMessageConstant    = "unknown integration change type"
	unrecognizedLogEntryMessageConstant = "skipping unrecognized integration log entry"
	anonymousRemovalMessageConstant     = "skipping removal entry without integration or requester"
	integrationsAuditedMessageConstant  = "integrations audited"
	logFieldChangeTypeConstant          = "change_type"
	logFieldIntegrationIDConstant       = "integration_id"
	logFieldUserNameConstant            = "user_name"
	logFieldDateConstant                = "date"
	logFieldEntryCountConstant          = "entry_count"
	logFieldIntegrationCountConstant    = "integration_count"
	logFieldProblemCountConstant        = "problem_count"
)

// IntegrationRule flags integrations granted Scope unless IssueKey is whitelisted.
type IntegrationRule struct {
	Scope       string
	IssueKey    string
	Description string
}

// IntegrationRules is the fixed scope policy, evaluated in order. The full-access legacy
// scope MAX is suppressed through the "legacy" issue key.
var IntegrationRules = []IntegrationRule{
	{Scope: "MAX", IssueKey: "legacy", Description: "Legacy integration with full access to act as the user"},
	{Scope: "admin", IssueKey: "admin", Description: "Admin permission"},
	{Scope: "chat:write:user", IssueKey: "chat:write:user", Description: "Can chat as user"},
	{Scope: "channels:history", IssueKey: "channels:history", Description: "Can access channel history for public channels"},
	{Scope: "files:read", IssueKey: "files:read", Description: "Can read uploaded files"},
	{Scope: "files:write:user", IssueKey: "files:write:user", Description: "Can modify/delete existing files"},
	{Scope: "groups:history", IssueKey: "groups:history", Description: "Can access channel history for private channels"},
	{Scope: "im:history", IssueKey: "im:history", Description: "Can access channel history for private IMs"},
	{Scope: "mpim:history", IssueKey: "mpim:history", Description: "Can access channel history for multi-party IMs"},
	{Scope: "pins:read", IssueKey: "pins:read", Description: "Can access channel pinned messages/files"},
	{Scope: "search:read", IssueKey: "search:read", Description: "Can search team files and messages"},
}

var changeTypeStatuses = map[string]IntegrationStatus{
	changeTypeAddedConstant:    IntegrationStatusActive,
	changeTypeEnabledConstant:  IntegrationStatusActive,
	changeTypeUpdatedConstant:  IntegrationStatusActive,
	changeTypeExpandedConstant: IntegrationStatusActive,
	changeTypeReissuedConstant: IntegrationStatusActive,
	changeTypeRemovedConstant:  IntegrationStatusRemoved,
	changeTypeDisabledConstant: IntegrationStatusDisabled,
}

// IntegrationAuditor evaluates integration log entries against the scope policy.
type IntegrationAuditor struct {
	logger *zap.Logger
}

// NewIntegrationAuditor constructs an IntegrationAuditor.
func NewIntegrationAuditor(logger *zap.Logger) *IntegrationAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrationAuditor{logger: logger}
}

// Derive folds log entries into one record per integration. The first entry seen for an
// identifier determines the record; later entries for it are ignored.
func (auditor *IntegrationAuditor) Derive(entries []slackapi.IntegrationLogEntry) []IntegrationRecord {
	seen := make(map[string]struct{}, len(entries))
	records := make([]IntegrationRecord, 0, len(entries))

	for _, entry := range entries {
		identifier, name, identified := integrationIdentity(entry)
		if !identified {
			auditor.logUnidentifiedEntry(entry)
			continue
		}
		if _, duplicate := seen[identifier]; duplicate {
			continue
		}
		seen[identifier] = struct{}{}

		records = append(records, IntegrationRecord{
			ID:       identifier,
			Name:     name,
			Status:   auditor.classifyStatus(identifier, entry.ChangeType),
			Scopes:   parseScopes(entry.Scope),
			UserID:   optionalFlexibleString(entry.UserID),
			UserName: entry.UserName,
			Date:     entry.Date.String(),
			Reason:   optionalString(entry.Reason),
			Channel:  optionalString(entry.Channel),
		})
	}

	return records
}

// Audit returns the integrations violating the policy in log order. Removed integrations are
// never evaluated.
func (auditor *IntegrationAuditor) Audit(entries []slackapi.IntegrationLogEntry, configuration teamconfig.Configuration) []IntegrationRecord {
	records := auditor.Derive(entries)

	var problems []IntegrationRecord
	for _, record := range records {
		if record.Status == IntegrationStatusRemoved {
			continue
		}
		suppressed := whitelist.Resolve(record.ID, configuration.IntegrationWhitelist, configuration.IntegrationIssueWhitelist)
		record.Violations = EvaluateIntegrationRules(record, suppressed)
		if len(record.Violations) == 0 {
			continue
		}
		problems = append(problems, record)
	}

	auditor.logger.Info(
		integrationsAuditedMessageConstant,
		zap.Int(logFieldEntryCountConstant, len(entries)),
		zap.Int(logFieldIntegrationCountConstant, len(records)),
		zap.Int(logFieldProblemCountConstant, len(problems)),
	)

	return problems
}

// EvaluateIntegrationRules lists the descriptions of every rule whose scope the record holds
// and whose issue key is not suppressed.
func EvaluateIntegrationRules(record IntegrationRecord, suppressed whitelist.IssueSet) []string {
	var violations []string
	for _, rule := range IntegrationRules {
		if !record.HasScope(rule.Scope) || suppressed.Contains(rule.IssueKey) {
			continue
		}
		violations = append(violations, rule.Description)
	}
	return violations
}

func (auditor *IntegrationAuditor) classifyStatus(identifier string, changeType string) IntegrationStatus {
	if status, known := changeTypeStatuses[changeType]; known {
		return status
	}
	auditor.logger.Warn(
		unknownChangeTypeMessageConstant,
		zap.String(logFieldIntegrationIDConstant, identifier),
		zap.String(logFieldChangeTypeConstant, changeType),
	)
	return IntegrationStatusUnknown
}

// logUnidentifiedEntry reports entries that name neither an app nor a service. Removals without
// a requester are a known benign shape.
func (auditor *IntegrationAuditor) logUnidentifiedEntry(entry slackapi.IntegrationLogEntry) {
	fields := []zap.Field{
		zap.String(logFieldChangeTypeConstant, entry.ChangeType),
		zap.String(logFieldUserNameConstant, entry.UserName),
		zap.String(logFieldDateConstant, entry.Date.String()),
	}
	if entry.ChangeType == changeTypeRemovedConstant && (entry.UserID == nil || entry.UserID.IsZero()) {
		auditor.logger.Debug(anonymousRemovalMessageConstant, fields...)
		return
	}
	auditor.logger.Warn(unrecognizedLogEntryMessageConstant, fields...)
}

func integrationIdentity(entry slackapi.IntegrationLogEntry) (string, string, bool) {
	if entry.AppID != nil && len(entry.AppID.String()) > 0 {
		return entry.AppID.String(), optionalString(entry.AppType), true
	}
	if entry.ServiceID != nil && len(entry.ServiceID.String()) > 0 {
		return entry.ServiceID.String(), optionalString(entry.ServiceType), true
	}
	return "", "", false
}

func parseScopes(rawScope *string) map[string]struct{} {
	scopes := map[string]struct{}{}
	if rawScope == nil {
		return scopes
	}
	for _, scope := range strings.Split(*rawScope, scopeSeparatorConstant) {
		trimmedScope := strings.TrimSpace(scope)
		if len(trimmedScope) == 0 {
			continue
		}
		scopes[trimmedScope] = struct{}{}
	}
	return scopes
}

func optionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optionalFlexibleString(value *slackapi.FlexibleString) string {
	if value == nil {
		return ""
	}
	return value.String()
}
