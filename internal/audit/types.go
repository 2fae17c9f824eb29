package audit

import (
	"sort"
	"strconv"
	"time"

	"github.com/temirov/belay/internal/report"
)

// IntegrationStatus classifies the latest change recorded for an integration.
type IntegrationStatus string

// Supported integration statuses.
const (
	IntegrationStatusActive   IntegrationStatus = "active"
	IntegrationStatusRemoved  IntegrationStatus = "removed"
	IntegrationStatusDisabled IntegrationStatus = "disabled"
	IntegrationStatusUnknown  IntegrationStatus = "unknown"
)

// TwoFactorMethod describes how a member completes two-factor authentication.
type TwoFactorMethod string

// Supported two-factor methods.
const (
	TwoFactorMethodNone  TwoFactorMethod = "none"
	TwoFactorMethodApp   TwoFactorMethod = "app"
	TwoFactorMethodSMS   TwoFactorMethod = "sms"
	TwoFactorMethodOther TwoFactorMethod = "other"
)

// Report field keys.
const (
	FieldID             = "id"
	FieldName           = "name"
	FieldStatus         = "status"
	FieldScopes         = "scopes"
	FieldUserID         = "user_id"
	FieldUserName       = "user_name"
	FieldDate           = "date"
	FieldReason         = "reason"
	FieldChannel        = "channel"
	FieldRealName       = "real_name"
	FieldTeamID         = "team_id"
	FieldHas2FA         = "has_2fa"
	FieldTwoFactorType  = "two_factor_type"
	FieldUpdated        = "updated"
	FieldIsOwner        = "is_owner"
	FieldIsPrimaryOwner = "is_primary_owner"
	FieldIsAdmin        = "is_admin"
)

// IntegrationRecord is the state of one integration derived from its most recent log entry.
type IntegrationRecord struct {
	ID         string
	Name       string
	Status     IntegrationStatus
	Scopes     map[string]struct{}
	UserID     string
	UserName   string
	Date       string
	Reason     string
	Channel    string
	Violations []string
}

// HasScope reports whether the integration was granted scope.
func (record IntegrationRecord) HasScope(scope string) bool {
	_, granted := record.Scopes[scope]
	return granted
}

// SortedScopes lists the granted scopes alphabetically.
func (record IntegrationRecord) SortedScopes() []string {
	scopes := make([]string, 0, len(record.Scopes))
	for scope := range record.Scopes {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// Problem converts the record into a report problem.
func (record IntegrationRecord) Problem() report.Problem {
	fields := map[string]any{
		FieldID:       record.ID,
		FieldName:     record.Name,
		FieldStatus:   string(record.Status),
		FieldScopes:   record.SortedScopes(),
		FieldUserID:   record.UserID,
		FieldUserName: record.UserName,
		FieldDate:     formatLogDate(record.Date),
	}
	if len(record.Reason) > 0 {
		fields[FieldReason] = record.Reason
	}
	if len(record.Channel) > 0 {
		fields[FieldChannel] = record.Channel
	}
	return report.Problem{Fields: fields, Violations: append([]string(nil), record.Violations...)}
}

// UserRecord is one audited workspace member.
type UserRecord struct {
	ID              string
	TeamID          string
	Name            string
	RealName        string
	Deleted         bool
	IsBot           bool
	IsOwner         bool
	IsPrimaryOwner  bool
	IsAdmin         bool
	Has2FA          bool
	TwoFactorMethod TwoFactorMethod
	Updated         int64
	Violations      []string
}

// Problem converts the record into a report problem.
func (record UserRecord) Problem() report.Problem {
	return report.Problem{
		Fields: map[string]any{
			FieldRealName:       record.RealName,
			FieldID:             record.ID,
			FieldTeamID:         record.TeamID,
			FieldName:           record.Name,
			FieldHas2FA:         record.Has2FA,
			FieldTwoFactorType:  string(record.TwoFactorMethod),
			FieldUpdated:        record.Updated,
			FieldIsOwner:        record.IsOwner,
			FieldIsPrimaryOwner: record.IsPrimaryOwner,
			FieldIsAdmin:        record.IsAdmin,
		},
		Violations: append([]string(nil), record.Violations...),
	}
}

// formatLogDate renders a Unix timestamp as RFC 3339 in UTC; other values are kept verbatim.
func formatLogDate(rawDate string) string {
	seconds, parseError := strconv.ParseInt(rawDate, 10, 64)
	if parseError != nil {
		return rawDate
	}
	return time.Unix(seconds, 0).UTC().Format(time.RFC3339)
}
