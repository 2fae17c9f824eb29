package audit

import (
	"go.uber.org/zap"

	"github.com/temirov/belay/internal/slackapi"
	"github.com/temirov/belay/internal/teamconfig"
	"github.com/temirov/belay/internal/whitelist"
)

const (
	// SystemUserID identifies the Slackbot pseudo-user.
	SystemUserID = "USLACKBOT"

	twoFactorIssueKeyConstant        = "2fa"
	smsIssueKeyConstant              = "sms"
	missingTwoFactorViolation        = "User does not have 2FA enabled"
	smsTwoFactorViolation            = "User is using less-secure SMS-based 2FA"
	usersAuditedMessageConstant      = "users audited"
	logFieldMemberCountConstant      = "member_count"
	logFieldAuditedUserCountConstant = "audited_count"
)

// UserAuditor evaluates workspace members against the authentication policy.
type UserAuditor struct {
	logger *zap.Logger
}

// NewUserAuditor constructs a UserAuditor.
func NewUserAuditor(logger *zap.Logger) *UserAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserAuditor{logger: logger}
}

// Audit returns the members violating the policy in listing order. Bots, deleted accounts,
// and Slackbot are never audited.
func (auditor *UserAuditor) Audit(members []slackapi.User, configuration teamconfig.Configuration) []UserRecord {
	var problems []UserRecord
	auditedCount := 0

	for _, member := range members {
		record := newUserRecord(member)
		if !Auditable(record) {
			continue
		}
		auditedCount++

		suppressed := whitelist.Resolve(record.ID, configuration.UserWhitelist, configuration.UserIssueWhitelist)
		record.Violations = EvaluateUserRules(record, suppressed)
		if len(record.Violations) == 0 {
			continue
		}
		problems = append(problems, record)
	}

	auditor.logger.Info(
		usersAuditedMessageConstant,
		zap.Int(logFieldMemberCountConstant, len(members)),
		zap.Int(logFieldAuditedUserCountConstant, auditedCount),
		zap.Int(logFieldProblemCountConstant, len(problems)),
	)

	return problems
}

// Auditable reports whether the policy applies to record.
func Auditable(record UserRecord) bool {
	return record.ID != SystemUserID && !record.Deleted && !record.IsBot
}

// EvaluateUserRules accumulates every violated, unsuppressed authentication rule.
func EvaluateUserRules(record UserRecord, suppressed whitelist.IssueSet) []string {
	var violations []string
	if !record.Has2FA && !suppressed.Contains(twoFactorIssueKeyConstant) {
		violations = append(violations, missingTwoFactorViolation)
	}
	if record.Has2FA && record.TwoFactorMethod == TwoFactorMethodSMS && !suppressed.Contains(smsIssueKeyConstant) {
		violations = append(violations, smsTwoFactorViolation)
	}
	return violations
}

func newUserRecord(member slackapi.User) UserRecord {
	return UserRecord{
		ID:              member.ID,
		TeamID:          member.TeamID,
		Name:            member.Name,
		RealName:        member.RealName,
		Deleted:         member.Deleted,
		IsBot:           member.IsBot,
		IsOwner:         member.IsOwner,
		IsPrimaryOwner:  member.IsPrimaryOwner,
		IsAdmin:         member.IsAdmin,
		Has2FA:          member.Has2FA,
		TwoFactorMethod: twoFactorMethod(member),
		Updated:         member.Updated,
	}
}

func twoFactorMethod(member slackapi.User) TwoFactorMethod {
	if !member.Has2FA {
		return TwoFactorMethodNone
	}
	switch TwoFactorMethod(member.TwoFactorType) {
	case TwoFactorMethodApp:
		return TwoFactorMethodApp
	case TwoFactorMethodSMS:
		return TwoFactorMethodSMS
	default:
		return TwoFactorMethodOther
	}
}
