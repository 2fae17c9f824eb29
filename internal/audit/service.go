package audit

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/belay/internal/credentials"
	"github.com/temirov/belay/internal/report"
	"github.com/temirov/belay/internal/teamconfig"
)

// Report headings.
const (
	IntegrationReportHeading = "Integration Issues"
	UserReportHeading        = "User Issues"
)

const (
	missingAPITokenMessageConstant         = "api token not configured"
	clientCreationErrorTemplateConstant    = "unable to create %s client: %w"
	integrationLogsErrorTemplateConstant   = "unable to list integration logs: %w"
	membersErrorTemplateConstant           = "unable to list users: %w"
	integrationAuditSkippedMessageConstant = "integration audit skipped"
	auditCompletedMessageConstant          = "audit completed"
	logFieldTeamConstant                   = "team"
	logFieldIntegrationProblemsConstant    = "integration_problems"
	logFieldUserProblemsConstant           = "user_problems"
)

// Service runs the audit pipeline: credential validation, integration audit, user audit, and
// report dispatch, strictly in that order. Any failure aborts the run.
type Service struct {
	clientFactory      ClientFactory
	validator          *credentials.Validator
	integrationAuditor *IntegrationAuditor
	userAuditor        *UserAuditor
	outputWriter       io.Writer
	logger             *zap.Logger
}

type reportSection struct {
	heading string
	text    string
}

// NewService constructs a Service using the provided dependencies.
func NewService(clientFactory ClientFactory, outputWriter io.Writer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		clientFactory:      ResolveClientFactory(clientFactory),
		validator:          credentials.NewValidator(logger),
		integrationAuditor: NewIntegrationAuditor(logger),
		userAuditor:        NewUserAuditor(logger),
		outputWriter:       outputWriter,
		logger:             logger,
	}
}

// Run audits the workspace described by configuration and dispatches the reports.
func (service *Service) Run(executionContext context.Context, configuration teamconfig.Configuration) error {
	if len(configuration.APIToken) == 0 {
		return teamconfig.ConfigurationError{Message: missingAPITokenMessageConstant}
	}

	apiClient, apiClientError := service.clientFactory(configuration.APIToken)
	if apiClientError != nil {
		return fmt.Errorf(clientCreationErrorTemplateConstant, credentials.NameAPI, apiClientError)
	}

	identity, validationError := service.validator.Validate(executionContext, credentials.NamedCredential{Name: credentials.NameAPI}, apiClient)
	if validationError != nil {
		return validationError
	}

	notificationClient, notificationError := service.resolveNotificationClient(executionContext, configuration, apiClient)
	if notificationError != nil {
		return notificationError
	}

	sections := make([]reportSection, 0, 2)
	integrationProblemCount := 0

	if configuration.SkipIntegrations {
		service.logger.Info(integrationAuditSkippedMessageConstant)
	} else {
		entries, entriesError := CollectIntegrationLogs(executionContext, apiClient)
		if entriesError != nil {
			return fmt.Errorf(integrationLogsErrorTemplateConstant, entriesError)
		}
		integrationProblems := service.integrationAuditor.Audit(entries, configuration)
		integrationProblemCount = len(integrationProblems)
		sections = append(sections, reportSection{
			heading: IntegrationReportHeading,
			text:    report.Format(integrationReportProblems(integrationProblems), FieldName, FieldDate),
		})
	}

	members, membersError := CollectMembers(executionContext, apiClient)
	if membersError != nil {
		return fmt.Errorf(membersErrorTemplateConstant, membersError)
	}
	userProblems := service.userAuditor.Audit(members, configuration)
	sections = append(sections, reportSection{
		heading: UserReportHeading,
		text:    report.Format(userReportProblems(userProblems), FieldRealName, FieldName),
	})

	dispatcher := report.NewDispatcher(notificationClient, configuration.OutputChannel, service.outputWriter, service.logger)
	for _, section := range sections {
		if dispatchError := dispatcher.Dispatch(executionContext, section.heading, section.text); dispatchError != nil {
			return dispatchError
		}
	}

	service.logger.Info(
		auditCompletedMessageConstant,
		zap.String(logFieldTeamConstant, identity.Team),
		zap.Int(logFieldIntegrationProblemsConstant, integrationProblemCount),
		zap.Int(logFieldUserProblemsConstant, len(userProblems)),
	)

	return nil
}

// resolveNotificationClient returns the client used for delivery. A configured bot token must
// belong to a bot; otherwise the API client delivers.
func (service *Service) resolveNotificationClient(executionContext context.Context, configuration teamconfig.Configuration, apiClient SlackClient) (SlackClient, error) {
	if len(configuration.OutputChannel) == 0 || len(configuration.BotToken) == 0 {
		return apiClient, nil
	}

	botClient, botClientError := service.clientFactory(configuration.NotificationToken())
	if botClientError != nil {
		return nil, fmt.Errorf(clientCreationErrorTemplateConstant, credentials.NameNotification, botClientError)
	}

	notificationCredential := credentials.NamedCredential{Name: credentials.NameNotification, ExpectBot: true}
	if _, validationError := service.validator.Validate(executionContext, notificationCredential, botClient); validationError != nil {
		return nil, validationError
	}

	return botClient, nil
}

func integrationReportProblems(records []IntegrationRecord) []report.Problem {
	problems := make([]report.Problem, 0, len(records))
	for _, record := range records {
		problems = append(problems, record.Problem())
	}
	return problems
}

func userReportProblems(records []UserRecord) []report.Problem {
	problems := make([]report.Problem, 0, len(records))
	for _, record := range records {
		problems = append(problems, record.Problem())
	}
	return problems
}
