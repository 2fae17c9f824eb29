// Package audit implements the belay workspace audit: it validates credentials,
// gathers integration logs and members from Slack, evaluates them against the
// configured policy, and hands the resulting problems to the report dispatcher.
//
// It exposes CommandBuilder for wiring the audit Cobra command, Service for driving
// the workflow programmatically, and IntegrationAuditor and UserAuditor for the
// policy rules themselves.
package audit
