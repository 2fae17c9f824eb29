package teamconfig

import "fmt"

const (
	configurationErrorTemplateConstant = "configuration error: %s"
)

// ConfigurationError reports a configuration problem detected before any remote call.
type ConfigurationError struct {
	Message string
}

// Error describes the configuration problem.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Message)
}
