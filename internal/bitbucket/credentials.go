package bitbucket

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	environmentPrefixConstant                = "bitbucket"
	apiBaseURLSettingNameConstant            = "BITBUCKET_API_URL"
	workspaceSettingNameConstant             = "BITBUCKET_WORKSPACE"
	usernameSettingNameConstant              = "BITBUCKET_USERNAME"
	appPasswordSettingNameConstant           = "BITBUCKET_APP_PASSWORD"
	accessTokenSettingNameConstant           = "BITBUCKET_TOKEN"
	defaultAPIBaseURLConstant                = "https://api.bitbucket.org/2.0"
	apiBaseURLConfigurationKeySuffixConstant = ".api_url"
)

// DefaultConfigurationValues exposes baseline connection defaults registered
// with the configuration loader under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + apiBaseURLConfigurationKeySuffixConstant: defaultAPIBaseURLConstant,
	}
}

// Credentials holds the secrets used to authenticate API requests. The pair
// of username and application password backs basic authentication while the
// access token backs bearer authentication. Credentials never change for the
// lifetime of the process.
type Credentials struct {
	Username    string
	AppPassword string
	AccessToken string
}

// APIContext aggregates everything an operation needs to reach the remote
// service: the API base URL, the workspace identifier, and the credentials.
// It is constructed once at startup and shared read-only by all operations.
type APIContext struct {
	BaseURL     string
	Workspace   string
	Credentials Credentials
}

type environmentSettings struct {
	APIBaseURL  string `envconfig:"API_URL"`
	Workspace   string `envconfig:"WORKSPACE"`
	Username    string `envconfig:"USERNAME"`
	AppPassword string `envconfig:"APP_PASSWORD"`
	AccessToken string `envconfig:"TOKEN"`
}

// WorkspaceConfiguration stores connection settings sourced from the
// configuration file. Environment variables take precedence over these.
type WorkspaceConfiguration struct {
	APIBaseURL string `mapstructure:"api_url"`
	Workspace  string `mapstructure:"workspace"`
}

// Sanitize trims configured connection values.
func (configuration WorkspaceConfiguration) Sanitize() WorkspaceConfiguration {
	sanitized := configuration
	sanitized.APIBaseURL = strings.TrimSpace(configuration.APIBaseURL)
	sanitized.Workspace = strings.TrimSpace(configuration.Workspace)
	return sanitized
}

// EnvironmentLookupProcessor reads BITBUCKET_* settings; envconfig.Process is
// the production implementation and tests may substitute their own.
type EnvironmentLookupProcessor func(prefix string, target any) error

// ResolveAPIContext merges file-based configuration with the BITBUCKET_*
// environment and validates that the base URL and workspace are known. The
// credential fields are carried along unvalidated; each operation family
// checks the scheme it needs through RequireScheme before issuing requests.
func ResolveAPIContext(configuration WorkspaceConfiguration, environmentProcessor EnvironmentLookupProcessor) (APIContext, error) {
	resolvedProcessor := environmentProcessor
	if resolvedProcessor == nil {
		resolvedProcessor = func(prefix string, target any) error {
			return envconfig.Process(prefix, target)
		}
	}

	var settings environmentSettings
	if processingError := resolvedProcessor(environmentPrefixConstant, &settings); processingError != nil {
		return APIContext{}, processingError
	}

	sanitizedConfiguration := configuration.Sanitize()

	apiContext := APIContext{
		BaseURL:   firstNonEmpty(strings.TrimSpace(settings.APIBaseURL), sanitizedConfiguration.APIBaseURL),
		Workspace: firstNonEmpty(strings.TrimSpace(settings.Workspace), sanitizedConfiguration.Workspace),
		Credentials: Credentials{
			Username:    strings.TrimSpace(settings.Username),
			AppPassword: strings.TrimSpace(settings.AppPassword),
			AccessToken: strings.TrimSpace(settings.AccessToken),
		},
	}

	missingSettings := make([]string, 0, 2)
	if len(apiContext.BaseURL) == 0 {
		missingSettings = append(missingSettings, apiBaseURLSettingNameConstant)
	}
	if len(apiContext.Workspace) == 0 {
		missingSettings = append(missingSettings, workspaceSettingNameConstant)
	}
	if len(missingSettings) > 0 {
		return APIContext{}, ConfigurationError{MissingSettings: missingSettings}
	}

	return apiContext, nil
}

// RequireScheme confirms the credentials needed by the requested
// authentication scheme are present before any network call is attempted.
func (apiContext APIContext) RequireScheme(scheme AuthenticationScheme) error {
	missingSettings := make([]string, 0, 2)

	switch scheme {
	case AuthenticationSchemeBasic:
		if len(apiContext.Credentials.Username) == 0 {
			missingSettings = append(missingSettings, usernameSettingNameConstant)
		}
		if len(apiContext.Credentials.AppPassword) == 0 {
			missingSettings = append(missingSettings, appPasswordSettingNameConstant)
		}
	case AuthenticationSchemeBearer:
		if len(apiContext.Credentials.AccessToken) == 0 {
			missingSettings = append(missingSettings, accessTokenSettingNameConstant)
		}
	}

	if len(missingSettings) > 0 {
		return ConfigurationError{MissingSettings: missingSettings}
	}

	return nil
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if len(candidate) > 0 {
			return candidate
		}
	}
	return ""
}
