package branchrules

import "strings"

const (
	patternConfigurationKeySuffixConstant = ".pattern"
	defaultBranchPatternConstant          = "master"
)

// CommandConfiguration captures configuration values for branch restriction
// commands.
type CommandConfiguration struct {
	Pattern string `mapstructure:"pattern"`
}

// DefaultCommandConfiguration provides baseline branch restriction values.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Pattern: defaultBranchPatternConstant,
	}
}

// Sanitize trims configured values without applying implicit defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Pattern = strings.TrimSpace(configuration.Pattern)
	return sanitized
}

// DefaultConfigurationValues exposes baseline values registered with the
// configuration loader under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + patternConfigurationKeySuffixConstant: defaultBranchPatternConstant,
	}
}
