package repositories

const (
	isPrivateConfigurationKeySuffixConstant = ".is_private"
	defaultIsPrivateValueConstant           = true
)

// CommandConfiguration captures configuration values for repository creation.
type CommandConfiguration struct {
	IsPrivate bool `mapstructure:"is_private"`
}

// DefaultCommandConfiguration provides baseline repository creation values.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		IsPrivate: defaultIsPrivateValueConstant,
	}
}

// DefaultConfigurationValues exposes baseline values registered with the
// configuration loader under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + isPrivateConfigurationKeySuffixConstant: defaultIsPrivateValueConstant,
	}
}
