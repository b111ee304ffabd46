package config

import (
	"os"
	"strings"
)

const (
	appEnvVar              = "APP_ENV"
	environmentDevelopment = "development"
	environmentProduction  = "production"
)

var environmentAliases = map[string]string{
	"dev":  environmentDevelopment,
	"prod": environmentProduction,
}

// AppEnvironment reads the application environment from APP_ENV and defaults
// to development when no value is provided.
func AppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return environmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// ResolveConfigPath returns an environment specific configuration file when
// one exists next to the default, e.g. config/config.production.yml for
// APP_ENV=production. The explicit path always wins when it differs from the
// default.
func ResolveConfigPath(path, defaultPath string) string {
	if path == "" {
		path = defaultPath
	}
	if path != defaultPath {
		return path
	}

	envPath := strings.TrimSuffix(defaultPath, ".yml") + "." + AppEnvironment() + ".yml"
	if _, err := os.Stat(envPath); err == nil {
		return envPath
	}
	return path
}
