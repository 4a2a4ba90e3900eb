package config

// Environment names recognized in server.environment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports whether an environment must run with hardened
// settings: real secrets, non-localhost endpoints, explicit database config.
func IsProductionLike(environment string) bool {
	return environment == EnvStaging || environment == EnvProduction
}
