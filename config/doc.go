// Package config loads program configuration from YAML files, .env files and
// environment variables using Viper and godotenv.
//
// # Usage
//
//	var cfg AppConfig
//	if err := config.LoadConfig("billing", &cfg); err != nil {
//	    return err
//	}
//
// Without explicit paths the loader looks for billing.yml or config.yml in
// ".", "./config" and "./cmd/billing", and for .env.billing or .env in "."
// and "./config".
package config
