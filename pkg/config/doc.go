// Package config loads configuration structs from environment variables.
//
// A Loader reads optional .env files with github.com/joho/godotenv, parses
// the process environment into structs annotated with `env` tags using
// github.com/caarlos0/env/v11, and caches the result per struct type.
// Loaders are explicit values: construct one at startup and inject it, and
// create a fresh one in tests for isolation.
//
//	loader := config.NewLoader()
//	storeCfg, err := config.LoadInto[tenantctx.Config](loader)
//	if err != nil {
//		return err
//	}
//	store := tenantctx.NewStoreFromConfig(storeCfg)
package config
