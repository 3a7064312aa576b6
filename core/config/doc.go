// Package config provides configuration management for orgunit-sync.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags of each
// partial configuration. LoadConfig validates the result before returning it.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: driver and connection details (mysql, postgres, sqlite)
//   - Storage: S3/MinIO credentials and bucket for s3:// snapshot locations
//   - Log: Logging level, format and output
//   - Snapshot: default export file and the directory API callers are confined to
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Driver)
package config
