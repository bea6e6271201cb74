// Package config provides centralized configuration management for HousePulse.
// It handles loading configuration from multiple sources, validation, and
// directory resolution.
//
// # Configuration Sources
//
// Configuration is layered, later sources winning:
//
//  1. Default values (Default)
//  2. A YAML file (config.yaml, configs/config.yaml or HOUSEPULSE_CONFIG_FILE)
//  3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern HOUSEPULSE_<SECTION>_<KEY>:
//
//	HOUSEPULSE_SERVER_PORT=8080
//	HOUSEPULSE_LOGGING_LEVEL=debug
//	HOUSEPULSE_PIPELINE_INPUT_FILE=data/house_prices_switzerland.csv
//	HOUSEPULSE_PIPELINE_OUTLIER_TRIM=5
//	HOUSEPULSE_PIPELINE_TOP_N=10
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.NewPaths(cfg.Paths)
package config
