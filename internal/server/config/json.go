package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pagewatch/internal/flagx"
	"github.com/dmitrijs2005/pagewatch/internal/timex"
)

// jsonConfig is the on-disk shape. Keys missing from the file keep the
// value already in Config.
type jsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	EndpointAddrOps              string         `json:"endpoint_addr_ops"`
	DatabaseDSN                  string         `json:"database_dsn"`
	JWTSecret                    string         `json:"jwt_secret"`
	CustomTokenSecret            string         `json:"custom_token_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity"`
	HistoryDepth                 int            `json:"history_depth"`
	ExportURLValidity            timex.Duration `json:"export_url_validity"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	Logger                       string         `json:"logger"`
	LogLevel                     string         `json:"log_level"`
}

func parseJSON(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	jc := jsonConfig{
		EndpointAddrGRPC:             cfg.EndpointAddrGRPC,
		EndpointAddrOps:              cfg.EndpointAddrOps,
		DatabaseDSN:                  cfg.DatabaseDSN,
		JWTSecret:                    cfg.JWTSecret,
		CustomTokenSecret:            cfg.CustomTokenSecret,
		AccessTokenValidityDuration:  timex.Duration{Duration: cfg.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: cfg.RefreshTokenValidityDuration},
		HistoryDepth:                 cfg.HistoryDepth,
		ExportURLValidity:            timex.Duration{Duration: cfg.ExportURLValidity},
		S3RootUser:                   cfg.S3RootUser,
		S3RootPassword:               cfg.S3RootPassword,
		S3Bucket:                     cfg.S3Bucket,
		S3Region:                     cfg.S3Region,
		S3BaseEndpoint:               cfg.S3BaseEndpoint,
		Logger:                       cfg.Logger,
		LogLevel:                     cfg.LogLevel,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.EndpointAddrGRPC = jc.EndpointAddrGRPC
	cfg.EndpointAddrOps = jc.EndpointAddrOps
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.JWTSecret = jc.JWTSecret
	cfg.CustomTokenSecret = jc.CustomTokenSecret
	cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	cfg.RefreshTokenValidityDuration = jc.RefreshTokenValidityDuration.Duration
	cfg.HistoryDepth = jc.HistoryDepth
	cfg.ExportURLValidity = jc.ExportURLValidity.Duration
	cfg.S3RootUser = jc.S3RootUser
	cfg.S3RootPassword = jc.S3RootPassword
	cfg.S3Bucket = jc.S3Bucket
	cfg.S3Region = jc.S3Region
	cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	cfg.Logger = jc.Logger
	cfg.LogLevel = jc.LogLevel
	return nil
}
