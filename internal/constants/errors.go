package constants

import "errors"

// CLI errors.
var (
	ErrNoAPIConfigured     = errors.New("no API endpoint configured, use --api or set api in the config file")
	ErrInvalidKeyValue     = errors.New("expected key=value")
	ErrUnknownOutputFormat = errors.New("unknown output format")
	ErrDataAndDataFile     = errors.New("--data and --data-file are mutually exclusive")
	ErrCallFailed          = errors.New("call failed")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
)
