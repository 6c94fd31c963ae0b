package config

import (
	"time"

	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
	"github.com/Sumatoshi-tech/colprofile/pkg/report"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxSize     = "64MB"
	DefaultDelimiter   = ","
	DefaultTopN        = profile.DefaultTopN
	DefaultSampleRows  = report.DefaultSampleRows
	DefaultFormat      = report.FormatText
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultConfigName  = ".colprofile"
	DefaultEnvPrefix   = "COLPROFILE"
	logFormatJSON      = "json"
	defaultSampleRatio = 0.0
)
