package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baguette-io/baguette-utils/internal/constants"
)

// Configuration keys shared by flags, environment variables and the config file.
const (
	keyConfig      = "config"
	keyAPI         = "api"
	keyTimeout     = "timeout"
	keyRetries     = "retries"
	keyBackoff     = "backoff"
	keyLimit       = "limit"
	keyStatusForce = "status-force"
	keyMaxPages    = "max-pages"
	keyOutput      = "output"
	keyVerbose     = "verbose"
	keyLogLevel    = "log-level"
	keyRateLimit   = "rate-limit"
	keyNATSURL     = "nats-url"
	keyCacheTTL    = "cache-ttl"
	keyUserAgent   = "user-agent"
	keyMetrics     = "metrics"

	defaultLogLevel = "warn"
)

// Settings is the resolved CLI configuration.
type Settings struct {
	API         string
	Timeout     time.Duration
	Retries     int
	Backoff     float64
	StatusForce []int
	Limit       int
	MaxPages    int
	Output      string
	Verbose     bool
	LogLevel    string
	RateLimit   float64
	NATSURL     string
	CacheTTL    time.Duration
	UserAgent   string
	Metrics     bool
}

// AddGlobalFlags registers the persistent flags and binds them to viper.
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP(keyConfig, "c", "", "config file (default is $HOME/.baguette/config.yml)")
	flags.StringP(keyAPI, "a", "", "API base URL, https:// is assumed without a scheme")
	flags.Duration(keyTimeout, constants.DefaultHTTPTimeout, "timeout of a single HTTP exchange")
	flags.Int(keyRetries, constants.DefaultRetryMax, "retries after the first attempt, 0 disables retrying")
	flags.Float64(keyBackoff, constants.DefaultBackoffFactor, "exponential backoff factor in seconds")
	flags.Int(keyLimit, constants.DefaultPageLimit, "page size used by the all command")
	flags.IntSlice(keyStatusForce, constants.DefaultRetryStatuses(), "status codes that trigger a retry")
	flags.Int(keyMaxPages, constants.DefaultMaxPages, "maximum number of pages fetched by the all command")
	flags.StringP(keyOutput, "o", "", "output format (table, json, yaml), table on a terminal and json otherwise")
	flags.BoolP(keyVerbose, "v", false, "verbose output, logs every HTTP exchange")
	flags.String(keyLogLevel, defaultLogLevel, "log level (debug, info, warn, error)")
	flags.Float64(keyRateLimit, 0, "maximum requests per second, 0 for no limit")
	flags.String(keyNATSURL, "", "NATS server whose JetStream KV bucket caches GET responses")
	flags.Duration(keyCacheTTL, constants.DefaultCacheTTL, "lifetime of cached GET responses")
	flags.String(keyUserAgent, constants.DefaultUserAgent, "User-Agent header")
	flags.Bool(keyMetrics, false, "print client metrics to stderr after the call")

	for _, key := range []string{
		keyConfig, keyAPI, keyTimeout, keyRetries, keyBackoff, keyLimit, keyStatusForce, keyMaxPages,
		keyOutput, keyVerbose, keyLogLevel, keyRateLimit, keyNATSURL, keyCacheTTL, keyUserAgent, keyMetrics,
	} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
}

// BindEnv maps BAGUETTE_* environment variables onto configuration keys,
// for example BAGUETTE_MAX_PAGES to max-pages.
func BindEnv() {
	viper.SetEnvPrefix("BAGUETTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// LoadSettings reads the merged flag, environment and file configuration.
func LoadSettings() *Settings {
	return &Settings{
		API:         viper.GetString(keyAPI),
		Timeout:     viper.GetDuration(keyTimeout),
		Retries:     viper.GetInt(keyRetries),
		Backoff:     viper.GetFloat64(keyBackoff),
		StatusForce: intSliceSetting(keyStatusForce),
		Limit:       viper.GetInt(keyLimit),
		MaxPages:    viper.GetInt(keyMaxPages),
		Output:      viper.GetString(keyOutput),
		Verbose:     viper.GetBool(keyVerbose),
		LogLevel:    viper.GetString(keyLogLevel),
		RateLimit:   viper.GetFloat64(keyRateLimit),
		NATSURL:     viper.GetString(keyNATSURL),
		CacheTTL:    viper.GetDuration(keyCacheTTL),
		UserAgent:   viper.GetString(keyUserAgent),
		Metrics:     viper.GetBool(keyMetrics),
	}
}

// entries lists the settings in display order.
func (s *Settings) entries() [][2]string {
	return [][2]string{
		{keyAPI, formatConfigValue(s.API)},
		{keyTimeout, s.Timeout.String()},
		{keyRetries, itoa(s.Retries)},
		{keyBackoff, ftoa(s.Backoff)},
		{keyStatusForce, joinInts(s.StatusForce)},
		{keyLimit, itoa(s.Limit)},
		{keyMaxPages, itoa(s.MaxPages)},
		{keyOutput, formatConfigValue(s.Output)},
		{keyVerbose, boolString(s.Verbose)},
		{keyLogLevel, s.LogLevel},
		{keyRateLimit, ftoa(s.RateLimit)},
		{keyNATSURL, formatConfigValue(s.NATSURL)},
		{keyCacheTTL, s.CacheTTL.String()},
		{keyUserAgent, s.UserAgent},
		{keyMetrics, boolString(s.Metrics)},
	}
}

// intSliceSetting also accepts the comma separated form environment
// variables use.
func intSliceSetting(key string) []int {
	if values := viper.GetIntSlice(key); len(values) > 0 {
		return values
	}

	var values []int

	for _, field := range strings.Split(viper.GetString(key), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err == nil {
			values = append(values, n)
		}
	}

	return values
}
