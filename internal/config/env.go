package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment overrides, e.g. EVENTCSV_LISTEN.
const EnvPrefix = "EVENTCSV"

// ApplyEnv overlays EVENTCSV_* environment variables, and a .env file in
// the working directory if present, onto c. Unset variables leave c alone.
func ApplyEnv(c *Config) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	str("listen", &c.Listen)
	str("log_level", &c.LogLevel)
	str("default_timezone", &c.DefaultTimezone)
	num("default_weeks", &c.DefaultWeeks)
	if v.IsSet("strict") {
		c.Strict = v.GetBool("strict")
	}
	str("input", &c.Input)
	str("output", &c.Output)
	str("ics_output", &c.ICSOutput)
	if v.IsSet("ics_series") {
		c.ICSSeries = v.GetBool("ics_series")
	}
	str("refresh", &c.RefreshCron)
	num("horizon_days", &c.HorizonDays)
	str("cache_dir", &c.CacheDir)

	if v.IsSet("basic_auth_username") || v.IsSet("basic_auth_password") {
		if c.BasicAuth == nil {
			c.BasicAuth = &BasicAuthConfig{}
		}
		str("basic_auth_username", &c.BasicAuth.Username)
		str("basic_auth_password", &c.BasicAuth.Password)
	}
}
