package config

import (
	"reflect"
	"strings"

	"github.com/aligned-app/aligned/internal/flagx"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ALIGNED_BACKEND_URL.
const EnvPrefix = "ALIGNED"

// parseFile overlays cfg with the config file named by -c/-config (JSON,
// YAML or TOML, chosen by extension) and then with ALIGNED_* environment
// variables. Read or decode errors panic.
func parseFile(cfg *Config, args []string) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for key, val := range fieldValues(cfg) {
		v.SetDefault(key, val)
	}

	if path := flagx.ConfigFileFlag(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			panic(err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		panic(err)
	}
}

// fieldValues maps every mapstructure key of cfg to its current value.
func fieldValues(cfg *Config) map[string]any {
	out := make(map[string]any)
	rv := reflect.ValueOf(cfg).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		out[tag] = rv.Field(i).Interface()
	}
	return out
}
