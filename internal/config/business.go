package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// BusinessDefaults seed the settings row on first boot.
type BusinessDefaults struct {
	OpeningTime         string `mapstructure:"opening_time"`
	ClosingTime         string `mapstructure:"closing_time"`
	WorkingDays         []int  `mapstructure:"working_days"`
	SlotDurationMinutes int    `mapstructure:"slot_duration_minutes"`
}

// LoadBusinessDefaults reads an optional yaml/json/toml file. Keys can be
// overridden by BUSINESS_* env vars (BUSINESS_OPENING_TIME, ...).
func LoadBusinessDefaults(path string) (BusinessDefaults, error) {
	v := viper.New()
	v.SetDefault("opening_time", "09:00")
	v.SetDefault("closing_time", "20:00")
	v.SetDefault("working_days", []int{1, 2, 3, 4, 5, 6})
	v.SetDefault("slot_duration_minutes", 30)

	v.SetEnvPrefix("BUSINESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return BusinessDefaults{}, fmt.Errorf("read business defaults %s: %w", path, err)
		}
	}

	var out BusinessDefaults
	if err := v.Unmarshal(&out); err != nil {
		return BusinessDefaults{}, fmt.Errorf("decode business defaults: %w", err)
	}
	return out, nil
}
