package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "ROTAPLAN"

// settings is the resolved configuration of a command. Every value
// comes from, in order of precedence, a flag, a ROTAPLAN_* environment
// variable, the --config file or the flag default.
type settings struct {
	Dataset     string
	Output      string
	CSV         string
	Backend     string
	TimeLimit   time.Duration
	Parallelism int
	Trace       bool
	DumpMetrics bool
	Debug       bool
	LogFormat   string
}

func loadSettings(flags *pflag.FlagSet) (*settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, errors.Wrap(err, "binding flags")
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	s := &settings{
		Dataset:     v.GetString("dataset"),
		Output:      v.GetString("output"),
		CSV:         v.GetString("csv"),
		Backend:     v.GetString("backend"),
		TimeLimit:   v.GetDuration("time-limit"),
		Parallelism: v.GetInt("parallelism"),
		Trace:       v.GetBool("trace"),
		DumpMetrics: v.GetBool("dump-metrics"),
		Debug:       v.GetBool("debug"),
		LogFormat:   v.GetString("log-format"),
	}
	if s.Dataset == "" {
		return nil, errors.New("no dataset: set --dataset or ROTAPLAN_DATASET")
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return nil, errors.Errorf("%s is not a supported log format", s.LogFormat)
	}
	return s, nil
}
