// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/petenewcomb/excl-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "EXCLSIM"

// Flag names, which double as config file and environment keys.
const (
	flagConfig     = "config"
	flagClients    = "clients"
	flagIterations = "iterations"
	flagInterval   = "interval"
	flagPeriod     = "period"
	flagHold       = "hold"
	flagCapacity   = "capacity"
	flagNonBlock   = "nonblock"
	flagTimeout    = "timeout"
	flagDev        = "dev"
	flagTrace      = "trace"
)

type config struct {
	Clients    int
	Iterations int
	Interval   time.Duration
	Period     uint64
	Hold       time.Duration
	Capacity   int
	NonBlock   bool
	Timeout    time.Duration
	Dev        bool
	Trace      bool
}

func defineFlags(fs *pflag.FlagSet) {
	fs.String(flagConfig, "", "optional config file (YAML, TOML, JSON, ...)")
	fs.Int(flagClients, 4, "number of concurrent clients")
	fs.Int(flagIterations, 10, "open/write/read/close cycles per client")
	fs.Duration(flagInterval, 10*time.Millisecond, "tick interval of the clock")
	fs.Uint64(flagPeriod, 1, "ticks between periodic task runs")
	fs.Duration(flagHold, time.Millisecond, "how long each client keeps the endpoint open")
	fs.Int(flagCapacity, excl.DefaultMessageCapacity, "message buffer capacity including terminator")
	fs.Bool(flagNonBlock, false, "open without waiting; busy opens are counted and skipped")
	fs.Duration(flagTimeout, 10*time.Second, "overall time limit for the run, including shutdown")
	fs.Bool(flagDev, false, "use the human-friendly development logger")
	fs.Bool(flagTrace, false, "print spans to stderr")
}

// loadConfig layers flags over the environment over the config file over the
// flag defaults.
func loadConfig(cmd *cobra.Command) (config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config{}, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(flagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := config{
		Clients:    v.GetInt(flagClients),
		Iterations: v.GetInt(flagIterations),
		Interval:   v.GetDuration(flagInterval),
		Period:     v.GetUint64(flagPeriod),
		Hold:       v.GetDuration(flagHold),
		Capacity:   v.GetInt(flagCapacity),
		NonBlock:   v.GetBool(flagNonBlock),
		Timeout:    v.GetDuration(flagTimeout),
		Dev:        v.GetBool(flagDev),
		Trace:      v.GetBool(flagTrace),
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch {
	case c.Clients < 1:
		return fmt.Errorf("--%s must be at least 1", flagClients)
	case c.Iterations < 1:
		return fmt.Errorf("--%s must be at least 1", flagIterations)
	case c.Interval <= 0:
		return fmt.Errorf("--%s must be positive", flagInterval)
	case c.Capacity < 2:
		return fmt.Errorf("--%s must be at least 2", flagCapacity)
	case c.Timeout <= 0:
		return fmt.Errorf("--%s must be positive", flagTimeout)
	}
	return nil
}
