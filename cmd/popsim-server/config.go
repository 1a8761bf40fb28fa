package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/daniacca/popsim/internal/popsim"
	"github.com/integrii/flaggy"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr               string
	WorldID            string
	WorldFile          string
	SnapshotDir        string
	SnapshotEverySteps int64
	LogLevel           string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string) error
}

var resolvers = []configResolver{
	{
		flagName:    "addr",
		envVarName:  "POPSIM_ADDR",
		defaultVal:  ":8080",
		description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
		setter:      func(c *ServerConfig, v string) error { c.Addr = v; return nil },
	},
	{
		flagName:    "world-file",
		envVarName:  "POPSIM_WORLD_FILE",
		defaultVal:  "",
		description: "optional path to a JSON world config to load at startup",
		setter:      func(c *ServerConfig, v string) error { c.WorldFile = v; return nil },
	},
	{
		flagName:    "world-id",
		envVarName:  "POPSIM_WORLD_ID",
		defaultVal:  "",
		description: "ID of the startup world; defaults to the config name",
		setter:      func(c *ServerConfig, v string) error { c.WorldID = v; return nil },
	},
	{
		flagName:    "snapshot-dir",
		envVarName:  "POPSIM_SNAPSHOT_DIR",
		defaultVal:  "./data",
		description: "Directory where world snapshots are stored",
		setter:      func(c *ServerConfig, v string) error { c.SnapshotDir = v; return nil },
	},
	{
		flagName:    "snapshot-every-steps",
		envVarName:  "POPSIM_SNAPSHOT_EVERY_STEPS",
		defaultVal:  "1000",
		description: "How often to write snapshots (in steps); 0 disables periodic snapshots",
		setter: func(c *ServerConfig, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid snapshot-every-steps %q: must be a non-negative integer", v)
			}
			c.SnapshotEverySteps = n
			return nil
		},
	},
	{
		flagName:    "log-level",
		envVarName:  "POPSIM_LOG_LEVEL",
		defaultVal:  "info",
		description: "Log level: debug, info, warn, error",
		setter:      func(c *ServerConfig, v string) error { c.LogLevel = v; return nil },
	},
}

// loadServerConfig resolves every option from, in order of precedence, the
// command line, the environment and the built-in default.
func loadServerConfig(args []string) (ServerConfig, error) {
	parser := flaggy.NewParser("popsim-server")
	parser.Description = "HTTP server hosting lattice population simulations"

	flagVals := make([]string, len(resolvers))
	for i, r := range resolvers {
		parser.String(&flagVals[i], "", r.flagName, r.description+" (env "+r.envVarName+")")
	}
	if err := parser.ParseArgs(args); err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{}
	for i, r := range resolvers {
		var value string
		if flagVals[i] != "" {
			value = flagVals[i]
		} else if envValue := os.Getenv(r.envVarName); envValue != "" {
			value = envValue
		} else {
			value = r.defaultVal
		}
		if err := r.setter(&cfg, value); err != nil {
			return ServerConfig{}, err
		}
	}
	return cfg, nil
}

// loadWorldFromFile reads, validates and builds a world config file.
func loadWorldFromFile(path string) (popsim.WorldConfig, *popsim.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return popsim.WorldConfig{}, nil, fmt.Errorf("reading world file: %w", err)
	}
	cfg, err := popsim.ParseWorldConfig(data)
	if err != nil {
		return popsim.WorldConfig{}, nil, err
	}
	if err := popsim.ValidateWorldConfig(cfg); err != nil {
		return popsim.WorldConfig{}, nil, err
	}
	w, err := popsim.BuildWorldFromConfig(cfg)
	if err != nil {
		return popsim.WorldConfig{}, nil, err
	}
	return cfg, w, nil
}
