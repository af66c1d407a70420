// Package config loads and validates an oniond INI configuration file
// using github.com/go-ini/ini, mirroring the option table the original
// implementation registers with ConfigPilot.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/google/shlex"
)

// Config holds every option the core reads from the configuration
// file. Out-of-core options (logging) are still parsed here since the
// logger and CLI front-end consume them too.
type Config struct {
	// [general]
	Address   string
	Gateway   string
	InitDelay time.Duration

	// [cluster]
	Port     int
	DeadTime time.Duration
	Nodes    []string

	// [actions]
	Active  []string
	Passive []string

	// [logging]
	LoggingEnable bool
	LoggingLevel  string
	LoggingFile   string
}

// Error describes one failed validation rule, identified the way the
// original implementation identifies it: by section and option.
type Error struct {
	Section string
	Option  string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Section, e.Option, e.Reason)
}

// Load reads and validates the configuration file at path. On failure
// it returns a nil *Config and every validation error found, so `check`
// can print every problem at once instead of stopping at the first one.
// A file that cannot be read or parsed yields a single error with an
// empty Option. The address-in-nodes cross-check runs only when every
// other option is valid.
func Load(path string) (*Config, []*Error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, []*Error{{Section: "general", Option: "", Reason: err.Error()}}
	}

	cfg := &Config{
		LoggingLevel: "info",
		LoggingFile:  "/var/log/oniond.log",
	}
	var errs []*Error

	general := file.Section("general")
	cfg.Address = general.Key("address").String()
	if cfg.Address == "" {
		errs = append(errs, &Error{"general", "address", "is required"})
	}

	cfg.Gateway = general.Key("gateway").String()
	if cfg.Gateway == "" {
		errs = append(errs, &Error{"general", "gateway", "is required"})
	}

	initDelay, err := general.Key("initDelay").Int()
	if err != nil {
		errs = append(errs, &Error{"general", "initDelay", "must be an integer"})
	} else if initDelay < 0 || initDelay > 3599 {
		errs = append(errs, &Error{"general", "initDelay", "must be between 0 and 3599"})
	} else {
		cfg.InitDelay = time.Duration(initDelay) * time.Second
	}

	cluster := file.Section("cluster")
	port, err := cluster.Key("port").Int()
	if err != nil {
		errs = append(errs, &Error{"cluster", "port", "must be an integer"})
	} else if port < 1024 || port > 49150 {
		errs = append(errs, &Error{"cluster", "port", "must be between 1024 and 49150"})
	} else {
		cfg.Port = port
	}

	deadTime, err := cluster.Key("deadTime").Int()
	if err != nil {
		errs = append(errs, &Error{"cluster", "deadTime", "must be an integer"})
	} else if deadTime < 2 || deadTime > 3599 {
		errs = append(errs, &Error{"cluster", "deadTime", "must be between 2 and 3599"})
	} else {
		cfg.DeadTime = time.Duration(deadTime) * time.Second
	}

	cfg.Nodes = splitList(cluster.Key("nodes").String())
	if len(cfg.Nodes) < 2 {
		errs = append(errs, &Error{"cluster", "nodes", "must list at least 2 nodes"})
	}

	actions := file.Section("actions")
	cfg.Active, err = parseCommand(actions.Key("active").String())
	if err != nil {
		errs = append(errs, &Error{"actions", "active", err.Error()})
	}
	cfg.Passive, err = parseCommand(actions.Key("passive").String())
	if err != nil {
		errs = append(errs, &Error{"actions", "passive", err.Error()})
	}

	logging := file.Section("logging")
	cfg.LoggingEnable, err = logging.Key("enable").Bool()
	if err != nil {
		errs = append(errs, &Error{"logging", "enable", "must be a boolean"})
	}

	if level := logging.Key("level").String(); level != "" {
		switch level {
		case "info", "warning", "error":
			cfg.LoggingLevel = level
		default:
			errs = append(errs, &Error{"logging", "level", "must be one of info, warning, error"})
		}
	}

	if logFile := logging.Key("file").String(); logFile != "" {
		cfg.LoggingFile = logFile
	}

	if len(errs) == 0 {
		found := false
		for _, n := range cfg.Nodes {
			if n == cfg.Address {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, &Error{"general", "address", "must appear in cluster.nodes"})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseCommand(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	return shlex.Split(raw)
}
