package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type OpenSprinkler struct {
	Host     string `json:"host"`
	Password string `json:"password"`
	Port     int    `json:"port"`
}

// Button maps one GPIO input line to a station display index.
type Button struct {
	GPIO    int `json:"gpio"`
	Station int `json:"station"`
}

type Config struct {
	ConfigFile string
	LogFile    string
	LogLevel   zerolog.Level

	OpenSprinkler OpenSprinkler `json:"opensprinkler"`

	RefreshIntervalSeconds int      `json:"refresh_interval_seconds"`
	DefaultDurationSeconds int      `json:"default_duration_seconds"`
	DebounceMillis         int      `json:"debounce_ms"`
	GPIOChip               string   `json:"gpio_chip"`
	Buttons                []Button `json:"buttons"`

	APIPort     int    `json:"api_port"`
	JournalFile string `json:"journal_file"`
	SafeMode    bool   `json:"safe_mode"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Path to log file (empty logs to stderr)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	if cfg.OpenSprinkler.Port == 0 {
		cfg.OpenSprinkler.Port = 80
	}
	if cfg.RefreshIntervalSeconds == 0 {
		cfg.RefreshIntervalSeconds = 5
	}
	if cfg.DefaultDurationSeconds == 0 {
		cfg.DefaultDurationSeconds = 300
	}
	if cfg.DebounceMillis == 0 {
		cfg.DebounceMillis = 300
	}
	if cfg.GPIOChip == "" {
		cfg.GPIOChip = "gpiochip0"
	}
	if cfg.JournalFile == "" {
		cfg.JournalFile = "data/journal.db"
	}

	cfg.validate()
	return cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() {
	var problems []string

	if cfg.OpenSprinkler.Host == "" {
		problems = append(problems, "opensprinkler.host is required")
	}
	if cfg.OpenSprinkler.Password == "" {
		problems = append(problems, "opensprinkler.password is required")
	}
	if cfg.RefreshIntervalSeconds < 0 {
		problems = append(problems, "refresh_interval_seconds must not be negative")
	}
	if cfg.DefaultDurationSeconds <= 0 {
		problems = append(problems, "default_duration_seconds must be positive")
	}
	if cfg.DebounceMillis <= 0 {
		problems = append(problems, "debounce_ms must be positive")
	}

	usedPins := map[int]int{}
	usedStations := map[int]int{}
	for i, b := range cfg.Buttons {
		if b.GPIO < 0 {
			problems = append(problems, fmt.Sprintf("buttons[%d].gpio must not be negative", i))
		}
		if b.Station < 0 {
			problems = append(problems, fmt.Sprintf("buttons[%d].station must not be negative", i))
		}
		if prev, exists := usedPins[b.GPIO]; exists {
			problems = append(problems, fmt.Sprintf("buttons[%d] and buttons[%d] both use gpio %d", prev, i, b.GPIO))
		} else {
			usedPins[b.GPIO] = i
		}
		if prev, exists := usedStations[b.Station]; exists {
			problems = append(problems, fmt.Sprintf("buttons[%d] and buttons[%d] both map station %d", prev, i, b.Station))
		} else {
			usedStations[b.Station] = i
		}
	}

	if len(problems) > 0 {
		panic("Invalid config: " + strings.Join(problems, ", "))
	}
}

// ButtonTable returns the gpio line -> display index mapping.
func (cfg *Config) ButtonTable() map[int]int {
	table := make(map[int]int, len(cfg.Buttons))
	for _, b := range cfg.Buttons {
		table[b.GPIO] = b.Station
	}
	return table
}
