package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	morphon "github.com/goliatone/go-morphon"
)

// Defaults for settings that are not set anywhere else.
const (
	DefaultEngine    = "expr"
	DefaultStatePath = ".morphon/state.db"
	DefaultDomain    = "config"
	DefaultLogLevel  = "warn"
	envPrefix        = "MORPHON_"

	defaultReferencePrefix = morphon.DefaultReferencePrefix
)

// Settings holds the CLI configuration. Precedence, highest first: flags,
// MORPHON_* environment variables, the settings file, defaults.
type Settings struct {
	Codec           string `koanf:"codec"`
	Engine          string `koanf:"engine"`
	ReferencePrefix string `koanf:"reference_prefix"`
	StatePath       string `koanf:"state_path"`
	Domain          string `koanf:"domain"`
	Actor           string `koanf:"actor"`
	LogLevel        string `koanf:"log_level"`
	Verbose         bool   `koanf:"verbose"`

	// File is the settings file that was read, if any.
	File string `koanf:"-"`
}

// findSettingsFile returns explicit, or morphon.yaml/morphon.yml in the
// working directory when present.
func findSettingsFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"morphon.yaml", "morphon.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// LoadSettings merges defaults, the settings file, the environment and the
// flags that were explicitly set.
func LoadSettings(settingsFile string, flags *pflag.FlagSet) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"engine":           DefaultEngine,
		"reference_prefix": defaultReferencePrefix,
		"state_path":       DefaultStatePath,
		"domain":           DefaultDomain,
		"log_level":        DefaultLogLevel,
		"verbose":          false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	used := findSettingsFile(settingsFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read settings file %s: %w", used, err)
		}
	}

	// MORPHON_STATE_PATH -> state_path
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "state" {
				key = "state_path"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	settings.File = used
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate rejects settings the commands cannot act on.
func (s *Settings) Validate() error {
	switch strings.ToLower(s.Engine) {
	case "expr", "cel", "js":
	default:
		return fmt.Errorf("unknown engine %q (expected expr, cel or js)", s.Engine)
	}
	switch strings.ToLower(s.Codec) {
	case "", "json", "yaml", "yml":
	default:
		return fmt.Errorf("unknown codec %q (expected json or yaml)", s.Codec)
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		return err
	}
	if strings.TrimSpace(s.ReferencePrefix) == "" {
		return fmt.Errorf("reference_prefix must not be empty")
	}
	return nil
}

// Level returns the slog level, lowered to debug when Verbose is set.
func (s *Settings) Level() slog.Level {
	if s.Verbose {
		return slog.LevelDebug
	}
	level, _ := parseLevel(s.LogLevel)
	return level
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelWarn, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
