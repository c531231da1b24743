// Package config loads process settings for the salami binaries from a YAML
// file, a .env file and SALAMI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/salami/pkg/salami"
)

// EnvConfigFile names a YAML file to load when no path is passed to Load.
const EnvConfigFile = "SALAMI_CONFIG"

type Config struct {
	AnnotationDir   string   `yaml:"annotation_dir"`
	AudioDir        string   `yaml:"audio_dir"`
	AudioExtensions []string `yaml:"audio_extensions"`
	StrictTimes     bool     `yaml:"strict_times"`
	DBPath          string   `yaml:"db_path"`
	TempDir         string   `yaml:"temp_dir"`
	SampleRate      int      `yaml:"sample_rate"`
	Tolerance       float64  `yaml:"tolerance"`
	LogLevel        string   `yaml:"log_level"`
	// EstimatesRoot bounds the estimate directories the server will read.
	// Empty disables directory estimates over HTTP.
	EstimatesRoot string `yaml:"estimates_root"`
}

// Default mirrors salami.NewConfig with a 0.5 s tolerance.
func Default() Config {
	lib := salami.NewConfig()
	return Config{
		AnnotationDir:   lib.AnnotationDir,
		AudioDir:        lib.AudioDir,
		AudioExtensions: lib.AudioExtensions,
		StrictTimes:     lib.StrictTimes,
		DBPath:          lib.DBPath,
		TempDir:         lib.TempDir,
		SampleRate:      lib.SampleRate,
		Tolerance:       0.5,
		LogLevel:        "info",
	}
}

// Load applies, in increasing precedence: defaults, the YAML file at path
// (or $SALAMI_CONFIG), a .env file in the working directory, and the
// environment. An explicitly named YAML file must exist; .env is optional.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SALAMI_ANNOTATION_DIR", &c.AnnotationDir)
	str("SALAMI_AUDIO_DIR", &c.AudioDir)
	str("SALAMI_DB_PATH", &c.DBPath)
	str("SALAMI_TEMP_DIR", &c.TempDir)
	str("SALAMI_LOG_LEVEL", &c.LogLevel)
	str("SALAMI_ESTIMATES_ROOT", &c.EstimatesRoot)

	if v, ok := lookup("SALAMI_AUDIO_EXTENSIONS"); ok && v != "" {
		c.AudioExtensions = nil
		for _, ext := range strings.Split(v, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				c.AudioExtensions = append(c.AudioExtensions, ext)
			}
		}
	}
	if v, ok := lookup("SALAMI_TOLERANCE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SALAMI_TOLERANCE: %w", err)
		}
		c.Tolerance = f
	}
	if v, ok := lookup("SALAMI_SAMPLE_RATE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SALAMI_SAMPLE_RATE: %w", err)
		}
		c.SampleRate = n
	}
	if v, ok := lookup("SALAMI_STRICT_TIMES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SALAMI_STRICT_TIMES: %w", err)
		}
		c.StrictTimes = b
	}
	return nil
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %v", c.Tolerance)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if len(c.AudioExtensions) == 0 {
		return errors.New("no audio extensions configured")
	}
	return nil
}

// Options converts the settings into library options.
func (c Config) Options() []salami.Option {
	return []salami.Option{
		salami.WithAnnotationDir(c.AnnotationDir),
		salami.WithAudioDir(c.AudioDir),
		salami.WithAudioExtensions(c.AudioExtensions...),
		salami.WithStrictTimes(c.StrictTimes),
		salami.WithDBPath(c.DBPath),
		salami.WithTempDir(c.TempDir),
		salami.WithSampleRate(c.SampleRate),
	}
}
