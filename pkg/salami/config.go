package salami

import "strings"

type Config struct {
	AnnotationDir   string
	AudioDir        string
	AudioExtensions []string
	StrictTimes     bool
	DBPath          string
	TempDir         string
	SampleRate      int
	Logger          Logger
}

type Option func(*Config)

func WithAnnotationDir(dir string) Option {
	return func(c *Config) {
		c.AnnotationDir = dir
	}
}

func WithAudioDir(dir string) Option {
	return func(c *Config) {
		c.AudioDir = dir
	}
}

// WithAudioExtensions sets the accepted file extensions. Earlier entries win
// when one ID is present under several extensions.
func WithAudioExtensions(exts ...string) Option {
	return func(c *Config) {
		c.AudioExtensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			c.AudioExtensions = append(c.AudioExtensions, ext)
		}
	}
}

// WithStrictTimes toggles rejection of annotation files whose times are not
// strictly increasing.
func WithStrictTimes(strict bool) Option {
	return func(c *Config) {
		c.StrictTimes = strict
	}
}

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func defaultConfig() *Config {
	return &Config{
		AnnotationDir:   "salami-data-public/annotations",
		AudioDir:        "mp3s",
		AudioExtensions: []string{".mp3", ".wav", ".pkl"},
		StrictTimes:     true,
		DBPath:          "salami.sqlite3",
		TempDir:         "/tmp",
		SampleRate:      22050,
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
