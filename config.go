package stagecraft

import (
	_ "embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigYAML []byte

// Built-in boot textures: a transparent 32x32 square and a 32x32 green
// outlined cross.
const (
	DefaultImageData = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAACAAAAAgCAYAAABzenr0AAAAGklEQVR42u3BAQEAAACCIP+vbkhAAQAAAO8GECAAAcm1w7EAAAAASUVORK5CYII="
	MissingImageData = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAACAAAAAgCAYAAABzenr0AAAAkElEQVR42uWXSxKAMAhDc/9Lx73ajxT6dBzHNa8DCUEy/L0LQJv+WwBtgvAJ4vJ6byjeBaiCcKMNzf67sPgUQBaEB4M4VIALij8CiEJ4UorTHuDE4iEAJYOGAJQ4L2EAJcl2CUAJ7rkMoMUl9n0AtAXoEKIyRI0ItWJ0GaHrGA0kaCRDQykay9HDBD/N/nodHwQGIyQQYTE8AAAAAElFTkSuQmCC"
)

// Config holds game-wide settings.
type Config struct {
	Title    string `yaml:"title"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	TPS      int    `yaml:"tps"`
	LogLevel string `yaml:"logLevel"`
	Debug    bool   `yaml:"debug"`

	// DefaultImage and MissingImage are data URIs decoded at boot into the
	// "__DEFAULT" and "__MISSING" textures.
	DefaultImage string `yaml:"defaultImage"`
	MissingImage string `yaml:"missingImage"`

	// AssetPath is prefixed to relative loader URLs.
	AssetPath string `yaml:"assetPath"`
	// BaseURL is prefixed to relative loader URLs when Assets is nil.
	BaseURL              string        `yaml:"baseURL"`
	MaxParallelDownloads int           `yaml:"maxParallelDownloads"`
	LoaderTimeout        time.Duration `yaml:"loaderTimeout"`

	SampleRate int `yaml:"sampleRate"`

	// Scenes holds named scene configs, looked up with Scene.
	Scenes []SceneConfig `yaml:"scenes"`

	// Assets is the file system the loader reads relative URLs from.
	Assets fs.FS `yaml:"-"`
	// LogOutput receives log lines; nil means stderr.
	LogOutput io.Writer `yaml:"-"`
}

// DefaultConfig returns the embedded default configuration.
func DefaultConfig() Config {
	cfg, err := ParseConfig(defaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("stagecraft: embedded default config is invalid: %v", err))
	}
	return cfg
}

// ParseConfig decodes YAML over the built-in defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := Config{
		Title:                "stagecraft",
		Width:                800,
		Height:               600,
		TPS:                  60,
		LogLevel:             "info",
		DefaultImage:         DefaultImageData,
		MissingImage:         MissingImageData,
		MaxParallelDownloads: 32,
		LoaderTimeout:        30 * time.Second,
		SampleRate:           44100,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("stagecraft: failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file. An empty path returns DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("stagecraft: failed to read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("stagecraft: config %s: %w", path, err)
	}
	return cfg, nil
}

// Scene returns the scene config registered under key, or a config carrying
// only the key.
func (c Config) Scene(key string) SceneConfig {
	for _, sc := range c.Scenes {
		if sc.Key == key {
			return sc
		}
	}
	return SceneConfig{Key: key}
}
