package outline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/outline/render/core"
)

// Config holds the demo and renderer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Logging LoggingConfig `yaml:"logging"`
	Outline OutlineConfig `yaml:"outline"`
	Clear   Color         `yaml:"clear_color"`
}

type WindowConfig struct {
	Title       string `yaml:"title"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	MsaaSamples uint32 `yaml:"msaa"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutlineConfig is the material used when an entity asks for an outline
// without naming one.
type OutlineConfig struct {
	Width float32 `yaml:"width"`
	Color Color   `yaml:"color"`
}

// Color decodes either a CSS color name or a [r, g, b] / [r, g, b, a] list
// of linear components.
type Color core.LinearRgba

func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		named, err := core.ColorByName(node.Value)
		if err != nil {
			return err
		}
		*c = Color(named)
		return nil
	case yaml.SequenceNode:
		var parts []float32
		if err := node.Decode(&parts); err != nil {
			return err
		}
		if len(parts) != 3 && len(parts) != 4 {
			return fmt.Errorf("line %d: color needs 3 or 4 components, got %d", node.Line, len(parts))
		}
		rgba := core.LinearRgba{R: parts[0], G: parts[1], B: parts[2], A: 1}
		if len(parts) == 4 {
			rgba.A = parts[3]
		}
		*c = Color(rgba)
		return nil
	}
	return fmt.Errorf("line %d: color must be a name or a list", node.Line)
}

func (c Color) Linear() core.LinearRgba {
	return core.LinearRgba(c)
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:       "outline",
			Width:       1280,
			Height:      720,
			MsaaSamples: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Outline: OutlineConfig{
			Width: 3,
			Color: Color(core.White),
		},
		Clear: Color(core.LinearRgba{R: 0.1, G: 0.1, B: 0.12, A: 1}),
	}
}

// LoadConfig applies the YAML file at path over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Window.MsaaSamples {
	case 1, 4:
	default:
		return fmt.Errorf("msaa must be 1 or 4, got %d", c.Window.MsaaSamples)
	}
	if _, err := core.NewOutlineMaterial(c.Outline.Width, c.Outline.Color.Linear()); err != nil {
		return fmt.Errorf("outline: %w", err)
	}
	return nil
}

// LoggingModule builds the logging module described by the config.
func (c *Config) LoggingModule(prefix string) LoggingModule {
	m := LoggingModule{Prefix: prefix, Level: c.Logging.Level}
	if c.Logging.LogFile != "" {
		m.File = DefaultLogFileConfig(c.Logging.LogFile)
	}
	return m
}
