package core

import "time"

// Config is one photobox pipeline as read from photobox.yaml.
type Config struct {
	RootPath       string        `yaml:"root_path"`        // working directory; always ends with '/'
	URLs           []string      `yaml:"urls"`             // locators, in report order
	ScreenSizes    []string      `yaml:"screen_sizes"`     // "<width>x<height>" descriptors
	UseImageMagick bool          `yaml:"use_image_magick"` // enables the diff stage and the "magic" report
	HighlightColor string        `yaml:"highlight_color"`
	Render         RenderOptions `yaml:"render"`
	Commands       Commands      `yaml:"commands"`
	Timeout        time.Duration `yaml:"timeout"` // per invocation, 0 waits forever
	History        HistoryConfig `yaml:"history"`
}

// RenderOptions is passed through to the render process via options.json.
type RenderOptions struct {
	JavascriptEnabled             bool   `yaml:"javascript_enabled" json:"javascriptEnabled"`
	LoadImages                    bool   `yaml:"load_images" json:"loadImages"`
	LocalToRemoteURLAccessEnabled bool   `yaml:"local_to_remote_url_access_enabled" json:"localToRemoteUrlAccessEnabled"`
	UserName                      string `yaml:"user_name" json:"userName"`
	Password                      string `yaml:"password" json:"password"`
	UserAgent                     string `yaml:"user_agent" json:"userAgent"`
	Delay                         int    `yaml:"delay" json:"delay"` // ms to wait after load
	Stealth                       bool   `yaml:"stealth" json:"stealth"`
}

// Commands names the external programs the stages launch.
type Commands struct {
	Render    string `yaml:"render"`
	Compare   string `yaml:"compare"`
	Composite string `yaml:"composite"`
}

// HistoryConfig controls the session ledger.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"` // default <root>/history.jsonl
	SigningKey string `yaml:"signing_key"`
	PublicKey  string `yaml:"public_key"`
}

// DefaultConfig returns the values used for every key photobox.yaml leaves out.
func DefaultConfig() Config {
	return Config{
		HighlightColor: "yellow",
		Render: RenderOptions{
			JavascriptEnabled: true,
			LoadImages:        true,
			Delay:             500,
		},
		Commands: Commands{
			Render:    "photobox-render",
			Compare:   "compare",
			Composite: "composite",
		},
	}
}

// Sizes parses ScreenSizes in order.
func (c *Config) Sizes() ([]Size, error) {
	sizes := make([]Size, 0, len(c.ScreenSizes))
	for _, s := range c.ScreenSizes {
		size, err := ParseSize(s)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

// Jobs builds the job set of the pipeline. Job sets with colliding slugs are rejected.
func (c *Config) Jobs() ([]Job, error) {
	sizes, err := c.Sizes()
	if err != nil {
		return nil, err
	}
	jobs := BuildJobSet(c.URLs, sizes)
	if err := CheckSlugs(jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Template selects the report variant.
func (c *Config) Template() string {
	if c.UseImageMagick {
		return "magic"
	}
	return "default"
}

// HistoryPath resolves where the session ledger lives.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return Layout{Root: c.RootPath}.History()
}
