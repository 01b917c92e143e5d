package config

import (
	"bytes"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is a uniform configuration structure for mdedit.
// It should unify all past, current, and future config versions.
type Config struct {
	// Editor related fields.
	TabSize          int
	BulletListMarker string

	// Clipboard related fields.
	HeadingStyle   string
	CodeBlockStyle string

	// Log related fields.
	LogEnabled bool
	LogPath    string
	LogVerbose bool
}

// Default returns a copy of the embedded default configuration.
func Default() *Config {
	cfg := defaults
	return &cfg
}

// ParseYAML parses a single configuration file.
func ParseYAML(data []byte) (*Config, error) {
	return ParseYAMLChain(data)
}

// ParseYAMLChain parses a chain of configuration files, as returned by
// [Loader.FindConfigChain], on top of the defaults. Fields set in later
// files override the earlier ones.
func ParseYAMLChain(chain ...[]byte) (*Config, error) {
	cfg := defaultsV1alpha1()

	for _, data := range chain {
		version, err := parseVersionFromYAML(data)
		if err != nil {
			return nil, err
		}
		switch version {
		case "v1alpha1":
			if err := parseYAMLv1alpha1(data, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse v1alpha1 config")
			}
		default:
			return nil, errors.Errorf("unknown version: %s", version)
		}
	}

	if err := validateV1alpha1(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to validate v1alpha1 config")
	}

	return configV1alpha1ToConfig(cfg), nil
}

type versionOnly struct {
	Version string `yaml:"version"`
}

func parseVersionFromYAML(data []byte) (string, error) {
	var result versionOnly

	if err := yaml.Unmarshal(data, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}

	return result.Version, nil
}

type configV1alpha1 struct {
	Version   string                  `yaml:"version" validate:"eq=v1alpha1"`
	Editor    editorConfigV1alpha1    `yaml:"editor"`
	Clipboard clipboardConfigV1alpha1 `yaml:"clipboard"`
	Log       logConfigV1alpha1       `yaml:"log"`
}

type editorConfigV1alpha1 struct {
	TabSize          int    `yaml:"tab_size" validate:"min=1,max=4"`
	BulletListMarker string `yaml:"bullet_list_marker" validate:"oneof=- * +"`
}

type clipboardConfigV1alpha1 struct {
	HeadingStyle   string `yaml:"heading_style" validate:"oneof=atx setext"`
	CodeBlockStyle string `yaml:"code_block_style" validate:"oneof=fenced indented"`
}

type logConfigV1alpha1 struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

// parseYAMLv1alpha1 decodes data on top of cfg. Unknown fields are rejected.
func parseYAMLv1alpha1(data []byte, cfg *configV1alpha1) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return errors.Wrap(err, "failed to unmarshal yaml")
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateV1alpha1(cfg *configV1alpha1) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.WithStack(err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldPath(fe)+": "+fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

var fieldNames = map[string]string{
	"Version":          "version",
	"Editor":           "editor",
	"TabSize":          "tab_size",
	"BulletListMarker": "bullet_list_marker",
	"Clipboard":        "clipboard",
	"HeadingStyle":     "heading_style",
	"CodeBlockStyle":   "code_block_style",
}

func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")[1:]
	for i, p := range parts {
		if name, ok := fieldNames[p]; ok {
			parts[i] = name
		}
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		return "must be between 1 and 4"
	case "oneof":
		return "must be one of [" + strings.ReplaceAll(fe.Param(), " ", ", ") + "]"
	case "eq":
		return "must be " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

func configV1alpha1ToConfig(c *configV1alpha1) *Config {
	return &Config{
		TabSize:          c.Editor.TabSize,
		BulletListMarker: c.Editor.BulletListMarker,

		HeadingStyle:   c.Clipboard.HeadingStyle,
		CodeBlockStyle: c.Clipboard.CodeBlockStyle,

		LogEnabled: c.Log.Enabled,
		LogPath:    c.Log.Path,
		LogVerbose: c.Log.Verbose,
	}
}
