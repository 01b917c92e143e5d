// autoconfig provides a way to create various instances from the [config.Config] like
// [zap.Logger], [clipboard.Normalizer] and editor sessions.
//
// For example, to parse a document with the configured editor, you can write:
//
//	autoconfig.NewBuilder().Invoke(func(newSession autoconfig.SessionFactory) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism.
//
// Configuration files are found by [config.Loader] and merged by [viper.Viper],
// which also applies MDEDIT_* environment variables and bound command-line flags.
package autoconfig

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/internal/config"
	"github.com/stateful/mdedit/pkg/document/clipboard"
	"github.com/stateful/mdedit/pkg/document/editor"
)

// DocumentPath is a path, relative to the loader's file system, of the
// document being edited. Nested configuration files are looked up along it.
type DocumentPath string

// SessionFactory creates editor sessions configured by [config.Config].
// Extra options are applied last.
type SessionFactory func(opts ...editor.Option) *editor.Session

type Builder struct {
	container *dig.Container
}

func NewBuilder() *Builder {
	b := &Builder{container: dig.New()}

	mustProvide(b.container.Provide(getConfig))
	mustProvide(b.container.Provide(getDocumentPath))
	mustProvide(b.container.Provide(getLoader))
	mustProvide(b.container.Provide(getLogger))
	mustProvide(b.container.Provide(getNormalizer))
	mustProvide(b.container.Provide(getSessionFactory))
	mustProvide(b.container.Provide(getViper))

	return b
}

// Decorate replaces a dependency, for example [config.Loader] in tests:
//
//	builder.Decorate(func() (*config.Loader, error) { ... })
func (b *Builder) Decorate(decorator interface{}, opts ...dig.DecorateOption) error {
	return dig.RootCause(b.container.Decorate(decorator, opts...))
}

// Invoke is used to invoke the function with the given dependencies.
// The package will automatically figure out how to instantiate them
// using the available configuration.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := b.container.Invoke(function, opts...)
	return dig.RootCause(err)
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

func getViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Typed defaults make values coming from the environment
	// keep the type of the configuration field.
	d := config.Default()
	v.SetDefault("version", "v1alpha1")
	v.SetDefault("editor.tab_size", d.TabSize)
	v.SetDefault("editor.bullet_list_marker", d.BulletListMarker)
	v.SetDefault("clipboard.heading_style", d.HeadingStyle)
	v.SetDefault("clipboard.code_block_style", d.CodeBlockStyle)
	v.SetDefault("log.enabled", d.LogEnabled)
	v.SetDefault("log.path", d.LogPath)
	v.SetDefault("log.verbose", d.LogVerbose)
	v.SetTypeByDefaultValue(true)

	v.SetEnvPrefix("MDEDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func getDocumentPath() DocumentPath { return "" }

func getLoader() (*config.Loader, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.NewLoader("mdedit", "yaml", os.DirFS(cwd)), nil
}

func getConfig(loader *config.Loader, path DocumentPath, viper *viper.Viper) (*config.Config, error) {
	chain, err := loader.FindConfigChain(string(path))
	if err != nil {
		return nil, err
	}
	for _, data := range chain {
		if err := viper.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, errors.Wrap(err, "failed to merge config")
		}
	}

	// As viper does not offer writing config to a writer,
	// the workaround is to create a in-memory file system,
	// set it in viper, and write the config to it.
	// Finally, a deferred cleanup function is called
	// which brings back the OS file system.
	// Source: https://github.com/spf13/viper/issues/856
	memFS := afero.NewMemMapFs()

	viper.SetFs(memFS)
	defer viper.SetFs(afero.NewOsFs())

	if err := viper.WriteConfigAs("/config.yaml"); err != nil {
		return nil, errors.WithStack(err)
	}

	content, err := afero.ReadFile(memFS, "/config.yaml")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return config.ParseYAML(content)
}

func getLogger(c *config.Config) (*zap.Logger, error) {
	if c == nil || !c.LogEnabled {
		return zap.NewNop(), nil
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if c.LogVerbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if c.LogPath != "" {
		zapConfig.OutputPaths = []string{c.LogPath}
		zapConfig.ErrorOutputPaths = []string{c.LogPath}
	}

	l, err := zapConfig.Build()
	return l, errors.WithStack(err)
}

func getNormalizer(c *config.Config, logger *zap.Logger) *clipboard.Normalizer {
	return clipboard.NewNormalizer(
		clipboard.WithLogger(logger.Named("clipboard")),
		clipboard.WithHeadingStyle(c.HeadingStyle),
		clipboard.WithBulletListMarker(c.BulletListMarker),
		clipboard.WithCodeBlockStyle(c.CodeBlockStyle),
	)
}

func getSessionFactory(c *config.Config, logger *zap.Logger, normalizer *clipboard.Normalizer) SessionFactory {
	return func(opts ...editor.Option) *editor.Session {
		opts = append([]editor.Option{
			editor.WithLogger(logger.Named("editor")),
			editor.WithNormalizer(normalizer),
			editor.WithTabSize(c.TabSize),
			editor.WithBulletListMarker(c.BulletListMarker),
		}, opts...)
		return editor.NewSession(opts...)
	}
}
