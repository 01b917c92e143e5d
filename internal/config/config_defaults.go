package config

import (
	_ "embed"
)

//go:embed mdedit.default.yaml
var defaultYAML []byte

var (
	defaults         Config
	defaultsVersion1 configV1alpha1
)

func init() {
	var cfg configV1alpha1
	if err := parseYAMLv1alpha1(defaultYAML, &cfg); err != nil {
		panic(err)
	}
	if err := validateV1alpha1(&cfg); err != nil {
		panic(err)
	}

	defaultsVersion1 = cfg
	defaults = *configV1alpha1ToConfig(&cfg)
}

func defaultsV1alpha1() *configV1alpha1 {
	cfg := defaultsVersion1
	return &cfg
}
