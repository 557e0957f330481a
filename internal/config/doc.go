// Package config loads csb-publish settings.
//
// Settings come from, in increasing priority: built-in defaults, the
// optional .csb-publish.yaml file in the template root, CSB_PUBLISH_*
// environment variables, and command-line flags. Layering is handled by
// github.com/spf13/viper; the file format is YAML (gopkg.in/yaml.v3 is used
// to write the default file).
package config
