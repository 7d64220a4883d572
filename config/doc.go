// Package config loads the process configuration: a YAML file read via
// viper, overlaid with PLANTOPS_* environment variables, with strict
// ${VAR} expansion for source DSNs so credentials never live in the
// file itself.
package config
