package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// optionsFile mirrors the conf/options.yaml layout used by earlier
// versions of the audit.
type optionsFile struct {
	F5 struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Request  string `yaml:"request"`
		Deadline string `yaml:"deadline"`
	} `yaml:"f5"`
	Certs struct {
		Flagged []string `yaml:"flagged"`
		Exclude []string `yaml:"exclude"`
	} `yaml:"certs"`
}

// mergeOptionsFile fills values missing from flags and envs with the
// ones found in the YAML file at path. Options with a built-in default
// are overridden unless explicit reports them as passed.
func (c *AppConfig) mergeOptionsFile(path string, explicit func(longName string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read options file: %w", err)
	}

	var opts optionsFile
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return fmt.Errorf("%w: failed to parse options file: %v", ErrInvalidConfig, err)
	}

	if c.F5.Host == "" {
		c.F5.Host = opts.F5.Host
	}
	if !explicit("f5.port") && opts.F5.Port != 0 {
		c.F5.Port = opts.F5.Port
	}
	if c.F5.User == "" {
		c.F5.User = opts.F5.User
	}
	if !explicit("f5.request") && opts.F5.Request != "" {
		c.F5.Request = opts.F5.Request
	}
	if c.Policy.Deadline.IsZero() && opts.F5.Deadline != "" {
		deadline, err := ParseDate(opts.F5.Deadline)
		if err != nil {
			return err
		}
		c.Policy.Deadline = deadline
	}
	if len(c.Policy.Flagged) == 0 {
		c.Policy.Flagged = opts.Certs.Flagged
	}
	if len(c.Policy.Exclude) == 0 {
		c.Policy.Exclude = opts.Certs.Exclude
	}

	return nil
}
