package helper

import (
	"fmt"

	sk "github.com/sko00o/plunger-kafka"
	"github.com/sko00o/plunger-kafka/command"
)

// Options is the flag and config file configuration shared by cat and put.
type Options struct {
	Client   string `mapstructure:"client"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`

	Limit             int64  `mapstructure:"limit"`
	ExcludeProperties bool   `mapstructure:"exclude_properties"`
	Commit            bool   `mapstructure:"commit"`
	HideSystem        bool   `mapstructure:"hide_system"`
	Acks              string `mapstructure:"acks"`
	File              string `mapstructure:"file"`
}

// Arguments validates the target and combines it with the options.
func (o Options) Arguments(rawTarget string) (command.Arguments, error) {
	t, err := command.ParseTarget(rawTarget)
	if err != nil {
		return command.Arguments{}, err
	}
	if t.Scheme != sk.Scheme {
		return command.Arguments{}, fmt.Errorf("target %s: unsupported scheme %q", rawTarget, t.Scheme)
	}
	if o.Limit < 0 {
		return command.Arguments{}, fmt.Errorf("limit must not be negative, got %d", o.Limit)
	}

	return command.Arguments{
		Target:            t,
		Limit:             o.Limit,
		ExcludeProperties: o.ExcludeProperties,
		Commit:            o.Commit,
		HideSystem:        o.HideSystem,
		Acks:              o.Acks,
	}, nil
}
