package helper

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type (
	CobraRunE func(cmd *cobra.Command, args []string) error
	ctxRun    func(ctx context.Context, cmd *cobra.Command, args []string) error
)

type ConfigUnmarshaler interface {
	Unmarshal(interface{}, ...viper.DecoderConfigOption) error
}

const (
	ConfigKeyDelimiter = `\`
	FlagKeyDelimiter   = "."
)

var (
	allConfig = viper.NewWithOptions(
		viper.KeyDelimiter(ConfigKeyDelimiter),
	)
)

func BindFlagConfigs(flagConfigs map[string][]string) CobraRunE {
	return func(cmd *cobra.Command, _ []string) error {
		for f, c := range flagConfigs {
			if err := BindPFlagGetter(
				ConfigKey(c...),
				CommandFlag(cmd, f),
			); err != nil {
				return err
			}
		}

		return nil
	}
}

func PersistentBindFlagConfigs(flagConfigs map[string][]string) CobraRunE {
	return func(cmd *cobra.Command, _ []string) error {
		if err := BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("bind pflags: %w", err)
		}

		for f, c := range flagConfigs {
			if err := BindPFlagGetter(
				ConfigKey(c...),
				CommandFlag(cmd, f),
			); err != nil {
				return err
			}
		}

		return nil
	}
}

// ReadConfigFile merges a config file into the flag configuration. Flags
// given on the command line win over the file.
func ReadConfigFile(path string) error {
	if path == "" {
		return nil
	}
	allConfig.SetConfigFile(path)
	if err := allConfig.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func GetString(key string) string {
	return allConfig.GetString(key)
}

func BindPFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not found", key)
	}
	return allConfig.BindPFlag(key, flag)
}

func BindPFlags(flags *pflag.FlagSet) (err error) {
	flags.VisitAll(func(flag *pflag.Flag) {
		if err != nil {
			return
		}
		vKeyName := strings.ReplaceAll(
			flag.Name,
			FlagKeyDelimiter,
			ConfigKeyDelimiter,
		)
		err = BindPFlag(vKeyName, flag)
	})

	return err
}

type (
	KeyGetter  func() string
	FlagGetter func() *pflag.Flag
)

func BindPFlagGetter(key KeyGetter, flag FlagGetter) error {
	return BindPFlag(key(), flag())
}

func ConfigKey(args ...string) func() string {
	return func() string {
		return strings.Join(args, ConfigKeyDelimiter)
	}
}

func CommandFlag(cmd *cobra.Command, flagName string) func() *pflag.Flag {
	return func() *pflag.Flag {
		if cmd == nil {
			return nil
		}
		return cmd.Flags().Lookup(flagName)
	}
}

type Logger interface {
	Info(args ...interface{})
	Infof(tmpl string, args ...interface{})
	Errorf(tmpl string, args ...interface{})
}

func RunFunc(log Logger, f func(ctx context.Context, cfg ConfigUnmarshaler, args []string) error) CobraRunE {
	return elegantQuit(log, func(ctx context.Context, _ *cobra.Command, args []string) error {
		return f(ctx, allConfig, args)
	})
}

// elegantQuit cancels the run on the first stop signal and gives up
// waiting for it on the second.
func elegantQuit(log Logger, fn ctxRun) CobraRunE {
	if log == nil {
		log = &NoLog{}
	}

	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		quit := make(chan error, 1)
		go func() {
			quit <- fn(ctx, cmd, args)
		}()

		var willQuit bool
		for {
			select {
			case err := <-quit:
				if err != nil {
					return err
				}

				if willQuit {
					log.Info("stopped")
				}
				return nil
			case s := <-sig:
				if !willQuit {
					cancel()
					willQuit = true
					log.Infof("receive stop signal %v", s)
					continue
				}

				log.Info("force stopped")
				return fmt.Errorf("force stopped by signal %v", s)
			}
		}
	}
}

type NoLog struct {
}

func (n NoLog) Info(_ ...interface{}) {
}

func (n NoLog) Infof(_ string, _ ...interface{}) {
}

func (n NoLog) Errorf(_ string, _ ...interface{}) {
}
