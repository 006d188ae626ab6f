package cat

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sk "github.com/sko00o/plunger-kafka"
	"github.com/sko00o/plunger-kafka/cmd/plunger-kafka/client"
	"github.com/sko00o/plunger-kafka/cmd/plunger-kafka/helper"
	"github.com/sko00o/plunger-kafka/command"
)

func NewCommand(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <target>",
		Short: "Print messages of a topic, one per line",
		Example: "  plunger-kafka cat 'kafka://localhost:9092/orders?maxPollRecords=100' -n 100 -r\n" +
			"  plunger-kafka cat 'kafka://localhost:9092/orders?autoOffsetReset=latest&timeout=5s'",
		Args: cobra.ExactArgs(1),
		PreRunE: helper.BindFlagConfigs(map[string][]string{
			"limit":              {"limit"},
			"exclude-properties": {"exclude_properties"},
			"commit":             {"commit"},
			"hide-system":        {"hide_system"},
		}),
		RunE: helper.RunFunc(logger, func(ctx context.Context, c helper.ConfigUnmarshaler, args []string) error {
			var opts helper.Options
			if err := c.Unmarshal(&opts); err != nil {
				return err
			}
			logger.Debugf("options: %+v", opts)

			arguments, err := opts.Arguments(args[0])
			if err != nil {
				return err
			}
			factory, err := client.ConsumerFactory(opts.Client, opts.Version, logger)
			if err != nil {
				return err
			}

			count, err := command.RunCat(ctx, logger, sk.NewCatCommand(factory, logger), arguments, os.Stdout)
			logger.Infof("read %d messages from %s", count, arguments.Target.Destination)
			return err
		}),
	}

	flags := cmd.Flags()
	flags.Int64P("limit", "n", 0, "stop after this many messages (0 means until no message arrives in time)")
	flags.BoolP("exclude-properties", "p", false, "print message bodies only")
	flags.BoolP("commit", "r", false, "commit consumed offsets of the group")
	flags.Bool("hide-system", false, "do not print kafka.* properties")

	return cmd
}
