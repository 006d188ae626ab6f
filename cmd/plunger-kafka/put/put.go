package put

import (
	"context"
	"fmt"
	"io"
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
		Use:   "put <target>",
		Short: "Send lines read from stdin or a file as messages to a topic",
		Example: "  echo '{\"kafka.key\":\"42\"}\thello' | plunger-kafka put kafka://localhost:9092/orders\n" +
			"  plunger-kafka put 'kafka://localhost:9092/orders?key=fixed' -f messages.txt --acks 1",
		Args: cobra.ExactArgs(1),
		PreRunE: helper.BindFlagConfigs(map[string][]string{
			"limit": {"limit"},
			"acks":  {"acks"},
			"file":  {"file"},
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
			factory, err := client.ProducerFactory(opts.Client, opts.Version, logger)
			if err != nil {
				return err
			}

			in, closeInput, err := openInput(opts.File)
			if err != nil {
				return err
			}
			defer closeInput()

			count, err := command.RunPut(ctx, logger, sk.NewPutCommand(factory, logger), arguments, in)
			logger.Infof("sent %d messages to %s", count, arguments.Target.Destination)
			return err
		}),
	}

	flags := cmd.Flags()
	flags.Int64P("limit", "n", 0, "stop after this many messages (0 means all input)")
	flags.String("acks", sk.AcksAll, "acknowledgements to wait for: all, 1 or 0")
	flags.StringP("file", "f", "", "read messages from this file instead of stdin")

	return cmd
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
