package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sko00o/plunger-kafka/cmd/plunger-kafka/cat"
	"github.com/sko00o/plunger-kafka/cmd/plunger-kafka/client"
	"github.com/sko00o/plunger-kafka/cmd/plunger-kafka/helper"
	"github.com/sko00o/plunger-kafka/cmd/plunger-kafka/put"
)

var (
	logger     = log.New()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:          "plunger-kafka",
	Short:        "Read and write Kafka topics line by line",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := helper.PersistentBindFlagConfigs(map[string][]string{
			"kafka-version": {"version"},
			"log-level":     {"log_level"},
		})(cmd, args); err != nil {
			return err
		}
		if err := helper.ReadConfigFile(configFile); err != nil {
			return err
		}

		level, err := log.ParseLevel(helper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("client", client.Names[0], "kafka client: kafka-go, sarama or confluent")
	flags.String("kafka-version", "", "set kafka version, sarama only (optional)")
	flags.String("log-level", log.WarnLevel.String(), "log level")
	flags.StringVar(&configFile, "config", "", "config file (optional)")

	rootCmd.AddCommand(
		cat.NewCommand(logger),
		put.NewCommand(logger),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
