package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	sk "github.com/sko00o/plunger-kafka"
	"github.com/sko00o/plunger-kafka/command"
	kafkagoconsumer "github.com/sko00o/plunger-kafka/consumer/kafkago"
	kafkagoproducer "github.com/sko00o/plunger-kafka/producer/kafkago"
)

/*

# create topic first

bin/kafka-topics.sh --create \
	--topic test_topic \
	--replication-factor 1 \
	--partitions 3 \
	--bootstrap-server 127.0.0.1:9092

*/

const (
	kfkServer = "127.0.0.1:9092"
	topic     = "test_topic"
)

func main() {
	kfk := flag.String("kfk", kfkServer, "set kafka host:port here")
	tpc := flag.String("tpc", topic, "set topic here")
	n := flag.Int64("n", 3, "messages to send and read back")
	flag.Parse()

	log.SetLevel(log.DebugLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	target := fmt.Sprintf("kafka://%s/%s?timeout=5s&maxPollRecords=%d", *kfk, *tpc, *n)
	t, err := command.ParseTarget(target)
	if err != nil {
		log.Fatal(err)
	}
	args := command.Arguments{Target: t, Limit: *n, Commit: true}

	var lines strings.Builder
	for i := int64(0); i < *n; i++ {
		fmt.Fprintf(&lines, "{\"kafka.key\":\"%d\",\"sent\":\"%s\"}\tmessage %d\n", i, time.Now().Format(time.RFC3339Nano), i)
	}

	put := sk.NewPutCommand(func(c sk.ProducerConfig) (sk.Producer, error) {
		return kafkagoproducer.New(c, kafkagoproducer.WithLogger(log.StandardLogger()))
	}, log.StandardLogger())
	sent, err := command.RunPut(ctx, log.StandardLogger(), put, args, strings.NewReader(lines.String()))
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("sent %d messages", sent)

	cat := sk.NewCatCommand(func(c sk.ConsumerConfig) (sk.Consumer, error) {
		return kafkagoconsumer.New(c, kafkagoconsumer.WithLogger(log.StandardLogger()))
	}, log.StandardLogger())
	read, err := command.RunCat(ctx, log.StandardLogger(), cat, args, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("read %d messages", read)
}
