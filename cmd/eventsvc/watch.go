package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alfredjeanlab/eventsvc/internal/events"
	"github.com/alfredjeanlab/eventsvc/internal/model"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Print events as they are created",
	Long: `Print events as they are created.

With --nats (or NATS_URL) the command subscribes to the broker topic directly.
Otherwise it follows the server's /api/events/stream feed.`,
	GroupID: "events",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		topic, _ := cmd.Flags().GetString("topic")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if natsURL != "" {
			return watchNATS(ctx, natsURL, topic)
		}
		return eventsClient.StreamEvents(ctx, 0, func(seq uint64, evt model.Event) {
			printEvent(evt)
		})
	},
}

func init() {
	topic := os.Getenv("PUBSUB_TOPIC")
	if topic == "" {
		topic = events.TopicEventCreated
	}
	watchCmd.Flags().String("nats", os.Getenv("NATS_URL"), "NATS server URL to subscribe to")
	watchCmd.Flags().String("topic", topic, "subject to subscribe to (NATS wildcards allowed)")
}

func watchNATS(ctx context.Context, url, topic string) error {
	sub, err := events.NewNATSSubscriber(url)
	if err != nil {
		return err
	}
	defer sub.Close()

	fmt.Fprintf(os.Stderr, "Watching %s on %s (Ctrl-C to stop)\n", topic, url)
	return sub.Watch(ctx, topic, func(subject string, data []byte) {
		var evt model.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			fmt.Fprintf(os.Stderr, "skipping undecodable message on %s: %v\n", subject, err)
			return
		}
		printEvent(evt)
	})
}

func printEvent(evt model.Event) {
	if jsonOutput {
		data, _ := json.Marshal(evt)
		fmt.Println(string(data))
		return
	}
	fmt.Printf("%s  %s  [%s]  %s\n",
		evt.Timestamp.Local().Format("15:04:05"),
		evt.ID,
		evt.Environment,
		truncate(evt.Message, 80),
	)
}
