package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/eventsvc/internal/client"
	"github.com/spf13/cobra"
)

var emitCmd = &cobra.Command{
	Use:     "emit <message>",
	Short:   "Submit an event",
	GroupID: "events",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := eventsClient.CreateEvent(context.Background(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("creating event: %w", err)
		}
		if jsonOutput {
			return printJSON(out)
		}
		fmt.Printf("Created event %s at %s\n", out.ID, out.Timestamp)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the most recent events",
	GroupID: "events",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := eventsClient.ListEvents(context.Background())
		if err != nil {
			if client.IsUnavailable(err) {
				return fmt.Errorf("server has no database connection: %w", err)
			}
			return fmt.Errorf("listing events: %w", err)
		}
		if jsonOutput {
			return printJSON(rows)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEVENT ID\tCREATED\tMESSAGE")
		for _, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				r.ID,
				r.EventID,
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(r.Message, 60),
			)
		}
		w.Flush()
		fmt.Printf("\n%d events\n", len(rows))
		return nil
	},
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
