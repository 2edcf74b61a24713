package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/client"
	"github.com/alfredjeanlab/eventsvc/internal/model"
	"github.com/alfredjeanlab/eventsvc/internal/ui"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of a running event service",
	GroupID: "server",
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		grpcAddr, _ := cmd.Flags().GetString("grpc")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if grpcAddr != "" {
			return grpcHealth(ctx, grpcAddr)
		}

		hs, err := eventsClient.Health(ctx)
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		if jsonOutput {
			data, err := json.MarshalIndent(hs, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
		} else {
			fmt.Printf("Status:      %s\n", hs.Status)
			fmt.Printf("Database:    %s\n", colorDatabase(hs.Database))
			fmt.Printf("Environment: %s\n", hs.Environment)
			fmt.Printf("Version:     %s\n", hs.Version)
		}

		if hs.Status != "ok" {
			return fmt.Errorf("unhealthy: %s", hs.Status)
		}
		if strict && hs.Database != model.DatabaseUp {
			return fmt.Errorf("database %s", hs.Database)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Bool("strict", false, "fail unless the database is up")
	healthCmd.Flags().String("grpc", "", "check the gRPC health service at this address instead of HTTP")
	healthCmd.Flags().Duration("timeout", 10*time.Second, "request timeout")
}

func grpcHealth(ctx context.Context, addr string) error {
	hc, err := client.NewHealthChecker(addr)
	if err != nil {
		return err
	}
	defer hc.Close()

	st, err := hc.Check(ctx, "")
	if err != nil {
		return err
	}
	if jsonOutput {
		data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(&healthpb.HealthCheckResponse{Status: st})
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("gRPC health: %s\n", st)
	}
	if st != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("not serving: %s", st)
	}
	return nil
}

func colorDatabase(s model.DatabaseStatus) string {
	if !ui.ShouldUseColor(os.Stdout) {
		return s.String()
	}
	code := "33" // yellow
	switch s {
	case model.DatabaseUp:
		code = "32"
	case model.DatabaseDown:
		code = "31"
	}
	return "\x1b[" + code + "m" + s.String() + "\x1b[0m"
}
