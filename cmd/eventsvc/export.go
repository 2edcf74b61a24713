package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/archive"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export recent events as JSONL to S3 and/or a git repository",
	GroupID: "server",
	// Reads the database directly; no API client needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Args:              cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, _ := cmd.Flags().GetString("s3-bucket")
		key, _ := cmd.Flags().GetString("s3-key")
		region, _ := cmd.Flags().GetString("s3-region")
		endpoint, _ := cmd.Flags().GetString("s3-endpoint")
		repo, _ := cmd.Flags().GetString("git-repo")
		file, _ := cmd.Flags().GetString("git-file")
		branch, _ := cmd.Flags().GetString("git-branch")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if bucket == "" && repo == "" {
			return fmt.Errorf("no destination: set --s3-bucket and/or --git-repo")
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if region == "" {
			region = cfg.SecretRegion
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var dests []archive.Destination
		if bucket != "" {
			d, err := archive.NewS3Destination(ctx, bucket, key, region, endpoint)
			if err != nil {
				return err
			}
			dests = append(dests, d)
		}
		if repo != "" {
			dests = append(dests, archive.NewGitDestination(repo, file, branch))
		}

		gateway := newGateway(ctx, cfg, logger)
		if err := gateway.Initialize(ctx); err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer gateway.Close()

		res, err := archive.Run(ctx, gateway, cfg.Environment, dests, logger)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d events (%d bytes) to %d destination(s)\n", res.Events, res.Bytes, len(dests))
		return nil
	},
}

func init() {
	exportCmd.Flags().String("s3-bucket", "", "S3 bucket to upload to")
	exportCmd.Flags().String("s3-key", "eventsvc/events.jsonl", "object key within the bucket")
	exportCmd.Flags().String("s3-region", "", "S3 region (defaults to SECRET_REGION)")
	exportCmd.Flags().String("s3-endpoint", "", "custom S3 endpoint (MinIO and similar)")
	exportCmd.Flags().String("git-repo", "", "path to a local clone to commit the export into")
	exportCmd.Flags().String("git-file", "events.jsonl", "file path within the git repository")
	exportCmd.Flags().String("git-branch", "main", "branch to commit and push to")
	exportCmd.Flags().Duration("timeout", 2*time.Minute, "overall export timeout")
}
