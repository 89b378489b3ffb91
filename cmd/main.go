package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/gemeos-pipeline/internal/app"
	"github.com/yungbote/gemeos-pipeline/internal/data/db"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/bus"
	"github.com/yungbote/gemeos-pipeline/internal/platform/gcp"
)

var (
	payloadFlag string
	topicFlag   string
)

var rootCmd = &cobra.Command{
	Use:           "gemeos-pipeline",
	Short:         "Guidance-driven extraction pipeline for educational content",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stage trigger routes over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Start(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		errCh := make(chan error, 1)
		go func() { errCh <- a.Run(":" + a.Cfg.Port) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			a.Log.Info("Shutting down")
			return nil
		}
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <stage>",
	Short: "Run one stage on a JSON payload (--payload or stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := readPayload(payloadFlag, cmd.InOrStdin())
		if err != nil {
			return err
		}
		env, err := trigger.Encode("cli", args[0], payload, nil)
		if err != nil {
			return err
		}
		tr, err := env.Message.Decode()
		if err != nil {
			return err
		}

		a, err := app.New()
		if err != nil {
			return err
		}
		defer a.Close()

		out := a.Dispatcher.Dispatch(cmd.Context(), args[0], tr)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Body); err != nil {
			return err
		}
		if !out.OK() {
			return fmt.Errorf("stage %s: status %d (%s)", args[0], out.Status, out.Code)
		}
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <stage>",
	Short: "Publish a trigger for a stage onto the configured bus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		payload, err := readPayload(payloadFlag, cmd.InOrStdin())
		if err != nil {
			return err
		}
		cfg, err := app.LoadConfig(log)
		if err != nil {
			return err
		}
		p, err := orchestrator.Load(cfg.PipelineSpecPath)
		if err != nil {
			return err
		}
		topic := topicFlag
		if topic == "" {
			topic = topicFor(p, args[0])
		}
		if topic == "" {
			return fmt.Errorf("no follow-up topic targets %q; pass --topic", args[0])
		}

		b, err := bus.New(log)
		if err != nil {
			return err
		}
		defer b.Close()
		env, err := trigger.Encode(topic, args[0], payload, nil)
		if err != nil {
			return err
		}
		if err := b.Publish(cmd.Context(), topic, env); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), env.Message.MessageID)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()
		cfg, err := app.LoadConfig(log)
		if err != nil {
			return err
		}
		pg, err := db.NewPostgresService(log)
		if err != nil {
			return err
		}
		defer pg.Close()
		return pg.AutoMigrateAll(db.MigrateOptions{ConceptUniqueIndex: cfg.ConceptUniqueIndex})
	},
}

var guidanceCmd = &cobra.Command{
	Use:   "guidance",
	Short: "Inspect guidance bundles",
}

var guidanceListCmd = &cobra.Command{
	Use:   "list <domain-slug>",
	Short: "List guidance objects stored for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()
		cfg, err := app.LoadConfig(log)
		if err != nil {
			return err
		}
		blobs, err := gcp.NewBlobStore(log)
		if err != nil {
			return err
		}
		defer blobs.Close()
		names, err := blobs.ListNames(cmd.Context(), cfg.GuidanceBucket, strings.TrimSpace(args[0])+"/guidance/")
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

// topicFor finds the topic an upstream stage publishes to reach stage.
func topicFor(p *orchestrator.Pipeline, stage string) string {
	for _, id := range p.Order() {
		st, _ := p.Stage(id)
		for _, e := range st.FollowUps() {
			if e.Stage == stage {
				return e.Topic
			}
		}
	}
	return ""
}

func readPayload(flag string, stdin io.Reader) (map[string]any, error) {
	raw := []byte(flag)
	if strings.TrimSpace(flag) == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		raw = b
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("payload must be a JSON object")
	}
	return payload, nil
}

func init() {
	for _, c := range []*cobra.Command{dispatchCmd, publishCmd} {
		c.Flags().StringVarP(&payloadFlag, "payload", "p", "", "JSON payload (read from stdin when empty)")
	}
	publishCmd.Flags().StringVar(&topicFlag, "topic", "", "topic to publish on (defaults to the pipeline's follow-up topic for the stage)")
	guidanceCmd.AddCommand(guidanceListCmd)
	rootCmd.AddCommand(serveCmd, dispatchCmd, publishCmd, migrateCmd, guidanceCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
