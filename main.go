package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/narration"
	"reddit-reads-pipeline/pipeline"
	"reddit-reads-pipeline/render"
	"reddit-reads-pipeline/research"
	"reddit-reads-pipeline/scheduler"
	"reddit-reads-pipeline/upload"
)

var (
	configPath string
	cfg        *config.Config
)

func main() {
	root := &cobra.Command{
		Use:   "reddit-reads-pipeline",
		Short: "Automated Reddit story shorts: scrape, narrate, caption, render, upload",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; real deployments set the environment directly
			_ = godotenv.Load()
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			return cfg.EnsureDirs()
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "config file path")

	root.AddCommand(generateCmd(), batchCmd(), serveCmd(), uploadCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	var opts pipeline.Options
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a single video",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := buildOrchestrator()
			if err != nil {
				return err
			}
			res := orch.Generate(signalContext(), opts)
			if !res.Success {
				return fmt.Errorf("generation failed: %s", res.Error)
			}
			log.Printf("🎉 Done: %s", res.VideoPath)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.Subreddits, "subreddit", nil, "subreddits to scrape (overrides config)")
	cmd.Flags().StringVar(&opts.Background, "background", "", "background video file")
	cmd.Flags().StringVar(&opts.Music, "music", "", "background music file")
	cmd.Flags().StringVar(&opts.IntroImage, "intro", "", "intro overlay image")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "output directory (overrides config)")
	return cmd
}

func batchCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate several videos back to back",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := buildOrchestrator()
			if err != nil {
				return err
			}
			ctx := signalContext()
			made := 0
			for i := 1; i <= count; i++ {
				log.Printf("🎬 Batch video %d/%d", i, count)
				res := orch.Generate(ctx, pipeline.Options{})
				if res.Success {
					made++
					continue
				}
				log.Printf("⚠️  Video %d failed: %s", i, res.Error)
			}
			log.Printf("🎉 Batch done: %d/%d succeeded", made, count)
			if made == 0 {
				return fmt.Errorf("all %d generations failed", count)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 3, "number of videos to generate")
	return cmd
}

func serveCmd() *cobra.Command {
	var startNow, uploadNow bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daily generate-and-upload scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the scheduler runs unattended for weeks; keep rotating logs
			log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   filepath.Join(cfg.Paths.Logs, "scheduler.log"),
				MaxSize:    10, // MB
				MaxBackups: 5,
				MaxAge:     30, // days
				Compress:   true,
			}))

			orch, err := buildOrchestrator()
			if err != nil {
				return err
			}
			sched, err := scheduler.New(cfg, orch, upload.New(cfg))
			if err != nil {
				return err
			}
			sched.StartImmediately = startNow
			sched.UploadImmediately = uploadNow
			return sched.Run(signalContext())
		},
	}
	cmd.Flags().BoolVar(&startNow, "now", false, "run the first cycle immediately instead of waiting for midnight")
	cmd.Flags().BoolVar(&uploadNow, "upload-now", false, "upload without spacing between videos")
	return cmd
}

func uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <pack-dir>",
		Short: "Upload every pending video in a daily pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packDir := args[0]
			m, err := scheduler.LoadManifest(packDir)
			if err != nil {
				return err
			}
			pending := m.Pending()
			if len(pending) == 0 {
				log.Println("✅ Nothing pending in", packDir)
				return nil
			}

			client := upload.New(cfg)
			ctx := signalContext()
			for _, rec := range pending {
				res, err := client.Upload(ctx, rec.VideoPath, rec.MetadataPath, cfg.Upload.PrivacyStatus)
				if err != nil {
					log.Printf("⚠️  Upload failed for %s: %v", rec.VideoPath, err)
					continue
				}
				rec.Uploaded = true
				rec.UploadedAt = time.Now().Format(time.RFC3339)
				rec.YouTubeID = res.VideoID
				rec.YouTubeURL = res.VideoURL
				if err := scheduler.SaveManifest(packDir, m); err != nil {
					return err
				}
				log.Printf("✅ Uploaded: %s", res.VideoURL)
			}
			return nil
		},
	}
	return cmd
}

// buildOrchestrator wires the full generation pipeline from config
func buildOrchestrator() (*pipeline.Orchestrator, error) {
	source, err := research.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init reddit client: %w", err)
	}
	narrator, err := narration.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("init narration: %w", err)
	}
	cache := research.OpenCache(cfg.Paths.StoryCache)
	return pipeline.New(cfg, source, narrator, render.New(cfg), cache), nil
}

// signalContext cancels on SIGINT/SIGTERM so ffmpeg children get reaped
func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}
