package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/TweetPulse/internal/auth"
	"github.com/TobiSchelling/TweetPulse/internal/collect"
	"github.com/TobiSchelling/TweetPulse/internal/config"
	"github.com/TobiSchelling/TweetPulse/internal/database"
	"github.com/TobiSchelling/TweetPulse/internal/logging"
	"github.com/TobiSchelling/TweetPulse/internal/pipeline"
	"github.com/TobiSchelling/TweetPulse/internal/scheduler"
	"github.com/TobiSchelling/TweetPulse/internal/sentiment"
	"github.com/TobiSchelling/TweetPulse/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "tweetpulse",
	Short:   "Tweet sentiment classifier and dashboard",
	Long:    "TweetPulse classifies tweets as positive, negative or neutral and serves a sentiment dashboard.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logging.InitLogger(logLevel("info"), "text")
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}

		logging.InitLogger(logLevel(cfg.Logging.Level), cfg.Logging.Format)
		return nil
	},
}

// logLevel lets --verbose override the configured level.
func logLevel(configured string) string {
	if verbose {
		return "debug"
	}
	return configured
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(usersCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tweetpulse", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/tweetpulse/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your dataset and model artifacts.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and model status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		c := stats.Sentiment
		fmt.Println("Tweets:")
		fmt.Printf("  Total: %d\n", c.All)
		fmt.Printf("  Positive: %d (%.1f%%)\n", c.Positive, c.Percent(c.Positive))
		fmt.Printf("  Negative: %d (%.1f%%)\n", c.Negative, c.Percent(c.Negative))
		fmt.Printf("  Neutral: %d (%.1f%%)\n", c.Neutral, c.Percent(c.Neutral))
		fmt.Println("\nDashboard:")
		fmt.Printf("  Users: %d\n", stats.Users)
		fmt.Printf("  Feedback: %d\n", stats.Feedback)
		fmt.Println("\nIngest:")
		fmt.Printf("  Runs: %d\n", stats.IngestRuns)
		if run := stats.LastRun; run != nil {
			loc := cfg.Location()
			fmt.Printf("  Last run: %s (%s, %s)\n",
				run.FinishedAt.In(loc).Format("2006-01-02 15:04 MST"), run.Trigger,
				run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
			fmt.Printf("  Stored: %d, skipped rows: %d\n", run.Stored, run.Skipped)
		}
		fmt.Println("\nModel:")
		fmt.Printf("  Vectorizer: %s\n", cfg.GetVectorizerPath())
		fmt.Printf("  Classifier: %s\n", cfg.GetClassifierPath())
		scorer, err := loadScorer()
		if err != nil {
			fmt.Printf("  Not loadable: %v\n", err)
			return nil
		}
		fmt.Printf("  Vocabulary: %d terms\n", scorer.Vocabulary())
		fmt.Printf("  Classes: %v\n", scorer.Classes())
		return nil
	},
}

// --- ingest command ---

var dryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Collect, classify and store tweets: collect -> classify -> store",
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := loadScorer()
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(collect.NewCollector(cfg), scorer, db)
		ctx := cmd.Context()

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(ctx)
		} else {
			result = pipe.Run(ctx, pipeline.TriggerCLI)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/3: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if err := result.Err(); err != nil {
			return err
		}

		d := result.Distribution
		if d.Total > 0 {
			fmt.Println("\nSentiment:")
			for _, l := range sentiment.Labels {
				fmt.Printf("  %s: %d (%.1f%%)\n", l, d.Counts[l], d.Percent(l))
			}
		}
		if !dryRun {
			fmt.Println("\nIngest complete! Run 'tweetpulse serve' to view the dashboard.")
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Collect and classify without storing")
}

// --- classify command ---

var classifyCmd = &cobra.Command{
	Use:   "classify <text...>",
	Short: "Classify a text and print its sentiment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := loadScorer()
		if err != nil {
			return err
		}
		label, err := scorer.Classify(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(label)

		if verbose {
			scores, err := scorer.Scores(strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, l := range scorer.Classes() {
				fmt.Printf("  %s: %.4f\n", l, scores[l])
			}
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard and prediction server",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The model must load before anything is served.
		scorer, err := loadScorer()
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(collect.NewCollector(cfg), scorer, db)
		srv, err := server.New(cfg, db, scorer, pipe)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if spec := cfg.Dataset.RefreshCron; spec != "" {
			sched, err := scheduler.New(cfg.Display.Timezone)
			if err != nil {
				return err
			}
			err = sched.Schedule(spec, func() {
				if _, err := pipe.Refresh(ctx, pipeline.TriggerCron); err != nil {
					logging.WithError(err).Error("scheduled refresh failed")
				}
			})
			if err != nil {
				return err
			}
			sched.Start()
			slog.Info("scheduled refresh enabled", "cron", spec, "next", sched.Next())
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				sched.Stop(stopCtx)
			}()
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(port))

		fmt.Printf("Starting server at http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- users command ---

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage dashboard accounts",
}

var (
	userEmail    string
	userName     string
	userPassword string
)

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a dashboard account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		user, err := auth.NewService(db).Register(auth.RegisterForm{
			Email:    userEmail,
			Name:     userName,
			Password: userPassword,
			Confirm:  userPassword,
		})
		var fieldErrs auth.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			return fmt.Errorf("invalid account details: %w", fieldErrs)
		case errors.Is(err, auth.ErrEmailTaken):
			return fmt.Errorf("email %s is already registered", userEmail)
		case err != nil:
			return err
		}

		fmt.Printf("Added user [%d]: %s <%s>\n", user.ID, user.Name, user.Email)
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&userEmail, "email", "", "Account email")
	usersAddCmd.Flags().StringVar(&userName, "name", "", "Display name")
	usersAddCmd.Flags().StringVar(&userPassword, "password", "", "Password (6-25 characters)")
	_ = usersAddCmd.MarkFlagRequired("email")
	_ = usersAddCmd.MarkFlagRequired("name")
	_ = usersAddCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersAddCmd)
}

func loadScorer() (*sentiment.Scorer, error) {
	scorer, err := sentiment.Load(cfg.GetVectorizerPath(), cfg.GetClassifierPath())
	if err != nil {
		if errors.Is(err, sentiment.ErrArtifactLoad) {
			return nil, fmt.Errorf("%w (set model.vectorizer_path and model.classifier_path)", err)
		}
		return nil, err
	}
	return scorer, nil
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.GetDatabasePath())
}
