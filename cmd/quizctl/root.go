package main

import (
	"context"
	"fmt"
	"time"

	"quizsystem"

	"github.com/spf13/cobra"
)

// app carries state shared by every subcommand
type app struct {
	configPath string
	verbose    bool
	dbDriver   string
	dbDSN      string

	cfg quizsystem.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "quizctl",
		Short: "Generate question banks from study documents and practice them",
		Long: `quizctl generates question banks from plain-text study documents with an
AI provider, stores them, and runs practice quizzes with AI or offline grading.`,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return quizsystem.CloseLogFile()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&a.dbDriver, "db-driver", "", "database driver (sqlite or postgres)")
	cmd.PersistentFlags().StringVar(&a.dbDSN, "db", "", "database DSN (sqlite file path or postgres URL)")

	cmd.AddCommand(newGenerateCmd(a), newBanksCmd(a), newPlayCmd(a), newBrowseCmd(a))
	return cmd
}

const rootCmdExample = `  # Generate 10 questions from a document with the offline mock provider
  quizctl generate --file notes.txt --bank "Networking basics"

  # Generate with OpenAI and only choice questions
  quizctl generate --file ch1.txt --file ch2.txt --provider openai --types single_choice,multiple_choice

  # List stored banks
  quizctl banks list

  # Take a 5 question practice quiz
  quizctl play <bank-id> --count 5

  # Scroll through a bank in the terminal
  quizctl browse <bank-id>`

func (a *app) setup() error {
	cfg, err := quizsystem.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.dbDriver != "" {
		cfg.DBDriver = quizsystem.Driver(a.dbDriver)
	}
	if a.dbDSN != "" {
		cfg.DBDSN = a.dbDSN
	}
	if err := quizsystem.InitLogger(cfg.Logging.Options()); err != nil {
		return err
	}
	quizsystem.SetVerbose(a.verbose || cfg.Logging.Level == "debug")
	a.cfg = cfg
	return nil
}

// openDB opens the configured store and makes sure its tables exist
func (a *app) openDB(ctx context.Context) (*quizsystem.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := quizsystem.OpenDB(ctx, a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare database: %w", err)
	}
	return db, nil
}

// completer returns the AI client for cfg, or nil for the mock provider
func completer(cfg quizsystem.AIConfig) (quizsystem.Completer, error) {
	if cfg.Provider == quizsystem.ProviderMock {
		return nil, nil
	}
	return quizsystem.NewAIClient(cfg)
}
