package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"quizsystem"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	files       []string
	bank        string
	description string
	count       int
	types       []string
	difficulty  string
	provider    string
	apiKey      string
	baseURL     string
	model       string
	output      string
	noSave      bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a question bank from text documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, a, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.files, "file", "f", nil, "plain-text study document (repeatable)")
	cmd.Flags().StringVar(&opts.bank, "bank", "", "name of the bank to create (default: first file name)")
	cmd.Flags().StringVar(&opts.description, "description", "", "bank description")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 10, "number of questions")
	cmd.Flags().StringSliceVar(&opts.types, "types", nil, "question types (single_choice, multiple_choice, true_false, fill_blank, short_answer)")
	cmd.Flags().StringVar(&opts.difficulty, "difficulty", "medium", "difficulty level (easy, medium, hard)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "AI provider (openai, qwen, ernie, zhipu, mock)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "AI provider API key")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "override the provider base URL")
	cmd.Flags().StringVar(&opts.model, "model", "", "override the provider model")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also write the questions as JSON to this file")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not store the bank in the database")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (o generateOptions) questionConfig() (quizsystem.QuestionConfig, error) {
	cfg := quizsystem.QuestionConfig{
		BankName:   o.bank,
		Count:      o.count,
		Difficulty: o.difficulty,
	}
	for _, t := range o.types {
		qt := quizsystem.QuestionType(strings.TrimSpace(t))
		if !qt.Valid() {
			return cfg, fmt.Errorf("unknown question type %q", t)
		}
		cfg.Types = append(cfg.Types, qt)
	}
	if cfg.BankName == "" && len(o.files) > 0 {
		base := filepath.Base(o.files[0])
		cfg.BankName = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return cfg.Normalize(), nil
}

func readDocuments(paths []string) ([]quizsystem.UploadedFile, error) {
	files := make([]quizsystem.UploadedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, quizsystem.UploadedFile{Name: filepath.Base(p), Content: string(data)})
	}
	return files, nil
}

func runGenerate(cmd *cobra.Command, a *app, opts generateOptions) error {
	qcfg, err := opts.questionConfig()
	if err != nil {
		return err
	}
	files, err := readDocuments(opts.files)
	if err != nil {
		return err
	}
	aiCfg := a.cfg.AI.Merge(quizsystem.AIConfig{
		Provider:      quizsystem.Provider(opts.provider),
		APIKey:        opts.apiKey,
		CustomBaseURL: opts.baseURL,
		Model:         opts.model,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	svc := quizsystem.NewGenerationService(a.cfg.Generation,
		quizsystem.WithTranscriptDir(a.cfg.Logging.TranscriptDir))
	defer svc.Cleanup()

	id, err := svc.StartGeneration(files, qcfg, aiCfg)
	if err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "⏳ Generating %d questions with %s (generation %s)\n", qcfg.Count, aiCfg.Provider, id)

	st, err := waitForGeneration(ctx, svc, id, func(progress string) {
		fmt.Fprintf(out, "   %s\n", progress)
	})
	if err != nil {
		return err
	}
	if st.Error != "" {
		return errors.New(st.Error)
	}
	fmt.Fprintf(out, "✅ Generated %d questions\n", len(st.Questions))

	if opts.output != "" {
		data, err := json.MarshalIndent(st.Questions, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal questions: %w", err)
		}
		if err := os.WriteFile(opts.output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(out, "📄 Questions saved to: %s\n", opts.output)
	}

	if opts.noSave {
		return nil
	}
	bank, err := quizsystem.NewQuestionBank(qcfg.BankName, opts.description, st.Questions)
	if err != nil {
		return err
	}
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.CreateBank(ctx, bank); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", bank.ID)
	fmt.Fprintf(out, "📚 Bank %q stored with %d questions\n", bank.Name, len(bank.Questions))
	return nil
}

// waitForGeneration polls until generation id finishes, reporting each new
// progress message. Cancelling ctx cancels the generation.
func waitForGeneration(ctx context.Context, svc *quizsystem.GenerationService, id string, onProgress func(string)) (quizsystem.GenerationStatus, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	last := ""
	for {
		st := svc.Status(id)
		if st.Progress != last && st.IsGenerating {
			last = st.Progress
			onProgress(last)
		}
		if !st.IsGenerating {
			return st, nil
		}

		select {
		case <-ctx.Done():
			svc.CancelGeneration(id)
			return svc.Status(id), ctx.Err()
		case <-ticker.C:
		}
	}
}
