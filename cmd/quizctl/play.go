package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"quizsystem"

	"github.com/spf13/cobra"
)

type playOptions struct {
	count    int
	types    []string
	mode     string
	provider string
	apiKey   string
}

func newPlayCmd(a *app) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play <bank-id>",
		Short: "Take a quiz drawn from a stored bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, a, args[0], opts)
		},
	}
	cmd.Flags().IntVarP(&opts.count, "count", "n", 10, "number of questions (0 for all)")
	cmd.Flags().StringSliceVar(&opts.types, "types", nil, "only draw questions of these types")
	cmd.Flags().StringVar(&opts.mode, "mode", string(quizsystem.ModePractice), "quiz mode (practice shows answers as you go, exam only at the end)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "AI provider used to grade answers (mock grades offline)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "AI provider API key")
	return cmd
}

func runPlay(cmd *cobra.Command, a *app, bankID string, opts playOptions) error {
	ctx := cmd.Context()

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	bank, err := db.GetBank(ctx, bankID)
	if err != nil {
		return err
	}

	qcfg := quizsystem.QuizConfig{QuestionCount: opts.count, Mode: quizsystem.QuizMode(opts.mode)}
	for _, t := range opts.types {
		qcfg.QuestionTypes = append(qcfg.QuestionTypes, quizsystem.QuestionType(strings.TrimSpace(t)))
	}
	quiz, err := quizsystem.StartQuiz(bank, qcfg, nil)
	if err != nil {
		return err
	}

	ai, err := completer(a.cfg.AI.Merge(quizsystem.AIConfig{
		Provider: quizsystem.Provider(opts.provider),
		APIKey:   opts.apiKey,
	}))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🎯 Starting %s quiz on: %s\n", quiz.Mode, bank.Name)
	fmt.Fprintf(out, "📝 Questions: %d\n", len(quiz.Questions))
	fmt.Fprintln(out, "Press Enter on an empty line to skip a question.")
	fmt.Fprintln(out)

	if err := askQuestions(cmd.InOrStdin(), out, quiz); err != nil {
		return err
	}

	fmt.Fprintln(out, "⏳ Grading your answers...")
	ev, err := quizsystem.NewEvaluator(ai).EvaluateAnswers(ctx, quiz.Questions, quiz.Answers)
	if err != nil {
		return err
	}
	result := quizsystem.FinishQuiz(quiz, ev)
	if err := db.SaveResult(ctx, result); err != nil {
		return err
	}

	printResult(out, result)
	return nil
}

// askQuestions reads one answer per question from in. Input ending early
// leaves the remaining questions unanswered.
func askQuestions(in io.Reader, out io.Writer, quiz *quizsystem.Quiz) error {
	scanner := bufio.NewScanner(in)
	total := len(quiz.Questions)

	for i, q := range quiz.Questions {
		fmt.Fprint(out, formatQuestion(i, total, q))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Your answer%s: ", answerHint(q.Type))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer != "" {
			if q.Type.HasOptions() {
				answer = strings.ToUpper(answer)
			}
			if err := quiz.SaveAnswer(i, answer); err != nil {
				return err
			}
		}

		if quiz.Mode == quizsystem.ModePractice {
			fmt.Fprintf(out, "✔ Reference answer: %s\n", q.Answer)
			if q.Explanation != "" {
				fmt.Fprintf(out, "💡 Explanation: %s\n", q.Explanation)
			}
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, strings.Repeat("─", 50))
		fmt.Fprintln(out)
	}
	return scanner.Err()
}

func answerHint(t quizsystem.QuestionType) string {
	switch t {
	case quizsystem.TypeSingleChoice:
		return " (letter)"
	case quizsystem.TypeMultipleChoice:
		return " (letters, e.g. A,C)"
	case quizsystem.TypeTrueFalse:
		return " (true/false)"
	}
	return ""
}

func printResult(out io.Writer, result *quizsystem.QuizResult) {
	fmt.Fprintln(out, "🎉 Quiz completed!")
	fmt.Fprintf(out, "\n🏆 Score: %.0f/100 (%d/%d answered)\n", result.Score, result.Answered(), len(result.Questions))

	if ev := result.Evaluation; ev != nil {
		fmt.Fprintln(out, "\n📊 Per question:")
		for _, qe := range ev.QuestionEvaluations {
			fmt.Fprintf(out, "  %2d. %3.0f  %s\n", qe.QuestionIndex+1, qe.Score, qe.Feedback)
		}
		fmt.Fprintf(out, "\n%s\n", ev.OverallFeedback)
	}

	switch {
	case result.Score >= 80:
		fmt.Fprintln(out, "🌟 Excellent work!")
	case result.Score >= 60:
		fmt.Fprintln(out, "👍 Good job!")
	default:
		fmt.Fprintln(out, "📚 Keep studying!")
	}
}
