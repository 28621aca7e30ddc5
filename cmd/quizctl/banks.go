package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"quizsystem"

	"github.com/spf13/cobra"
)

func newBanksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banks",
		Short: "Manage stored question banks",
	}
	cmd.AddCommand(newBanksListCmd(a), newBanksShowCmd(a), newBanksDeleteCmd(a), newResultsCmd(a))
	return cmd
}

func newBanksListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored question banks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			banks, err := db.ListBanks(cmd.Context())
			if err != nil {
				return err
			}
			if len(banks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No question banks yet. Run `quizctl generate` to create one.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tQUESTIONS\tCREATED")
			for _, b := range banks {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.ID, b.Name, b.QuestionCount, b.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newBanksShowCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <bank-id>",
		Short: "Print a bank with its questions and answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			bank, err := db.GetBank(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(bank)
			}

			fmt.Fprintf(out, "📚 %s\n", bank.Name)
			if bank.Description != "" {
				fmt.Fprintf(out, "%s\n", bank.Description)
			}
			fmt.Fprintln(out)
			for i, q := range bank.Questions {
				fmt.Fprint(out, formatQuestion(i, len(bank.Questions), q))
				fmt.Fprintf(out, "✔ Answer: %s\n", q.Answer)
				if q.Explanation != "" {
					fmt.Fprintf(out, "💡 %s\n", q.Explanation)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the bank as JSON")
	return cmd
}

func newBanksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bank-id>",
		Short: "Delete a bank and its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteBank(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "🗑  Deleted bank %s\n", args[0])
			return nil
		},
	}
}

func newResultsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List finished quizzes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := db.ListResults(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FINISHED\tBANK\tMODE\tQUESTIONS\tSCORE")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f\n",
					r.EndTime.Format("2006-01-02 15:04"), r.BankName, r.Mode, len(r.Questions), r.Score)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

// formatQuestion renders a question header, its text and lettered options
func formatQuestion(index, total int, q quizsystem.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d [%s]:\n", index+1, total, q.Type)
	fmt.Fprintf(&b, "%s\n", q.Question)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "  %c) %s\n", 'A'+i, opt)
	}
	if q.Type == quizsystem.TypeTrueFalse {
		b.WriteString("  (true / false)\n")
	}
	return b.String()
}
