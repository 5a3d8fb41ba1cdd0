package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/catalog"
	"github.com/spigell/interview-trainer/internal/questions"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print a set of non-repeating questions for a major",
	Run: func(cmd *cobra.Command, _ []string) {
		printQuestions(cmd)
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)

	questionsCmd.Flags().StringP("major", "m", "", "major to pick questions for (default is the general pool)")
	questionsCmd.Flags().IntP("count", "n", 0, "number of questions (default is default-count from config)")
	questionsCmd.Flags().StringP("format", "f", formatText, "output format: text or json")
}

func printQuestions(cmd *cobra.Command) {
	a, err := newApplication(cmd.Context(), true)
	if err != nil {
		newLogger(true).Fatal("preparing the application", zap.Error(err))
	}
	defer a.close()

	major, _ := cmd.Flags().GetString("major")
	count, _ := cmd.Flags().GetInt("count")
	format, _ := cmd.Flags().GetString("format")

	gen := questions.New(a.catalog, questions.WithFilters(a.filters...), questions.WithLogger(a.logger))
	qs := gen.Generate(major, a.count(count))

	a.logger.Info("questions selected",
		zap.String("major", major),
		zap.Int("count", len(qs)),
		zap.Int("pool_size", gen.PoolSize(major)),
	)

	if err := writeQuestions(cmd.OutOrStdout(), format, qs); err != nil {
		a.logger.Fatal("printing questions", zap.Error(err))
	}
}

func writeQuestions(w io.Writer, format string, qs []catalog.Question) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(qs)
	case formatText, "":
		for i, q := range qs {
			if _, err := fmt.Fprintf(w, "%d. %s (%ds)\n   %s\n", i+1, q.Title, q.ExpectedDurationSeconds, q.Content); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
