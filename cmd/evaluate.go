package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/evaluation"
	"github.com/spigell/interview-trainer/internal/interview"
	"github.com/spigell/interview-trainer/internal/utils"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a single answer and print the evaluation as json",
	Run: func(cmd *cobra.Command, _ []string) {
		evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("answer", "a", "", "answer text")
	evaluateCmd.Flags().String("answer-file", "", "file with the answer text")
	evaluateCmd.Flags().Duration("duration", 0, "time spent answering, e.g. 2m30s")
	evaluateCmd.Flags().Duration("expected", 0, "expected answer duration, e.g. 3m")
	evaluateCmd.Flags().StringP("major", "m", "", "candidate's major")
	evaluateCmd.Flags().StringP("position", "p", "", "target position")
	evaluateCmd.Flags().StringP("question", "q", "", "question title, used by the AI review")

	evaluateCmd.MarkFlagsMutuallyExclusive("answer", "answer-file")
}

func evaluate(cmd *cobra.Command) {
	a, err := newApplication(cmd.Context(), true)
	if err != nil {
		newLogger(true).Fatal("preparing the application", zap.Error(err))
	}
	defer a.close()

	answer, err := readAnswer(cmd)
	if err != nil {
		a.logger.Fatal("reading the answer", zap.Error(err))
	}

	duration, _ := cmd.Flags().GetDuration("duration")
	expected, _ := cmd.Flags().GetDuration("expected")
	major, _ := cmd.Flags().GetString("major")
	position, _ := cmd.Flags().GetString("position")
	question, _ := cmd.Flags().GetString("question")

	result, err := a.service.EvaluateResponse(cmd.Context(), interview.ResponseRequest{
		QuestionTitle: question,
		Input: evaluation.Input{
			Answer:                  answer,
			DurationSeconds:         utils.Seconds(duration),
			ExpectedDurationSeconds: utils.Seconds(expected),
			Major:                   major,
			Position:                position,
		},
	})
	if err != nil {
		a.logger.Fatal("evaluating the answer", zap.Error(err))
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		a.logger.Fatal("encoding the evaluation", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}

func readAnswer(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("answer-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	if !cmd.Flags().Changed("answer") {
		return "", errors.New("--answer or --answer-file is required")
	}
	answer, _ := cmd.Flags().GetString("answer")
	return answer, nil
}
