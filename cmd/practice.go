package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/catalog"
	"github.com/spigell/interview-trainer/internal/evaluation"
	"github.com/spigell/interview-trainer/internal/interview"
	"github.com/spigell/interview-trainer/internal/questions"
	"github.com/spigell/interview-trainer/internal/utils"
)

const (
	PromptAnswer        = "Answer"
	PromptSkip          = "Skip"
	PromptExclude       = "Never ask this question again"
	PromptMoreQuestions = "More questions"
	PromptFinish        = "Finish"
	PromptOtherMajor    = "other"
)

var errFinish = errors.New("finish requested")

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interactive mock interview",
	Run: func(cmd *cobra.Command, _ []string) {
		practice(cmd)
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().StringP("major", "m", "", "major to practice (asked interactively when unset)")
	practiceCmd.Flags().StringP("position", "p", "", "target position")
	practiceCmd.Flags().IntP("count", "n", 0, "number of questions (default is default-count from config)")
	practiceCmd.Flags().Duration("think", 0, "preparation time before every answer, e.g. 30s")
}

// practice is the interactive mock interview loop.
func practice(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, true)
	if err != nil {
		newLogger(true).Fatal("preparing the application", zap.Error(err))
	}
	defer a.close()

	out := cmd.OutOrStdout()

	major, _ := cmd.Flags().GetString("major")
	if major == "" {
		if major, err = chooseMajor(a.service.Majors()); err != nil {
			a.logger.Fatal("choosing a major", zap.Error(err))
		}
	}

	position, _ := cmd.Flags().GetString("position")
	count, _ := cmd.Flags().GetInt("count")
	think, _ := cmd.Flags().GetDuration("think")

	session, err := a.service.StartSession(ctx, major, position, a.count(count))
	if err != nil {
		a.logger.Fatal("starting a session", zap.Error(err))
	}

	pending := session.Questions
	for len(pending) > 0 {
		q := pending[0]
		pending = pending[1:]

		err := askQuestion(ctx, a, out, session.ID, q, think)
		if errors.Is(err, errFinish) {
			break
		}
		if err != nil {
			a.logger.Fatal("asking a question", zap.Error(err))
		}

		if len(pending) == 0 {
			more, err := a.moreQuestions(ctx, session.ID, count)
			if err != nil {
				a.logger.Fatal("getting more questions", zap.Error(err))
			}
			pending = more
		}
	}

	summary, err := a.service.CompleteSession(ctx, session.ID)
	if err != nil {
		a.logger.Fatal("completing the session", zap.Error(err))
	}

	printSummary(out, summary)
}

func chooseMajor(majors []string) (string, error) {
	majorPrompt := promptui.Select{
		Label: "Choose your major",
		Items: append(majors, PromptOtherMajor),
	}

	_, selected, err := majorPrompt.Run()
	if err != nil {
		return "", err
	}
	if selected != PromptOtherMajor {
		return selected, nil
	}

	input := promptui.Prompt{
		Label: "Major",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("major must not be empty")
			}
			return nil
		},
	}
	return input.Run()
}

func askQuestion(ctx context.Context, a *application, out io.Writer, sessionID string, q catalog.Question, think time.Duration) error {
	fmt.Fprintf(out, "\n%s\n%s\n(expected about %ds)\n\n", q.Title, q.Content, q.ExpectedDurationSeconds)

	items := []string{PromptAnswer, PromptSkip}
	if a.config.ExcludeFile != "" {
		items = append(items, PromptExclude)
	}
	items = append(items, PromptFinish)

	actionPrompt := promptui.Select{
		Label: "What next?",
		Items: items,
	}

	_, action, err := actionPrompt.Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptAnswer:
		return answerQuestion(ctx, a, out, sessionID, q, think)
	case PromptSkip:
		a.logger.Debug("question skipped", zap.String("question", q.Title))
		return nil
	case PromptExclude:
		return excludeQuestion(a, q)
	case PromptFinish:
		return errFinish
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func answerQuestion(ctx context.Context, a *application, out io.Writer, sessionID string, q catalog.Question, think time.Duration) error {
	if think > 0 {
		fmt.Fprintf(out, "Take %s to prepare...\n", think)
		if err := utils.WaitFor(ctx, think); err != nil {
			return err
		}
	}

	answerPrompt := promptui.Prompt{Label: "Your answer"}

	start := time.Now()
	answer, err := answerPrompt.Run()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	result, err := a.service.EvaluateResponse(ctx, interview.ResponseRequest{
		SessionID:     sessionID,
		QuestionTitle: q.Title,
		Input: evaluation.Input{
			Answer:          answer,
			DurationSeconds: utils.Seconds(elapsed),
		},
	})
	if err != nil {
		return err
	}

	printResult(out, result)
	return nil
}

func excludeQuestion(a *application, q catalog.Question) error {
	excluded, err := questions.GetExcludedFromFile(a.config.ExcludeFile)
	if err != nil {
		return err
	}

	excluded.Append("excluded during practice", q.Title)

	if err := excluded.ToFile(a.config.ExcludeFile); err != nil {
		return err
	}

	a.logger.Info("appended to exclude file",
		zap.String("filename", a.config.ExcludeFile),
		zap.String("question", q.Title),
	)
	return nil
}

func (a *application) moreQuestions(ctx context.Context, sessionID string, count int) ([]catalog.Question, error) {
	morePrompt := promptui.Select{
		Label: "All questions answered",
		Items: []string{PromptMoreQuestions, PromptFinish},
	}

	_, action, err := morePrompt.Run()
	if err != nil {
		return nil, err
	}
	if action != PromptMoreQuestions {
		return nil, nil
	}

	return a.service.NextQuestions(ctx, sessionID, a.count(count))
}

func printResult(out io.Writer, result *interview.Result) {
	ev := result.Evaluation
	fmt.Fprintf(out, "\nOverall %d | Content %d | Speech %d | Confidence %d | Body language %d\n",
		ev.OverallScore, ev.ContentScore, ev.SpeechScore, ev.ConfidenceScore, ev.BodyLanguageScore)
	printList(out, "Strengths", ev.Strengths)
	printList(out, "To improve", ev.Improvements)
	fmt.Fprintf(out, "%s\n", ev.DetailedFeedback)

	if result.Review != nil {
		fmt.Fprintf(out, "\nAI review: %s\n", result.Review.Summary)
		printList(out, "Tips", result.Review.Tips)
	}
}

func printSummary(out io.Writer, summary *interview.Summary) {
	avg := summary.Averages
	fmt.Fprintf(out, "\nSession %s finished: %d answers\n", summary.Session.ID, summary.Responses)
	fmt.Fprintf(out, "Average overall %.1f | content %.1f | speech %.1f | confidence %.1f | body language %.1f\n",
		avg.Overall, avg.Content, avg.Speech, avg.Confidence, avg.BodyLanguage)
}

func printList(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
