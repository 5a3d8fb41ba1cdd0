package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored practice sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, newest first",
	Run: func(cmd *cobra.Command, _ []string) {
		listSessions(cmd)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a session with its responses as json",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showSession(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd)
}

func listSessions(cmd *cobra.Command) {
	a, err := newApplication(cmd.Context(), true)
	if err != nil {
		newLogger(true).Fatal("preparing the application", zap.Error(err))
	}
	defer a.close()

	sessions, err := a.service.ListSessions(cmd.Context())
	if err != nil {
		a.logger.Fatal("listing sessions", zap.Error(err))
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMAJOR\tPOSITION\tQUESTIONS\tCREATED\tCOMPLETED")
	for _, s := range sessions {
		completed := "-"
		if s.CompletedAt != nil {
			completed = s.CompletedAt.Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Major, s.Position, len(s.Questions), s.CreatedAt.Format(time.DateTime), completed)
	}
	if err := w.Flush(); err != nil {
		a.logger.Fatal("printing sessions", zap.Error(err))
	}
}

func showSession(cmd *cobra.Command, id string) {
	a, err := newApplication(cmd.Context(), true)
	if err != nil {
		newLogger(true).Fatal("preparing the application", zap.Error(err))
	}
	defer a.close()

	details, err := a.service.GetSession(cmd.Context(), id)
	if err != nil {
		a.logger.Fatal("getting the session", zap.Error(err), zap.String("id", id))
	}

	pretty, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		a.logger.Fatal("encoding the session", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
