package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	store "github.com/xiaot623/companion/internal/repository"
)

var sessionsLimit int

// sessionsCmd prints recent sessions straight from the store.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent sessions",
	Long:  `List conversation sessions from the database, most recently active first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionsLimit < 1 || sessionsLimit > 100 {
			return fmt.Errorf("--limit must be between 1 and 100")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := store.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close()

		sessions, err := db.ListRecentSessions(cmd.Context(), sessionsLimit)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tUPDATED\tMESSAGES")
		fmt.Fprintln(w, "--\t-------\t-------\t--------")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				s.SessionID,
				s.CreatedAt.Local().Format(time.DateTime),
				s.UpdatedAt.Local().Format(time.DateTime),
				s.MessageCount,
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)

	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 10, "number of sessions to show")
}
