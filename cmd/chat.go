package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xiaot623/companion/internal/client"
)

var (
	chatAPI  string
	chatName string
)

// chatCmd is a terminal client for a running server.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running companion server",
	Long: `Start a new session on a running server and exchange messages from the terminal.

Type a message and press Enter to send. /quit exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := client.New(chatAPI, nil)

		session, err := c.CreateSession(ctx, chatName)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		fmt.Printf("Session established: %s\n\n", session.SessionID)
		fmt.Printf("companion: %s\n\n", session.Greeting)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "/quit" {
				fmt.Println("Bye!")
				return nil
			}

			reply, err := c.SendMessage(ctx, session.SessionID, input, chatName)
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) {
					fmt.Fprintf(os.Stderr, "error: %s\n\n", apiErr.Message)
					continue
				}
				return err
			}
			fmt.Printf("companion: %s\n\n", reply.AIMessage.Text)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatAPI, "api", "http://localhost:3001", "base URL of the companion API")
	chatCmd.Flags().StringVar(&chatName, "name", "", "display name to greet you with")
}
