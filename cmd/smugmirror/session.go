package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"smugmirror/pkg/auth"
	"smugmirror/pkg/ui"
)

var sessionToken string

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored SmugMug session cookies",
	Long: `Manage stored SMSESS session cookies.

Sessions are stored per gallery user using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - SMUGMIRROR_SESSION (read only)

A stored session is used whenever no --session flag is given.`,
}

var sessionSetCmd = &cobra.Command{
	Use:   "set [user]",
	Short: "Store a session cookie for a user",
	Example: `  # Interactive, the value is not echoed
  smugmirror session set jdoe

  # Non-interactive
  smugmirror session set jdoe --token "$SMSESS"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessionSet,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions with masked tokens",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <user>",
	Short: "Remove the stored session of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionSetCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)

	sessionSetCmd.Flags().StringVar(&sessionToken, "token", "", "session cookie value (prompted when omitted)")
}

func runSessionSet(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return withExitCode(1, fmt.Errorf("failed to initialize session store: %w", err))
	}

	reader := bufio.NewReader(os.Stdin)

	var user string
	if len(args) > 0 {
		user = strings.TrimSpace(args[0])
	}
	if user == "" {
		fmt.Print("Gallery user: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return withExitCode(1, fmt.Errorf("failed to read user: %w", err))
		}
		user = strings.TrimSpace(input)
	}
	if user == "" {
		return withExitCode(1, errors.New("user is required"))
	}

	token := strings.TrimSpace(sessionToken)
	if token == "" {
		auth.WriteSessionGuide(os.Stdout)
		fmt.Print("SMSESS value: ")
		token, err = readSecret(reader)
		if err != nil {
			return withExitCode(1, fmt.Errorf("failed to read session: %w", err))
		}
	}

	if err := manager.Store(&auth.Session{User: user, Token: token}); err != nil {
		return withExitCode(1, err)
	}

	ui.PrintSuccess("Session stored")
	ui.PrintInfo("User", user)
	ui.PrintInfo("Token", auth.MaskToken(token))
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return withExitCode(1, fmt.Errorf("failed to initialize session store: %w", err))
	}

	sessions, err := manager.List()
	if err != nil {
		return withExitCode(1, err)
	}
	if len(sessions) == 0 {
		ui.PrintWarning("No stored sessions")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tTOKEN\tUPDATED")
	for _, s := range sessions {
		masked := s.Masked()
		updated := "-"
		if !masked.UpdatedAt.IsZero() {
			updated = masked.UpdatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", masked.User, masked.Token, updated)
	}
	return w.Flush()
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return withExitCode(1, fmt.Errorf("failed to initialize session store: %w", err))
	}

	user := strings.TrimSpace(args[0])
	if err := manager.Delete(user); err != nil {
		return withExitCode(1, err)
	}

	ui.PrintSuccess("Session removed")
	ui.PrintInfo("User", user)
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
