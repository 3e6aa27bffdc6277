package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/config/file"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Garmin Connect token",
	Long: `Store and verify the OAuth2 access token used for Garmin Connect.

The token is saved to the config file (mode 0600). GARMIN_TOKEN in the
environment takes precedence over the stored value.

Examples:
  wearsync auth login
  echo "$TOKEN" | wearsync auth login
  wearsync auth check`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a Garmin Connect token",
	RunE:  runAuthLogin,
}

var authCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the token by logging in",
	RunE:  runAuthCheck,
}

// Flags for auth login.
var authToken string

// isTerminal and readPassword are replaced in tests.
var (
	isTerminal   = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
)

func init() {
	authLoginCmd.Flags().StringVar(&authToken, "token", "", "token value (prompted when omitted)")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authCheckCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	token := strings.TrimSpace(authToken)
	if token == "" {
		var err error
		if token, err = promptToken(cmd); err != nil {
			return err
		}
	}
	if token == "" {
		return errors.New("no token provided")
	}

	if err := configStore.Set(file.TokenKey, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	settings.Garmin.Token = token

	cmd.Printf("Token saved to %s\n", configStore.Path())
	if _, ok := os.LookupEnv(file.TokenEnv); ok {
		cmd.Printf("Note: %s is set and overrides the saved token.\n", file.TokenEnv)
	}
	return nil
}

// promptToken reads the token without echo on a terminal, or the first
// line of stdin otherwise.
func promptToken(cmd *cobra.Command) (string, error) {
	if isTerminal() {
		cmd.Print("Garmin token: ")
		b, err := readPassword()
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runAuthCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := requireServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Source.Login(ctx, settings.Garmin.Credentials()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cmd.Println("Login OK.")
	return nil
}
