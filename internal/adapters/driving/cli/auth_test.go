package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/wearsync/internal/core/domain"
)

func setupAuth(t *testing.T, terminal bool, password string) *file.ConfigStore {
	t.Helper()
	store, err := file.NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	configStore = store

	oldTerminal, oldRead := isTerminal, readPassword
	isTerminal = func() bool { return terminal }
	readPassword = func() ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { isTerminal, readPassword = oldTerminal, oldRead })
	return store
}

func TestAuthLogin_Flag(t *testing.T) {
	buf := setupCLI(t, nil)
	store := setupAuth(t, false, "")

	mustNotError(t, execute(t, "auth", "login", "--token", " tok-from-flag "))

	assert.Equal(t, "tok-from-flag", store.GetString(file.TokenKey))
	assert.Equal(t, "tok-from-flag", settings.Garmin.Token)
	assert.Contains(t, buf.String(), "Token saved to "+store.Path())
}

func TestAuthLogin_Terminal(t *testing.T) {
	buf := setupCLI(t, nil)
	store := setupAuth(t, true, "typed-token\n")

	mustNotError(t, execute(t, "auth", "login"))

	assert.Equal(t, "typed-token", store.GetString(file.TokenKey))
	assert.Contains(t, buf.String(), "Garmin token: ")
}

func TestAuthLogin_Stdin(t *testing.T) {
	setupCLI(t, nil)
	store := setupAuth(t, false, "")
	rootCmd.SetIn(strings.NewReader("piped-token\nignored\n"))

	mustNotError(t, execute(t, "auth", "login"))
	assert.Equal(t, "piped-token", store.GetString(file.TokenKey))
}

func TestAuthLogin_Empty(t *testing.T) {
	setupCLI(t, nil)
	setupAuth(t, false, "")
	rootCmd.SetIn(strings.NewReader(""))

	assert.EqualError(t, execute(t, "auth", "login"), "no token provided")
}

func TestAuthLogin_NoStore(t *testing.T) {
	setupCLI(t, nil)
	assert.EqualError(t, execute(t, "auth", "login", "--token", "x"), "config store not configured")
}

func TestAuthCheck(t *testing.T) {
	source := &mockSource{}
	buf := setupCLI(t, &Services{Source: source})
	settings.Garmin.DisplayName = "runner"

	mustNotError(t, execute(t, "auth", "check"))

	assert.Equal(t, domain.Credentials{Token: "garmin-token-123456", DisplayName: "runner"}, source.creds)
	assert.Contains(t, buf.String(), "Login OK.")
}

func TestAuthCheck_Failure(t *testing.T) {
	source := &mockSource{loginErr: errors.Join(domain.ErrAuthRequired, errors.New("status 401"))}
	setupCLI(t, &Services{Source: source})

	err := execute(t, "auth", "check")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}
