package conf

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGlobalSQLite(t *testing.T) {
	t.Setenv("INVITER_DB_DRIVER", "sqlite")
	t.Setenv("INVITER_DB_DSN", "file::memory:")
	t.Setenv("INVITER_LOG_LEVEL", "warn")
	t.Setenv("PORT", "9999")

	config, err := LoadGlobal("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", config.DB.Driver)
	assert.Equal(t, 9999, config.API.Port)
	assert.Equal(t, "invitations", config.Events.ChannelPrefix)
}

func TestLoadGlobalRejectsUnknownDriver(t *testing.T) {
	t.Setenv("INVITER_DB_DRIVER", "cassandra")

	_, err := LoadGlobal("")
	assert.Error(t, err)
}

func TestLoadGlobalRequiresTigrisURL(t *testing.T) {
	t.Setenv("INVITER_DB_DRIVER", "tigris")
	t.Setenv("INVITER_DB_URL", "")

	_, err := LoadGlobal("")
	assert.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "inviter-*.env")
	require.NoError(t, err)
	_, err = f.WriteString("INVITER_SITE_URL=https://example.com\nINVITER_INVITATION_CODE_PREFIX=inv_\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() {
		os.Unsetenv("INVITER_SITE_URL")
		os.Unsetenv("INVITER_INVITATION_CODE_PREFIX")
	})

	config, err := LoadConfig(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", config.SiteURL)
	assert.Equal(t, "inv_", config.Invitation.CodePrefix)
	assert.Equal(t, 7*24*time.Hour, config.Invitation.DefaultTTL)
	assert.Equal(t, "https://example.com", config.Invitation.URL)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	config := &Configuration{
		SiteURL:    "https://example.com",
		Invitation: InvitationConfig{DefaultTTL: time.Hour, URL: "https://app.example.com/join"},
	}
	require.NoError(t, config.ApplyDefaults())
	assert.Equal(t, time.Hour, config.Invitation.DefaultTTL)
	assert.Equal(t, "https://app.example.com/join", config.Invitation.URL)
}
