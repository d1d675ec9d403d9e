package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PAYMENT_SECRET_KEY", "sk_test_123")
	t.Setenv("INTERNAL_SIGNING_SECRET", "internal")
}

func TestLoadConfig_DefaultsWithoutEnvFile(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5*time.Second, cfg.App.StoreTimeout)
	assert.Equal(t, "paymongo", cfg.Payment.Provider)
	assert.Equal(t, "PHP", cfg.Payment.Currency)
	assert.Equal(t, "Thank you.", cfg.Payment.Remarks)
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, "medconsult-api", cfg.JWT.Issuer)
	assert.Equal(t, "medconsult-api", cfg.JWT.Audience)
	assert.Equal(t, 5*time.Minute, cfg.Internal.SignatureTolerance)
	assert.Equal(t, 30*time.Minute, cfg.Mail.ResetTokenTTL)
	assert.True(t, cfg.Reconcile.Enabled)
	assert.Equal(t, 50, cfg.Reconcile.BatchSize)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())
	setRequiredEnv(t)
	t.Setenv("PAYMENT_PROVIDER", "Stripe")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("JWT_ACCESS_EXPIRY", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "stripe", cfg.Payment.Provider)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
}

func TestValidate(t *testing.T) {
	base := Config{
		JWT:      JWTConfig{Secret: "s"},
		Payment:  PaymentConfig{Provider: "paymongo", SecretKey: "k"},
		Internal: InternalConfig{SigningSecret: "i"},
	}
	require.NoError(t, base.Validate())

	noKey := base
	noKey.Payment.SecretKey = ""
	assert.Error(t, noKey.Validate())

	badProvider := base
	badProvider.Payment.Provider = "paypal"
	assert.Error(t, badProvider.Validate())

	noInternal := base
	noInternal.Internal.SigningSecret = ""
	assert.Error(t, noInternal.Validate())
}
