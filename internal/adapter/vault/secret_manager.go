package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/pkg/config"
)

// Keys read from the KV v2 secret. Missing keys leave the configured value
// untouched.
const (
	KeyPasscode       = "passcode"
	KeyPasscodeHash   = "passcode_hash"
	KeyDatabaseURL    = "database_url"
	KeyDatabasePass   = "database_password"
	KeyMailPassword   = "mail_password"
	KeySendGridAPIKey = "sendgrid_api_key"
)

type SecretManager struct {
	client *api.Client
	path   string
	log    *zap.Logger
}

func NewSecretManager(address, token, path string, log *zap.Logger) (*SecretManager, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(token)

	return &SecretManager{client: client, path: path, log: log}, nil
}

// Secrets returns the string values stored at the configured KV v2 path.
func (sm *SecretManager) Secrets(ctx context.Context) (map[string]string, error) {
	secret, err := sm.client.Logical().ReadWithContext(ctx, sm.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sm.path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no secret at %s", sm.path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("secret at %s is not a KV v2 secret", sm.path)
	}

	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok && s != "" {
			out[k] = s
		}
	}
	return out, nil
}

// Apply overrides credentials in cfg with the values held in Vault.
func (sm *SecretManager) Apply(ctx context.Context, cfg *config.Config) error {
	secrets, err := sm.Secrets(ctx)
	if err != nil {
		return err
	}

	targets := map[string]*string{
		KeyPasscode:       &cfg.Security.Passcode,
		KeyPasscodeHash:   &cfg.Security.PasscodeHash,
		KeyDatabaseURL:    &cfg.Database.URL,
		KeyDatabasePass:   &cfg.Database.Password,
		KeyMailPassword:   &cfg.Mail.SMTPPassword,
		KeySendGridAPIKey: &cfg.Mail.SendGridAPIKey,
	}

	var applied []string
	for key, target := range targets {
		if v, ok := secrets[key]; ok {
			*target = v
			applied = append(applied, key)
		}
	}

	sm.log.Info("Applied secrets from Vault", zap.String("path", sm.path), zap.Strings("keys", applied))
	return nil
}
