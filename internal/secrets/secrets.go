// Package secrets keeps credentials in the OS keychain so the config file
// and the database never carry them.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"rentscout-engine/internal/config"
)

const (
	KeyringService = "rentscout"

	notionTokenAccount = "rentscout:notion:token"
)

// GetNotionToken reads the integration token, keychain first with an env
// fallback for headless machines.
func GetNotionToken() (string, error) {
	if pw, err := keyring.Get(KeyringService, notionTokenAccount); err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	if v := strings.TrimSpace(os.Getenv("NOTION_TOKEN")); v != "" {
		return v, nil
	}
	return "", errors.New("notion token not found (set it in keychain or NOTION_TOKEN)")
}

func SetNotionToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, notionTokenAccount, token)
}

func DeleteNotionToken() error {
	return keyring.Delete(KeyringService, notionTokenAccount)
}

func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if v := strings.TrimSpace(os.Getenv("RENTSCOUT_IMAP_PASSWORD")); v != "" {
		return v, nil
	}
	return "", errors.New("IMAP password not found (set it in keychain or RENTSCOUT_IMAP_PASSWORD)")
}

func SetIMAPPassword(keyringAccount, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"rentscout:imap:%s@%s",
		cfg.Mail.Username,
		cfg.Mail.IMAPHost,
	)
}
