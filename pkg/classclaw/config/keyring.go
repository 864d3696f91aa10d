// Package config – keyring.go provides secret storage using the operating
// system's native keyring (Linux: Secret Service/GNOME Keyring, macOS:
// Keychain, Windows: Credential Manager).
//
// Priority for resolving secrets at runtime:
//  1. config.yaml value (usually a ${VAR} reference)
//  2. Provider-specific environment variable
//  3. OS keyring (encrypted by the OS, requires user session)
//  4. .env file (loaded by godotenv into the environment)
package config

import (
	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "classclaw"

	// KeyringAPIKey is the key name for the LLM API key.
	KeyringAPIKey = "api_key"

	// KeyringBotToken is the key name for the messaging bot token.
	KeyringBotToken = "bot_token"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// ResolveBotToken returns the configured channel token, falling back to the
// keyring entry written by `classclaw setup` when the config leaves it empty.
func ResolveBotToken(token string) string {
	if token != "" {
		return token
	}
	return GetKeyring(KeyringBotToken)
}

// KeyringAvailable checks if the OS keyring is accessible.
func KeyringAvailable() bool {
	testKey := "__classclaw_test__"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}
