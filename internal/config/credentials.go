package config

import "os"

// CredentialProvider supplies the model API credential.
type CredentialProvider interface {
	APIKey() string
}

// StaticCredential is a fixed credential, typically taken from Config.
type StaticCredential string

func (s StaticCredential) APIKey() string { return string(s) }

// EnvCredential reads the first non-empty variable among Names.
type EnvCredential struct {
	Names []string
}

// DefaultEnvCredential checks GEMINI_API_KEY, then API_KEY.
func DefaultEnvCredential() EnvCredential {
	return EnvCredential{Names: []string{"GEMINI_API_KEY", "API_KEY"}}
}

func (e EnvCredential) APIKey() string {
	for _, n := range e.Names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Credential returns a provider for the configured key.
func (c *Config) Credential() CredentialProvider {
	return StaticCredential(c.LLM.APIKey)
}
