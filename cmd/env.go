package cmd

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/codexautotest/internal/llm"
)

// CredentialCheck holds the result of looking up a provider's API key.
type CredentialCheck struct {
	Provider llm.Provider
	Missing  []string          // Variables that could supply the key but are unset
	Present  map[string]string // Sources that are set (masked values)
}

// CheckCredentials reports where the API key for provider would come from.
func CheckCredentials(provider llm.Provider, configured string) *CredentialCheck {
	result := &CredentialCheck{
		Provider: provider,
		Present:  make(map[string]string),
	}
	if configured != "" {
		result.Present["model.api_key"] = maskSecret(configured)
	}
	for _, v := range llm.CredentialEnv(provider) {
		val := os.Getenv(v)
		if val == "" {
			result.Missing = append(result.Missing, v)
		} else {
			result.Present[v] = maskSecret(val)
		}
	}
	return result
}

// Ok reports whether a key is available, or none is needed.
func (r *CredentialCheck) Ok() bool {
	return len(r.Present) > 0 || len(llm.CredentialEnv(r.Provider)) == 0
}

// PrintCredentialCheck prints the credential check results
func PrintCredentialCheck(w io.Writer, result *CredentialCheck) {
	fmt.Fprintf(w, "Provider: %s\n", result.Provider)
	if len(llm.CredentialEnv(result.Provider)) == 0 {
		fmt.Fprintln(w, "✓ No API key required")
		return
	}
	for _, k := range slices.Sorted(maps.Keys(result.Present)) {
		fmt.Fprintf(w, "✓ %s = %s\n", k, result.Present[k])
	}
	if !result.Ok() {
		fmt.Fprintf(w, "⚠ Warning: no API key found, set one of: %s\n", strings.Join(result.Missing, ", "))
	}
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env var %s: %w", key, err)
		}
	}

	return scanner.Err()
}
