package config

import (
	"fmt"
	"os"
	"strings"
)

// EnvFileWriter persists key/value settings into a .env file, as used by the
// spoken configuration commands. Existing keys are replaced in place.
type EnvFileWriter struct {
	Path string
}

// NewEnvFileWriter writes to the given path, defaulting to ".env".
func NewEnvFileWriter(path string) *EnvFileWriter {
	if path == "" {
		path = ".env"
	}
	return &EnvFileWriter{Path: path}
}

// Save stores the key with a quoted value.
func (w *EnvFileWriter) Save(key, value string) error {
	var lines []string
	if content, err := os.ReadFile(w.Path); err == nil {
		lines = strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read env file: %w", err)
	}

	entry := fmt.Sprintf("%s=%q", key, value)
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, key+"=") {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, entry)
	}

	payload := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(w.Path, []byte(payload), 0o600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}
