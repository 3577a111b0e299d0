package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
)

// envSecretReader resolves secrets from environment variables, falling back to
// files under baseDir (docker/k8s mounted secrets).
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type envSecretReader struct {
	baseDir string
	logger  *zap.Logger
}

// NewEnvSecretReader creates a reader that looks up path as an environment
// variable, then as a file relative to baseDir when baseDir is set
func NewEnvSecretReader(baseDir string, logger *zap.Logger) ports.SecretReader {
	return &envSecretReader{
		baseDir: baseDir,
		logger:  logger,
	}
}

// GetSecret returns the variable named path, or the contents of baseDir/path
func (r *envSecretReader) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if path == "" {
		return nil, fmt.Errorf("secret path is empty")
	}

	if value, ok := os.LookupEnv(path); ok && value != "" {
		r.logger.Debug("Secret read from environment", zap.String("path", path))
		return &ports.Secret{Value: value, Version: "env"}, nil
	}

	if r.baseDir == "" {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	filePath := filepath.Join(r.baseDir, filepath.Clean("/"+path))
	r.logger.Debug("Reading secret from filesystem", zap.String("path", path))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secret not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	// Support both plain text and JSON format
	var secretData struct {
		Value     string            `json:"value"`
		Tags      map[string]string `json:"tags"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &secretData); err == nil && secretData.Value != "" {
		return &ports.Secret{
			Value:     secretData.Value,
			Version:   "file",
			Metadata:  secretData.Tags,
			CreatedAt: secretData.CreatedAt,
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimRight(string(data), "\r\n"),
		Version: "file",
	}, nil
}
