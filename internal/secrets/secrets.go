package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	envConfig "github.com/ToldYaOnce/kx-event-tracking/internal/config"
)

// dbCredentials is the secret payload shape RDS-managed secrets use.
type dbCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"dbname"`
}

// ResolveDSN returns the Postgres connection string. An explicit DSN wins;
// otherwise the credentials are fetched from Secrets Manager using the
// configured secret ARN.
func ResolveDSN(ctx context.Context, cfg envConfig.Postgres, log *zap.Logger) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.SecretARN == "" {
		return "", fmt.Errorf("either POSTGRES_DSN or DB_SECRET_ARN must be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &cfg.SecretARN,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get database secret: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("database secret value is empty")
	}

	var creds dbCredentials
	if err := json.Unmarshal([]byte(*out.SecretString), &creds); err != nil {
		return "", fmt.Errorf("failed to decode database secret: %w", err)
	}

	log.Info("Resolved database credentials from Secrets Manager",
		zap.String("host", creds.Host),
		zap.String("database", creds.DBName))

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(creds.Username),
		url.QueryEscape(creds.Password),
		creds.Host,
		creds.Port,
		creds.DBName,
		cfg.SSLMode,
	), nil
}
