package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/themes/internal/config"
	"github.com/vango-dev/themes/internal/errors"
	"github.com/vango-dev/themes/pkg/session"
)

// newStorage builds the session storage for the configured backend. The
// returned close function releases the backend.
func newStorage(cfg config.SessionConfig, logger *slog.Logger) (session.Storage, func() error, error) {
	opts := session.CookieOptions{
		Name:    cfg.CookieName,
		Domain:  cfg.Domain,
		MaxAge:  cfg.MaxAge(),
		Secure:  cfg.Secure,
		Secrets: cfg.Secrets,
	}
	for _, s := range cfg.Secrets {
		if s == config.DefaultSecret {
			logger.Warn("session cookies are signed with the development secret")
			break
		}
	}

	switch cfg.Backend {
	case config.BackendCookie:
		return session.NewCookieStorage(opts), func() error { return nil }, nil
	case config.BackendMemory:
		store := session.NewMemoryStore()
		return session.NewStoreStorage(store, opts), store.Close, nil
	case config.BackendS3:
		store := session.NewS3Store(newS3Client(cfg.S3), cfg.S3.Bucket, cfg.S3.Prefix)
		return session.NewStoreStorage(store, opts), store.Close, nil
	default:
		return nil, nil, errors.New("T041").WithDetail("session.backend " + cfg.Backend)
	}
}

// newS3Client creates an S3 client with credentials from the standard AWS
// environment variables.
func newS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
		Credentials:  aws.NewCredentialsCache(envCredentials()),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, errors.New("T020").WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for the s3 backend")
		}
		return creds, nil
	})
}
