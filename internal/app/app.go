package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devmarkh/converso/internal/api/handlers"
	"github.com/devmarkh/converso/internal/auth"
	"github.com/devmarkh/converso/internal/config"
	"github.com/devmarkh/converso/internal/core"
	db "github.com/devmarkh/converso/internal/core/database"
	"github.com/devmarkh/converso/internal/core/image"
	"github.com/devmarkh/converso/internal/core/llm"
	"github.com/devmarkh/converso/internal/core/objectstore"
)

type App struct {
	DBClient core.DbClient
	LLM      core.LLMProvider
	Server   *Server
}

// NewApp wires every collaborator together. The database and the signing
// secret are hard requirements; object storage and federation degrade to
// disabled routes when unconfigured.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logrus.Info("Database initialized and ready.")

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.TokenTTLMins)*time.Minute)

	var fed handlers.Federator
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" && cfg.GoogleRedirectURL != "" {
		f, err := auth.NewGoogleFederation(appCtx, cfg.OIDCIssuerURL, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			_ = dbClient.Close()
			return nil, err
		}
		fed = f
	}

	var objects core.ObjectClient
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		objects, err = objectstore.NewS3Client(appCtx, cfg)
		if err != nil {
			_ = dbClient.Close()
			return nil, err
		}
	}

	generator := image.NewHordeClient(cfg.HordeAPIURL, cfg.HordeAPIKey)
	captioner := image.NewBlipCaptioner(cfg.CaptionAPIURL, cfg.CaptionAPIKey)

	server := NewServer(cfg, dbClient, llmProvider, objects, generator, captioner, hasher, issuer, fed)

	return &App{DBClient: dbClient, LLM: llmProvider, Server: server}, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
