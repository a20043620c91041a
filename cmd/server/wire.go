package main

import (
	"context"

	"glowfit/ai"
	"glowfit/config"
	"glowfit/logger"
	"glowfit/services"
	"glowfit/utils"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// buildDeps creates the AWS clients and AI providers that are configured.
// Anything missing is left nil and the matching feature reports itself
// disabled.
func buildDeps(ctx context.Context, cfg config.Config, db *gorm.DB) (services.Deps, error) {
	deps := services.Deps{
		DB:        db,
		SNSFCMArn: cfg.SNSFCMArn,
		Edamam: services.EdamamConfig{
			AppID:       cfg.EdamamAppID,
			AppKey:      cfg.EdamamAppKey,
			NutriAppID:  cfg.EdamamNutriID,
			NutriAppKey: cfg.EdamamNutriKey,
		},
		JWTSecret:        cfg.JWTSecret,
		AdminEmails:      cfg.AdminEmails,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		RequireFaceCheck: cfg.RequireFaceCheck,
	}

	awsCfg, err := utils.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return deps, err
	}
	if cfg.S3Bucket != "" {
		region := cfg.S3Region
		if region == "" {
			region = cfg.AWSRegion
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.Region = region })
		deps.Storage = utils.NewStorage(client, cfg.S3Bucket, region, cfg.CloudFrontURL)
	} else {
		logger.Warn("S3_BUCKET not set, image uploads are disabled")
	}
	if cfg.SESSender != "" {
		deps.Mailer = utils.NewMailer(ses.NewFromConfig(awsCfg), cfg.SESSender)
	} else {
		logger.Warn("SES_EMAIL not set, outgoing mail is disabled")
	}
	if cfg.SNSFCMArn != "" {
		deps.SNS = sns.NewFromConfig(awsCfg)
	}
	deps.Vision = utils.NewVision(rekognition.NewFromConfig(awsCfg))

	breakers := ai.NewRegistry(ai.BreakerSettings{
		FailureThreshold: cfg.BreakerThreshold,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	})
	deps.Breakers = breakers
	router := ai.NewRouter(breakers, ai.RouterConfig{
		Timeout:           cfg.AITimeout,
		MaxConcurrent:     cfg.AIMaxConcurrent,
		RequestsPerMinute: cfg.AIRequestsPerMin,
	}, providers(ctx, cfg)...)
	logger.Info("ai providers", zap.Strings("order", router.Providers()))
	deps.Generator = router
	return deps, nil
}

// providers lists the configured models in fallback order.
func providers(ctx context.Context, cfg config.Config) []ai.Provider {
	var out []ai.Provider
	if cfg.GeminiAPIKey != "" {
		p, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("gemini provider disabled", zap.Error(err))
		} else {
			out = append(out, p)
		}
	}
	if cfg.AnthropicAPIKey != "" {
		p, err := ai.NewClaudeProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			logger.Error("claude provider disabled", zap.Error(err))
		} else {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		logger.Warn("no AI provider configured, analyses use heuristic fallback")
	}
	return out
}
