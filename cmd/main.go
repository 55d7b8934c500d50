package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"legal-intake/handler"
	"legal-intake/internal/config"
	"legal-intake/internal/extract"
	"legal-intake/internal/integrations/openai"
	"legal-intake/internal/integrations/paramstore"
	"legal-intake/internal/repository"
	"legal-intake/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		logger.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	uploadStore, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.UploadsTable)
	if err != nil {
		logger.Error("failed to create upload store", "err", err)
		os.Exit(1)
	}

	completer, err := openai.NewClient(ssmClient, cfg.ParamPrefix, cfg.ModelCandidates,
		openai.WithBackoff(time.Duration(cfg.ProviderBackoffMs)*time.Millisecond),
		openai.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create completions client", "err", err)
		os.Exit(1)
	}

	// The small-claims framing is a policy knob; an unset parameter means
	// the paralegal-referral wording.
	variant, err := ssmClient.GetParameterOrDefault(ctx,
		cfg.ParamPrefix+"/prompts/small-claims-variant", usecase.VariantParalegal)
	if err != nil {
		logger.Error("failed to load prompt variant", "err", err)
		os.Exit(1)
	}

	extractor := extract.New(logger)

	intakeService, err := usecase.NewIntakeService(completer, extractor, uploadStore,
		usecase.WithWindowSize(cfg.WindowSize),
		usecase.WithMaxExcerptLen(cfg.MaxFileExcerpt),
		usecase.WithGeneration(cfg.Temperature, cfg.MaxTokens),
		usecase.WithSmallClaimsVariant(variant),
		usecase.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create intake service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(intakeService, uploadStore, extractor, handler.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
