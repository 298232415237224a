package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"customer-option-service/constraints"
	"customer-option-service/models"
	"customer-option-service/repository"
	aws_pkg "customer-option-service/pkg/aws"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// EventPricesImported is the SNS event type published after every finished run.
const EventPricesImported = "customer_option_prices_imported"

// PriceImportService runs imports on behalf of the current admin and keeps their history.
type PriceImportService interface {
	ImportCSV(ctx context.Context, source string) (*models.PriceImportResponse, *ServiceError)
	ImportByExample(ctx context.Context, req models.ImportByExampleRequest) (*models.PriceImportResponse, *ServiceError)
	ListRuns(ctx context.Context, filter models.PriceImportRunFilter) ([]models.PriceImportRun, int64, *ServiceError)
	ValidateOption(ctx context.Context, code string, req models.ValidateOptionRequest) ([]string, *ServiceError)
}

type priceImportServiceImpl struct {
	importers    ImporterFactory
	prices       repository.PriceRepository
	runs         repository.ImportRunRepository
	options      repository.CustomerOptionRepository
	errorHandler ImportErrorHandler
	tokens       TokenStorage
	snsClient    aws_pkg.SNSPublisher
	snsTopicArn  string
	logger       *zap.Logger
}

func NewPriceImportService(
	importers ImporterFactory,
	prices repository.PriceRepository,
	runs repository.ImportRunRepository,
	options repository.CustomerOptionRepository,
	errorHandler ImportErrorHandler,
	tokens TokenStorage,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) PriceImportService {
	return &priceImportServiceImpl{
		importers:    importers,
		prices:       prices,
		runs:         runs,
		options:      options,
		errorHandler: errorHandler,
		tokens:       tokens,
		snsClient:    snsClient,
		snsTopicArn:  snsTopicArn,
		logger:       logger,
	}
}

func (s *priceImportServiceImpl) ImportCSV(ctx context.Context, source string) (*models.PriceImportResponse, *ServiceError) {
	result, err := s.importers.NewCSVImporter().Import(ctx, source)
	if err != nil {
		s.logger.Error("CSV price import failed", zap.String("source", source), zap.Error(err))
		s.reportAbort(ctx, models.ImportKindCSV, source, err)
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Import source not found"}
		}
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Price import failed: " + err.Error()}
	}
	return s.finish(ctx, models.ImportKindCSV, source, result), nil
}

func (s *priceImportServiceImpl) ImportByExample(ctx context.Context, req models.ImportByExampleRequest) (*models.PriceImportResponse, *ServiceError) {
	example, err := s.prices.FindByID(ctx, req.ExamplePriceID)
	if err != nil {
		s.logger.Error("Failed to load example price", zap.String("id", req.ExamplePriceID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load example price"}
	}
	if example == nil {
		return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Example price not found"}
	}

	source := "price:" + example.ID.String()
	result, err := s.importers.NewByExampleImporter().ImportForProducts(ctx, req.ProductCodes, example)
	if err != nil {
		s.logger.Error("Price import by example failed", zap.String("source", source), zap.Error(err))
		s.reportAbort(ctx, models.ImportKindByExample, source, err)
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Price import failed: " + err.Error()}
	}
	return s.finish(ctx, models.ImportKindByExample, source, result), nil
}

func (s *priceImportServiceImpl) ListRuns(ctx context.Context, filter models.PriceImportRunFilter) ([]models.PriceImportRun, int64, *ServiceError) {
	runs, total, err := s.runs.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list import runs", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to list import runs"}
	}
	return runs, total, nil
}

func (s *priceImportServiceImpl) ValidateOption(ctx context.Context, code string, req models.ValidateOptionRequest) ([]string, *ServiceError) {
	option, err := s.options.FindOptionByCode(ctx, code)
	if err != nil {
		s.logger.Error("Failed to load customer option", zap.String("code", code), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load customer option"}
	}
	if option == nil {
		return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Customer option not found"}
	}

	violations := constraints.Validate(option, req.Value, req.Form)
	if violations == nil {
		violations = []string{}
	}
	return violations, nil
}

// finish records the run and announces it. Neither step can fail the import,
// whose prices are already committed.
func (s *priceImportServiceImpl) finish(ctx context.Context, kind, source string, result *models.PriceImportResult) *models.PriceImportResponse {
	run := &models.PriceImportRun{
		Kind:     kind,
		Source:   source,
		Imported: result.Imported(),
		Failed:   result.Failed(),
	}
	if admin := s.tokens.CurrentAdmin(ctx); admin != nil {
		run.AdminEmail = admin.Email
	}
	if result.Failed() > 0 {
		if b, err := json.Marshal(result.Errors()); err == nil {
			run.Failures = datatypes.JSON(b)
		}
	}

	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Error("Failed to record import run", zap.String("kind", kind), zap.Error(err))
	}

	s.publishEvent(ctx, models.PricesImportedEvent{
		EventType:  EventPricesImported,
		RunID:      run.ID.String(),
		Kind:       kind,
		Imported:   run.Imported,
		Failed:     run.Failed,
		AdminEmail: run.AdminEmail,
		Timestamp:  time.Now(),
	})

	return &models.PriceImportResponse{
		RunID:    run.ID,
		Imported: result.Imported(),
		Failed:   result.Failed(),
		Errors:   result.Errors(),
	}
}

// reportAbort mails the admin about a run that stopped early (non-fatal on error).
func (s *priceImportServiceImpl) reportAbort(ctx context.Context, kind, source string, cause error) {
	if s.errorHandler == nil {
		return
	}
	err := s.errorHandler.HandleErrors(ctx,
		map[string]string{source: cause.Error()},
		map[string]any{"kind": kind, "source": source},
	)
	if err != nil {
		s.logger.Error("Failed to report aborted import", zap.Error(err))
	}
}

// publishEvent marshals an event and publishes it to SNS (non-fatal on error).
func (s *priceImportServiceImpl) publishEvent(ctx context.Context, event interface{}) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		s.logger.Warn("SNS not configured, skipping event publish")
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal SNS event", zap.Error(err))
		return
	}
	if err := s.snsClient.Publish(ctx, s.snsTopicArn, b); err != nil {
		s.logger.Error("Failed to publish SNS event", zap.Error(err))
		return
	}
	s.logger.Info("Published SNS event", zap.String("topic", s.snsTopicArn))
}
