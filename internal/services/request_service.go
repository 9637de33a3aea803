package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/serializer"
)

const requestEntity = "request"

// requestService implements the RequestService interface
type requestService struct {
	requestRepo repositories.RequestRepository
	txManager   repositories.TransactionManager
	query       repositories.QueryConfig
	logger      *logrus.Logger
}

// NewRequestService creates a new request service instance
func NewRequestService(requestRepo repositories.RequestRepository, txManager repositories.TransactionManager, query repositories.QueryConfig, logger *logrus.Logger) RequestService {
	if logger == nil {
		logger = logrus.New()
	}
	return &requestService{
		requestRepo: requestRepo,
		txManager:   txManager,
		query:       query,
		logger:      logger,
	}
}

// CreateRequest creates a new request with its extension
func (s *requestService) CreateRequest(ctx context.Context, userID string, input *models.CreateRequestInput) (serializer.Output, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repositories.ValidationError(requestEntity, "", fmt.Errorf("user ID is required"))
	}
	if input == nil {
		return nil, repositories.ValidationError(requestEntity, "", fmt.Errorf("request body is required"))
	}
	if !input.Type.IsValid() {
		return nil, repositories.ValidationError(requestEntity, "", &models.UnknownTypeError{Type: string(input.Type)})
	}

	var out serializer.Output
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		created, err := s.requestRepo.Insert(ctx, userID, input)
		if err != nil {
			return err
		}
		out, err = s.serialize(ctx, created)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// GetRequest retrieves a request by ID
func (s *requestService) GetRequest(ctx context.Context, id string) (serializer.Output, error) {
	if err := validateRequestID(id); err != nil {
		return nil, err
	}

	var out serializer.Output
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		complete, err := s.requestRepo.GetComplete(ctx, id)
		if err != nil {
			return err
		}
		if complete == nil {
			return repositories.NotFoundError(requestEntity, id)
		}
		out, err = serializeComplete(complete)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ListRequests lists requests ordered by due date
func (s *requestService) ListRequests(ctx context.Context, limit, offset int) (*RequestList, error) {
	page, err := s.query.ResolvePage(limit, offset)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, page, func(ctx context.Context) ([]*models.Request, error) {
		return s.requestRepo.List(ctx, page.Limit, page.Offset)
	})
}

// ListUserRequests lists the requests owned by userID
func (s *requestService) ListUserRequests(ctx context.Context, userID string, limit, offset int) (*RequestList, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repositories.ValidationError(requestEntity, "", fmt.Errorf("user ID is required"))
	}
	page, err := s.query.ResolvePage(limit, offset)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, page, func(ctx context.Context) ([]*models.Request, error) {
		return s.requestRepo.ListByUser(ctx, userID, page.Limit, page.Offset)
	})
}

func (s *requestService) list(ctx context.Context, page models.Page, load func(ctx context.Context) ([]*models.Request, error)) (*RequestList, error) {
	var outputs []serializer.Output
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		requests, err := load(ctx)
		if err != nil {
			return err
		}
		complete, err := s.requestRepo.LoadExtensions(ctx, requests)
		if err != nil {
			return err
		}
		outputs, err = serializer.SerializeAll(complete)
		if err != nil {
			return serializationError("", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RequestList{
		Requests: outputs,
		Pagination: models.Pagination{
			Limit:  page.Limit,
			Offset: page.Offset,
			Count:  len(outputs),
		},
	}, nil
}

// UpdateRequest updates a request owned by userID
func (s *requestService) UpdateRequest(ctx context.Context, userID, id string, patch *models.RequestPatch) (serializer.Output, error) {
	if err := validateRequestID(id); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, repositories.ValidationError(requestEntity, id, fmt.Errorf("request body is required"))
	}

	var out serializer.Output
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return repositories.NotFoundError(requestEntity, id)
		}
		if !current.IsOwnedBy(userID) {
			return ForbiddenError("Not authorized to update this request")
		}

		updated, err := s.requestRepo.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		if updated == nil {
			return repositories.NotFoundError(requestEntity, id)
		}
		out, err = s.serialize(ctx, updated)
		return err
	})
	if err != nil {
		if IsForbidden(err) {
			s.logger.WithFields(logrus.Fields{
				"request_id": id,
				"user_id":    userID,
			}).Warn("Update denied")
		}
		return nil, err
	}

	return out, nil
}

// DeleteRequest deletes a request owned by userID
func (s *requestService) DeleteRequest(ctx context.Context, userID, id string) error {
	if err := validateRequestID(id); err != nil {
		return err
	}

	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return repositories.NotFoundError(requestEntity, id)
		}
		if !current.IsOwnedBy(userID) {
			return ForbiddenError("Not authorized to delete this request")
		}

		deleted, err := s.requestRepo.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return repositories.NotFoundError(requestEntity, id)
		}
		return nil
	})
}

// serialize loads the extension of request and builds its output
func (s *requestService) serialize(ctx context.Context, request *models.Request) (serializer.Output, error) {
	ext, err := s.requestRepo.GetExtension(ctx, request)
	if err != nil {
		return nil, err
	}
	return serializeComplete(&models.CompleteRequest{Request: request, Extension: ext})
}

func serializeComplete(complete *models.CompleteRequest) (serializer.Output, error) {
	out, err := serializer.Serialize(complete)
	if err != nil {
		return nil, serializationError(complete.ID, err)
	}
	return out, nil
}

// serializationError classifies a serializer failure: an unknown tag keeps its
// class, a broken extension is a persistence fault
func serializationError(id string, err error) error {
	if errors.Is(err, models.ErrUnknownType) {
		return repositories.UnknownTypeError(requestEntity, id, err)
	}
	return repositories.NewRepositoryError("serialize", requestEntity, id, err)
}

func validateRequestID(id string) error {
	if !models.IsValidID(id) {
		return repositories.ValidationError(requestEntity, id, fmt.Errorf("invalid request ID format: %q", id))
	}
	return nil
}
