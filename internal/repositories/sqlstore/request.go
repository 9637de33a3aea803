package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

const (
	requestsTable = "requests"
	requestEntity = "request"

	requestColumns = `id, user_id, request_type, title, description, due_date, created_at, updated_at`

	// Undated requests sort after dated ones; created_at and id keep pages stable
	requestOrder = `ORDER BY CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, created_at ASC, id ASC`
)

// extensionTable returns the table holding extensions of type t
func extensionTable(t models.RequestType) (string, error) {
	switch t {
	case models.RequestTypeBuyAndDeliver:
		return "buy_and_deliver_requests", nil
	case models.RequestTypePickupAndDeliver:
		return "pickup_and_deliver_requests", nil
	case models.RequestTypeOnlineService:
		return "online_service_requests", nil
	default:
		return "", &models.UnknownTypeError{Type: string(t)}
	}
}

// RequestRepository implements the RequestRepository interface over sqlx
type RequestRepository struct {
	*BaseRepository[models.Request]
	tm repositories.TransactionManager
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlx.DB, tm repositories.TransactionManager, query repositories.QueryConfig, logger *logrus.Logger) *RequestRepository {
	return &RequestRepository{
		BaseRepository: NewBaseRepository[models.Request](db, requestsTable, query, logger),
		tm:             tm,
	}
}

// Insert writes the base row and the extension row in one transaction and
// returns the stored request
func (r *RequestRepository) Insert(ctx context.Context, userID string, input *models.CreateRequestInput) (*models.Request, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repositories.ValidationError(requestEntity, "", fmt.Errorf("user ID is required"))
	}
	if input == nil {
		return nil, repositories.ValidationError(requestEntity, "", fmt.Errorf("request input cannot be nil"))
	}
	if !input.Type.IsValid() {
		return nil, repositories.UnknownTypeError(requestEntity, "", &models.UnknownTypeError{Type: string(input.Type)})
	}
	if err := input.Validate(); err != nil {
		return nil, repositories.ValidationError(requestEntity, "", err)
	}

	request := input.NewRequest(userID)
	ext, err := input.NewExtension(request.ID)
	if err != nil {
		return nil, repositories.ValidationError(requestEntity, request.ID, err)
	}

	var created *models.Request
	err = r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		query := `INSERT INTO requests (` + requestColumns + `)
			VALUES (:id, :user_id, :request_type, :title, :description, :due_date, :created_at, :updated_at)`
		if _, err := r.executeNamed(ctx, "insert", request.ID, query, request); err != nil {
			return err
		}

		if err := r.insertExtension(ctx, ext); err != nil {
			return err
		}

		stored, err := r.getByID(ctx, request.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return repositories.NewRepositoryError("insert", requestEntity, request.ID, fmt.Errorf("inserted row not visible"))
		}
		created = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"request_id":   created.ID,
		"request_type": created.Type,
		"user_id":      created.UserID,
	}).Info("Request created")

	return created, nil
}

func (r *RequestRepository) insertExtension(ctx context.Context, ext models.Extension) error {
	table, err := extensionTable(ext.RequestType())
	if err != nil {
		return repositories.UnknownTypeError(requestEntity, ext.Key(), err)
	}
	fields, err := models.ExtensionFields(ext.RequestType())
	if err != nil {
		return repositories.UnknownTypeError(requestEntity, ext.Key(), err)
	}

	query := fmt.Sprintf("INSERT INTO %s (request_id, %s) VALUES (:request_id, :%s)",
		table, strings.Join(fields, ", "), strings.Join(fields, ", :"))
	_, err = r.executeNamed(ctx, "insert_extension", ext.Key(), query, ext)
	return err
}

// GetByID returns the base row, or nil if no request has that ID
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	var request *models.Request
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		request, err = r.getByID(ctx, id)
		return err
	})
	return request, err
}

func (r *RequestRepository) getByID(ctx context.Context, id string) (*models.Request, error) {
	return r.getRow(ctx, "get_by_id", id, "")
}

// getRow loads one base row; suffix is appended to the statement (row locks)
func (r *RequestRepository) getRow(ctx context.Context, operation, id, suffix string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?` + suffix

	var request models.Request
	if err := r.get(ctx, operation, id, &request, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	request.DueDate = models.NormalizeTime(request.DueDate)
	request.CreatedAt = request.CreatedAt.UTC()
	request.UpdatedAt = request.UpdatedAt.UTC()
	return &request, nil
}

// List returns a window of requests ordered by ascending due date
func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*models.Request, error) {
	page, err := r.query.ResolvePage(limit, offset)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + requestColumns + ` FROM requests ` + requestOrder + ` LIMIT ? OFFSET ?`
	return r.listRows(ctx, "list", query, page.Limit, page.Offset)
}

// ListByUser returns a window of the requests owned by userID
func (r *RequestRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Request, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repositories.ValidationError(requestEntity, "", fmt.Errorf("user ID is required"))
	}
	page, err := r.query.ResolvePage(limit, offset)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + requestColumns + ` FROM requests WHERE user_id = ? ` + requestOrder + ` LIMIT ? OFFSET ?`
	return r.listRows(ctx, "list_by_user", query, userID, page.Limit, page.Offset)
}

func (r *RequestRepository) listRows(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Request, error) {
	var requests []*models.Request
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		return r.selectRows(ctx, operation, &requests, query, args...)
	})
	if err != nil {
		return nil, err
	}

	for _, request := range requests {
		request.DueDate = models.NormalizeTime(request.DueDate)
		request.CreatedAt = request.CreatedAt.UTC()
		request.UpdatedAt = request.UpdatedAt.UTC()
	}
	if requests == nil {
		requests = []*models.Request{}
	}
	return requests, nil
}

// Update applies patch to the stored request and its extension in one
// transaction. A missing request yields nil.
func (r *RequestRepository) Update(ctx context.Context, id string, patch *models.RequestPatch) (*models.Request, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, repositories.ValidationError(requestEntity, id, fmt.Errorf("patch cannot be nil"))
	}

	var updated *models.Request
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := r.getRow(ctx, "update_lock", id, r.lockClause())
		if err != nil || current == nil {
			return err
		}

		if !current.Type.IsValid() {
			return repositories.UnknownTypeError(requestEntity, id, &models.UnknownTypeError{Type: string(current.Type)})
		}
		if err := patch.ValidateFor(current.Type); err != nil {
			return repositories.ValidationError(requestEntity, id, err)
		}

		patch.ApplyTo(current)
		query := `UPDATE requests
			SET title = :title, description = :description, due_date = :due_date, updated_at = :updated_at
			WHERE id = :id`
		result, err := r.executeNamed(ctx, "update", id, query, current)
		if err != nil {
			return err
		}
		if ok, err := r.rowsAffected(result, "update", id); err != nil || !ok {
			return err
		}

		if len(patch.Coordinates) > 0 {
			ext, err := r.GetExtension(ctx, current)
			if err != nil {
				return err
			}
			if err := patch.ApplyToExtension(ext); err != nil {
				return repositories.ValidationError(requestEntity, id, err)
			}
			if err := r.updateExtension(ctx, ext); err != nil {
				return err
			}
		}

		updated, err = r.getByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if updated != nil {
		r.logger.WithFields(logrus.Fields{
			"request_id": id,
			"fields":     patch.Fields(),
		}).Info("Request updated")
	}
	return updated, nil
}

// lockClause returns the row lock suffix for read-modify-write statements.
// SQLite serializes writers on its own.
func (r *RequestRepository) lockClause() string {
	if r.isPostgres() {
		return " FOR UPDATE"
	}
	return ""
}

func (r *RequestRepository) updateExtension(ctx context.Context, ext models.Extension) error {
	table, err := extensionTable(ext.RequestType())
	if err != nil {
		return repositories.UnknownTypeError(requestEntity, ext.Key(), err)
	}
	fields, err := models.ExtensionFields(ext.RequestType())
	if err != nil {
		return repositories.UnknownTypeError(requestEntity, ext.Key(), err)
	}

	assignments := make([]string, len(fields))
	for i, field := range fields {
		assignments[i] = fmt.Sprintf("%s = :%s", field, field)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE request_id = :request_id", table, strings.Join(assignments, ", "))

	result, err := r.executeNamed(ctx, "update_extension", ext.Key(), query, ext)
	if err != nil {
		return err
	}
	ok, err := r.rowsAffected(result, "update_extension", ext.Key())
	if err != nil {
		return err
	}
	if !ok {
		return repositories.NewRepositoryError("update_extension", requestEntity, ext.Key(),
			fmt.Errorf("%w: no %s row", models.ErrExtensionMismatch, table))
	}
	return nil
}

// Delete removes the request; its extension and favorites go by cascade
func (r *RequestRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := r.validateID(id); err != nil {
		return false, err
	}

	var deleted bool
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		result, err := r.executeExec(ctx, "delete", id, "DELETE FROM requests WHERE id = ?", id)
		if err != nil {
			return err
		}
		deleted, err = r.rowsAffected(result, "delete", id)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		r.logger.WithField("request_id", id).Info("Request deleted")
	}
	return deleted, nil
}

// Exists checks if a request with the given ID exists
func (r *RequestRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		exists, err = r.BaseRepository.Exists(ctx, id)
		return err
	})
	return exists, err
}

// GetExtension loads the extension row matching the request's tag
func (r *RequestRepository) GetExtension(ctx context.Context, request *models.Request) (models.Extension, error) {
	if request == nil {
		return nil, repositories.ValidationError(requestEntity, "", fmt.Errorf("request cannot be nil"))
	}

	ext, err := models.NewExtension(request.Type, request.ID)
	if err != nil {
		return nil, repositories.UnknownTypeError(requestEntity, request.ID, err)
	}
	table, err := extensionTable(request.Type)
	if err != nil {
		return nil, repositories.UnknownTypeError(requestEntity, request.ID, err)
	}
	fields, err := models.ExtensionFields(request.Type)
	if err != nil {
		return nil, repositories.UnknownTypeError(requestEntity, request.ID, err)
	}

	query := fmt.Sprintf("SELECT request_id, %s FROM %s WHERE request_id = ?", strings.Join(fields, ", "), table)
	err = r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		return r.get(ctx, "get_extension", request.ID, ext, query, request.ID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NewRepositoryError("get_extension", requestEntity, request.ID,
				fmt.Errorf("%w: request %s has no %s row", models.ErrExtensionMismatch, request.ID, table))
		}
		return nil, err
	}
	return ext, nil
}

// GetComplete returns the request joined with its extension, or nil if absent
func (r *RequestRepository) GetComplete(ctx context.Context, id string) (*models.CompleteRequest, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	var complete *models.CompleteRequest
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		request, err := r.getByID(ctx, id)
		if err != nil || request == nil {
			return err
		}
		ext, err := r.GetExtension(ctx, request)
		if err != nil {
			return err
		}
		complete = &models.CompleteRequest{Request: request, Extension: ext}
		return nil
	})
	return complete, err
}

// LoadExtensions joins extensions onto requests with one query per type.
// The result preserves the order of requests.
func (r *RequestRepository) LoadExtensions(ctx context.Context, requests []*models.Request) ([]*models.CompleteRequest, error) {
	if len(requests) == 0 {
		return []*models.CompleteRequest{}, nil
	}

	byType := make(map[models.RequestType][]string)
	for _, request := range requests {
		if !request.Type.IsValid() {
			return nil, repositories.UnknownTypeError(requestEntity, request.ID, &models.UnknownTypeError{Type: string(request.Type)})
		}
		byType[request.Type] = append(byType[request.Type], request.ID)
	}

	loaded := make(map[string]models.Extension, len(requests))
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		for _, t := range models.RequestTypes() {
			ids := byType[t]
			if len(ids) == 0 {
				continue
			}
			if err := r.loadExtensionsOfType(ctx, t, ids, loaded); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	complete := make([]*models.CompleteRequest, 0, len(requests))
	for _, request := range requests {
		ext, ok := loaded[request.ID]
		if !ok {
			return nil, repositories.NewRepositoryError("load_extensions", requestEntity, request.ID,
				fmt.Errorf("%w: request %s has no %s extension", models.ErrExtensionMismatch, request.ID, request.Type))
		}
		complete = append(complete, &models.CompleteRequest{Request: request, Extension: ext})
	}
	return complete, nil
}

func (r *RequestRepository) loadExtensionsOfType(ctx context.Context, t models.RequestType, ids []string, into map[string]models.Extension) error {
	table, err := extensionTable(t)
	if err != nil {
		return repositories.UnknownTypeError(requestEntity, "", err)
	}
	fields, err := models.ExtensionFields(t)
	if err != nil {
		return repositories.UnknownTypeError(requestEntity, "", err)
	}

	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT request_id, %s FROM %s WHERE request_id IN (?)", strings.Join(fields, ", "), table),
		ids,
	)
	if err != nil {
		return repositories.NewRepositoryError("load_extensions", requestEntity, "", err)
	}

	ext := r.executor(ctx)
	query = ext.Rebind(query)

	start := time.Now()
	rows, err := ext.QueryxContext(ctx, query, args...)
	r.logQuery("load_extensions", query, args, time.Since(start), err)
	if err != nil {
		return classifyError("load_extensions", table, "", err)
	}
	defer rows.Close()

	for rows.Next() {
		extension, err := models.NewExtension(t, "")
		if err != nil {
			return repositories.UnknownTypeError(requestEntity, "", err)
		}
		if err := rows.StructScan(extension); err != nil {
			return classifyError("load_extensions", table, "", err)
		}
		into[extension.Key()] = extension
	}
	if err := rows.Err(); err != nil {
		return classifyError("load_extensions", table, "", err)
	}
	return nil
}
