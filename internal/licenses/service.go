package licenses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	pkgpagination "github.com/pluginbazaar/pluginbazaar-backend/pkg/pagination"
)

type licensesRepository interface {
	FindByKey(ctx context.Context, key string) (*models.PluginLicense, error)
	List(ctx context.Context, opts listQuery) ([]models.PluginLicense, error)
}

// Service exposes the license read API.
type Service interface {
	GetByKey(ctx context.Context, key string) (*ListItem, error)
	ListLicenses(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo licensesRepository
}

// NewService builds the license read service.
func NewService(repo licensesRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("license repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByKey(ctx context.Context, key string) (*ListItem, error) {
	if strings.TrimSpace(key) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license key required")
	}
	license, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}
	item := toListItem(*license)
	return &item, nil
}

func (s *service) ListLicenses(ctx context.Context, params ListParams) (*ListResult, error) {
	if strings.TrimSpace(params.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		email: params.Email,
		limit: pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list licenses")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}

	return &ListResult{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}
