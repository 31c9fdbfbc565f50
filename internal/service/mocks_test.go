package service

import (
	"context"

	"github.com/jrg-tools/short-url/internal/models"
	"github.com/stretchr/testify/mock"
)

type mockURLRepository struct {
	mock.Mock
}

func (m *mockURLRepository) CreateIfAbsent(ctx context.Context, alias, origin string) (*models.ShortURL, bool, error) {
	args := m.Called(ctx, alias, origin)

	var url *models.ShortURL
	if v := args.Get(0); v != nil {
		url = v.(*models.ShortURL)
	}

	return url, args.Bool(1), args.Error(2)
}

func (m *mockURLRepository) GetByAlias(ctx context.Context, alias string) (*models.ShortURL, error) {
	args := m.Called(ctx, alias)

	var url *models.ShortURL
	if v := args.Get(0); v != nil {
		url = v.(*models.ShortURL)
	}

	return url, args.Error(1)
}

func (m *mockURLRepository) GetByOrigin(ctx context.Context, origin string) (*models.ShortURL, error) {
	args := m.Called(ctx, origin)

	var url *models.ShortURL
	if v := args.Get(0); v != nil {
		url = v.(*models.ShortURL)
	}

	return url, args.Error(1)
}

func (m *mockURLRepository) Search(ctx context.Context, query string, page, size int) ([]models.ShortURL, int64, error) {
	args := m.Called(ctx, query, page, size)

	var urls []models.ShortURL
	if v := args.Get(0); v != nil {
		urls = v.([]models.ShortURL)
	}

	return urls, args.Get(1).(int64), args.Error(2)
}

func (m *mockURLRepository) ListAll(ctx context.Context, page, size int) ([]models.ShortURL, int64, error) {
	args := m.Called(ctx, page, size)

	var urls []models.ShortURL
	if v := args.Get(0); v != nil {
		urls = v.([]models.ShortURL)
	}

	return urls, args.Get(1).(int64), args.Error(2)
}

func (m *mockURLRepository) IncrementHits(ctx context.Context, alias string, observed int64) error {
	args := m.Called(ctx, alias, observed)
	return args.Error(0)
}

func (m *mockURLRepository) Delete(ctx context.Context, alias string) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, alias string) (string, bool) {
	args := m.Called(ctx, alias)
	return args.String(0), args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, alias, origin string) {
	m.Called(ctx, alias, origin)
}

func (m *mockCache) Delete(ctx context.Context, alias string) {
	m.Called(ctx, alias)
}
