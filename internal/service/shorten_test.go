package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jrg-tools/short-url/internal/alias"
	"github.com/jrg-tools/short-url/internal/database"
	"github.com/jrg-tools/short-url/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testSecretKey = "secret"
	testOrigin    = "https://example.com/a/b?c=1"
)

type ShortenServiceTestSuite struct {
	suite.Suite
	errUnknown error
	repoMock   *mockURLRepository
	cacheMock  *mockCache
	svc        *ShortenService
}

func (suite *ShortenServiceTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
}

func (suite *ShortenServiceTestSuite) SetupSubTest() {
	suite.repoMock = new(mockURLRepository)
	suite.cacheMock = new(mockCache)
	suite.svc = NewShortenService(suite.repoMock, suite.cacheMock, testSecretKey, alias.DefaultLength)
}

func (suite *ShortenServiceTestSuite) TearDownSubTest() {
	suite.repoMock.AssertExpectations(suite.T())
	suite.cacheMock.AssertExpectations(suite.T())
}

func (suite *ShortenServiceTestSuite) TestShorten() {
	derivedAlias, err := alias.Generate(testOrigin, testSecretKey, alias.DefaultLength)
	suite.Require().NoError(err)

	suite.Run("derivation failure", func() {
		suite.svc = NewShortenService(suite.repoMock, suite.cacheMock, "", alias.DefaultLength)

		url, created, err := suite.svc.Shorten(context.Background(), testOrigin)

		suite.Error(err)
		suite.ErrorIs(err, alias.ErrEmptyKey)
		suite.False(created)
		suite.Nil(url)
	})

	suite.Run("creates a new record", func() {
		suite.repoMock.
			On("CreateIfAbsent", context.Background(), derivedAlias, testOrigin).
			Once().
			Return(&models.ShortURL{Alias: derivedAlias, Origin: testOrigin}, true, nil)

		url, created, err := suite.svc.Shorten(context.Background(), testOrigin)

		suite.NoError(err)
		suite.True(created)
		suite.NotNil(url)
		suite.Equal(derivedAlias, url.Alias)
		suite.Equal(testOrigin, url.Origin)
	})

	suite.Run("returns the existing record", func() {
		suite.repoMock.
			On("CreateIfAbsent", context.Background(), derivedAlias, testOrigin).
			Once().
			Return(&models.ShortURL{Alias: derivedAlias, Origin: testOrigin, Hits: 7}, false, nil)

		url, created, err := suite.svc.Shorten(context.Background(), testOrigin)

		suite.NoError(err)
		suite.False(created)
		suite.NotNil(url)
		suite.Equal(derivedAlias, url.Alias)
		suite.Equal(int64(7), url.Hits)
	})

	suite.Run("retries with a salted alias on collision", func() {
		suite.repoMock.
			On("CreateIfAbsent", context.Background(), derivedAlias, testOrigin).
			Once().
			Return(nil, false, database.ErrAliasTaken)
		suite.repoMock.
			On("CreateIfAbsent", context.Background(), mock.Anything, testOrigin).
			Once().
			Return(&models.ShortURL{Alias: "z9Y8x7", Origin: testOrigin}, true, nil)

		url, created, err := suite.svc.Shorten(context.Background(), testOrigin)

		suite.NoError(err)
		suite.True(created)
		suite.NotNil(url)
		suite.NotEqual(derivedAlias, url.Alias)
	})

	suite.Run("maximum retries error", func() {
		suite.repoMock.
			On("CreateIfAbsent", context.Background(), mock.Anything, testOrigin).
			Times(3).
			Return(nil, false, database.ErrAliasTaken)

		url, created, err := suite.svc.Shorten(context.Background(), testOrigin)

		suite.Error(err)
		suite.ErrorIs(err, ErrMaxRetriesExceeded)
		suite.False(created)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.repoMock.
			On("CreateIfAbsent", context.Background(), derivedAlias, testOrigin).
			Once().
			Return(nil, false, suite.errUnknown)

		url, created, err := suite.svc.Shorten(context.Background(), testOrigin)

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.False(created)
		suite.Nil(url)
	})
}

func (suite *ShortenServiceTestSuite) TestDelete() {
	suite.Run("store error", func() {
		suite.repoMock.
			On("Delete", context.Background(), "a1B2c3").
			Once().
			Return(suite.errUnknown)

		err := suite.svc.Delete(context.Background(), "a1B2c3")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("success evicts the cache entry", func() {
		suite.repoMock.
			On("Delete", context.Background(), "a1B2c3").
			Once().
			Return(nil)
		suite.cacheMock.
			On("Delete", context.Background(), "a1B2c3").
			Once().
			Return()

		err := suite.svc.Delete(context.Background(), "a1B2c3")

		suite.NoError(err)
	})
}

func (suite *ShortenServiceTestSuite) TestSearch() {
	suite.Run("normalizes pagination", func() {
		suite.repoMock.
			On("Search", context.Background(), "example", DefaultPage, DefaultPageSize).
			Once().
			Return([]models.ShortURL{}, int64(0), nil)

		_, _, err := suite.svc.Search(context.Background(), "example", 0, 0)

		suite.NoError(err)
	})

	suite.Run("caps oversized pages", func() {
		suite.repoMock.
			On("Search", context.Background(), "example", 2, MaxPageSize).
			Once().
			Return([]models.ShortURL{}, int64(0), nil)

		_, _, err := suite.svc.Search(context.Background(), "example", 2, 1000)

		suite.NoError(err)
	})

	suite.Run("success", func() {
		urls := []models.ShortURL{{Alias: "a1B2c3", Origin: "https://example.com"}}

		suite.repoMock.
			On("Search", context.Background(), "example", 1, 10).
			Once().
			Return(urls, int64(25), nil)

		got, total, err := suite.svc.Search(context.Background(), "example", 1, 10)

		suite.NoError(err)
		suite.Equal(int64(25), total)
		suite.Equal(urls, got)
	})
}

func (suite *ShortenServiceTestSuite) TestList() {
	suite.Run("unknown error", func() {
		suite.repoMock.
			On("ListAll", context.Background(), 1, 10).
			Once().
			Return(nil, int64(0), suite.errUnknown)

		urls, total, err := suite.svc.List(context.Background(), 1, 10)

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
		suite.Zero(total)
	})

	suite.Run("success", func() {
		urls := []models.ShortURL{
			{Alias: "a1B2c3", Origin: "https://example.com/1"},
			{Alias: "x9Y8z7", Origin: "https://example.com/2"},
		}

		suite.repoMock.
			On("ListAll", context.Background(), 1, 10).
			Once().
			Return(urls, int64(2), nil)

		got, total, err := suite.svc.List(context.Background(), 1, 10)

		suite.NoError(err)
		suite.Equal(int64(2), total)
		suite.Equal(urls, got)
	})
}

func TestShortenService(t *testing.T) {
	suite.Run(t, new(ShortenServiceTestSuite))
}
