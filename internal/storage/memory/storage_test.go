package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/communityportal/internal/dependencies/mocks"
	"github.com/mcoot/communityportal/internal/model"
)

type StorageSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s.storage = New(s.clock, time.Minute)
	s.ctx = context.Background()
}

// Client state tests

func (s *StorageSuite) TestSaveAndGetEntries() {
	err := s.storage.SaveEntries(s.ctx, "client-1", map[string]string{
		"token": "abc.def.ghi",
		"user":  `{"userId":7}`,
	})
	s.Require().NoError(err)

	token, err := s.storage.GetEntry(s.ctx, "client-1", "token")
	s.Require().NoError(err)
	s.Equal("abc.def.ghi", token)

	user, err := s.storage.GetEntry(s.ctx, "client-1", "user")
	s.Require().NoError(err)
	s.Equal(`{"userId":7}`, user)
}

func (s *StorageSuite) TestGetEntryNotFound() {
	_, err := s.storage.GetEntry(s.ctx, "client-1", "token")
	s.ErrorIs(err, model.ErrEntryNotFound)
}

func (s *StorageSuite) TestEntriesAreScopedToClient() {
	_ = s.storage.SaveEntries(s.ctx, "client-1", map[string]string{"token": "one"})

	_, err := s.storage.GetEntry(s.ctx, "client-2", "token")
	s.ErrorIs(err, model.ErrEntryNotFound)
}

func (s *StorageSuite) TestDeleteEntries() {
	_ = s.storage.SaveEntries(s.ctx, "client-1", map[string]string{"token": "t", "user": "u"})

	err := s.storage.DeleteEntries(s.ctx, "client-1", "token", "user")
	s.Require().NoError(err)

	_, err = s.storage.GetEntry(s.ctx, "client-1", "token")
	s.ErrorIs(err, model.ErrEntryNotFound)
	_, err = s.storage.GetEntry(s.ctx, "client-1", "user")
	s.ErrorIs(err, model.ErrEntryNotFound)
}

func (s *StorageSuite) TestDeleteEntriesUnknownClient() {
	s.NoError(s.storage.DeleteEntries(s.ctx, "nobody", "token"))
}

// Content cache tests

func (s *StorageSuite) TestContentCacheHit() {
	s.Require().NoError(s.storage.SaveContent(s.ctx, "news", []byte(`[]`)))

	data, err := s.storage.GetContent(s.ctx, "news")
	s.Require().NoError(err)
	s.Equal(`[]`, string(data))
}

func (s *StorageSuite) TestContentCacheExpires() {
	_ = s.storage.SaveContent(s.ctx, "news", []byte(`[]`))

	s.clock.Advance(time.Minute)

	_, err := s.storage.GetContent(s.ctx, "news")
	s.ErrorIs(err, model.ErrCacheMiss)
}

func (s *StorageSuite) TestContentCacheWithoutTTL() {
	store := New(s.clock, 0)
	_ = store.SaveContent(s.ctx, "news", []byte(`[]`))

	s.clock.Advance(24 * time.Hour)

	_, err := store.GetContent(s.ctx, "news")
	s.NoError(err)
}

func (s *StorageSuite) TestInvalidateContent() {
	_ = s.storage.SaveContent(s.ctx, "news", []byte(`[]`))
	_ = s.storage.SaveContent(s.ctx, "events", []byte(`[]`))

	s.Require().NoError(s.storage.InvalidateContent(s.ctx, "news", "missing"))

	_, err := s.storage.GetContent(s.ctx, "news")
	s.ErrorIs(err, model.ErrCacheMiss)
	_, err = s.storage.GetContent(s.ctx, "events")
	s.NoError(err)
}
