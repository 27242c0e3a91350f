package sqlstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"identhub/pkg/platform/sentinel"
)

type SQLiteStoreSuite struct {
	suite.Suite
	store *Store
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "nested", "identhub.db")
	store, err := OpenSQLite(context.Background(), path, slog.Default())
	s.Require().NoError(err)
	s.store = store
	s.T().Cleanup(func() { _ = store.Close() })
}

func (s *SQLiteStoreSuite) TestLoadMissing() {
	_, err := s.store.Load(context.Background(), "session")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SQLiteStoreSuite) TestSaveOverwrites() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "session", []byte("v1")))
	s.Require().NoError(s.store.Save(ctx, "session", []byte("v2")))

	blob, err := s.store.Load(ctx, "session")
	s.Require().NoError(err)
	s.Equal("v2", string(blob))
}

func (s *SQLiteStoreSuite) TestDeleteAndClear() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "a", []byte("1")))
	s.Require().NoError(s.store.Save(ctx, "b", []byte("2")))

	s.Run("delete removes one key", func() {
		s.Require().NoError(s.store.Delete(ctx, "a"))
		_, err := s.store.Load(ctx, "a")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.Load(ctx, "b")
		s.NoError(err)
	})

	s.Run("clear removes everything", func() {
		s.Require().NoError(s.store.Clear(ctx))
		_, err := s.store.Load(ctx, "b")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SQLiteStoreSuite) TestReopenKeepsData() {
	ctx := context.Background()
	path := filepath.Join(s.T().TempDir(), "reopen.db")

	first, err := OpenSQLite(ctx, path, nil)
	s.Require().NoError(err)
	s.Require().NoError(first.Save(ctx, "session", []byte("persisted")))
	s.Require().NoError(first.Close())

	second, err := OpenSQLite(ctx, path, nil)
	s.Require().NoError(err)
	defer second.Close()
	blob, err := second.Load(ctx, "session")
	s.Require().NoError(err)
	s.Equal("persisted", string(blob))
}
