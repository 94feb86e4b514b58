//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"elan/internal/revocation"
	"elan/pkg/testutil/containers"
)

type PostgresListSuite struct {
	suite.Suite
	pg   *containers.PostgresContainer
	list *revocation.PostgresList
}

func TestPostgresListSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresListSuite))
}

func (s *PostgresListSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.list = revocation.NewPostgresList(s.pg.DB)
	s.Require().NoError(s.list.Schema(context.Background()))
}

func (s *PostgresListSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), `TRUNCATE token_revocations`)
	s.Require().NoError(err)
}

func (s *PostgresListSuite) TestRevokeAndCheck() {
	ctx := context.Background()

	s.Require().NoError(s.list.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := s.list.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	revoked, err = s.list.IsRevoked(ctx, "jti-other")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *PostgresListSuite) TestRevokeIsUpsert() {
	ctx := context.Background()

	s.Require().NoError(s.list.Revoke(ctx, "jti-1", time.Minute))
	s.Require().NoError(s.list.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := s.list.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *PostgresListSuite) TestSweepRemovesExpiredRows() {
	ctx := context.Background()

	_, err := s.pg.DB.ExecContext(ctx,
		`INSERT INTO token_revocations (jti, expires_at) VALUES ('jti-old', now() - interval '1 hour')`)
	s.Require().NoError(err)
	s.Require().NoError(s.list.Revoke(ctx, "jti-live", time.Hour))

	removed, err := s.list.Sweep(ctx)
	s.Require().NoError(err)
	s.EqualValues(1, removed)

	revoked, err := s.list.IsRevoked(ctx, "jti-live")
	s.Require().NoError(err)
	s.True(revoked)
}
