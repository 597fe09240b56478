//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cheerconnect/pkg/testutil/containers"
)

type RedisListSuite struct {
	suite.Suite
	rc   *containers.RedisContainer
	list *RedisList
	ctx  context.Context
}

func TestRedisListSuite(t *testing.T) {
	suite.Run(t, new(RedisListSuite))
}

func (s *RedisListSuite) SetupSuite() {
	s.rc = containers.GetManager().GetRedis(s.T())
	s.list = NewRedisList(s.rc.Client)
	s.ctx = context.Background()
}

func (s *RedisListSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(s.ctx))
}

func (s *RedisListSuite) TestRevokeAndCheck() {
	revoked, err := s.list.IsRevoked(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.list.Revoke(s.ctx, "sess-1", time.Minute))

	revoked, err = s.list.IsRevoked(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.True(revoked)

	// Other sessions are unaffected.
	revoked, err = s.list.IsRevoked(s.ctx, "sess-2")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisListSuite) TestRevocationExpires() {
	s.Require().NoError(s.list.Revoke(s.ctx, "sess-ttl", 100*time.Millisecond))

	revoked, err := s.list.IsRevoked(s.ctx, "sess-ttl")
	s.Require().NoError(err)
	s.True(revoked)

	time.Sleep(200 * time.Millisecond)

	revoked, err = s.list.IsRevoked(s.ctx, "sess-ttl")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisListSuite) TestEmptySessionIDIsNoop() {
	s.Require().NoError(s.list.Revoke(s.ctx, "", time.Minute))

	revoked, err := s.list.IsRevoked(s.ctx, "")
	s.Require().NoError(err)
	s.False(revoked)
}
