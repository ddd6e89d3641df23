//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"verigate/internal/handshake/models"
	"verigate/internal/handshake/store"
	"verigate/pkg/domain"
	"verigate/pkg/platform/sentinel"
	"verigate/pkg/testutil"
	"verigate/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSingleUse() {
	ctx := context.Background()
	now := time.Now()
	h := models.NewHandshake(uuid.NewString(), domain.SubjectID(uuid.New()), now, time.Minute)
	s.Require().NoError(s.store.Save(ctx, h))

	got, err := s.store.Consume(ctx, h.Token, now)
	s.Require().NoError(err)
	s.Equal(h.SubjectID, got.SubjectID)

	_, err = s.store.Consume(ctx, h.Token, now)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *RedisStoreSuite) TestDuplicateIssueConflicts() {
	ctx := context.Background()
	now := time.Now()
	h := models.NewHandshake(uuid.NewString(), domain.SubjectID(uuid.New()), now, time.Minute)
	s.Require().NoError(s.store.Save(ctx, h))

	err := s.store.Save(ctx, h)
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *RedisStoreSuite) TestKeyCarriesHandshakeTTL() {
	ctx := context.Background()
	now := time.Now()
	h := models.NewHandshake(uuid.NewString(), domain.SubjectID(uuid.New()), now, 15*time.Minute)
	s.Require().NoError(s.store.Save(ctx, h))

	ttl, err := s.redis.TTL(ctx, "handshake:"+h.Token)
	s.Require().NoError(err)
	s.InDelta(15*60, ttl, 2)
}

func (s *RedisStoreSuite) TestKeyExpires() {
	ctx := context.Background()
	now := time.Now()
	h := models.NewHandshake(uuid.NewString(), domain.SubjectID(uuid.New()), now, time.Second)
	s.Require().NoError(s.store.Save(ctx, h))

	time.Sleep(1500 * time.Millisecond)
	_, err := s.store.Consume(ctx, h.Token, time.Now())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *RedisStoreSuite) TestConcurrentConsume() {
	ctx := context.Background()
	now := time.Now()
	h := models.NewHandshake(uuid.NewString(), domain.SubjectID(uuid.New()), now, time.Minute)
	s.Require().NoError(s.store.Save(ctx, h))

	result := testutil.RunConcurrent(20, func(int) error {
		_, err := s.store.Consume(ctx, h.Token, now)
		return err
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.NotFounds)
}
