package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sowell/internal/electorate/models"
)

type countingSource struct {
	states      atomic.Int32
	streetTypes atomic.Int32
	gate        chan struct{}
	err         error
}

func (s *countingSource) States(context.Context) ([]string, error) {
	s.states.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return []string{"OR", "WA"}, nil
}

func (s *countingSource) Directions(context.Context) (*models.Directions, error) {
	return &models.Directions{Directions: []models.ValueCount{{Value: "N", Count: 3}}}, nil
}

func (s *countingSource) StreetTypes(context.Context) ([]models.ValueCount, error) {
	s.streetTypes.Add(1)
	return []models.ValueCount{{Value: "St", Count: 9}}, nil
}

type ClassificationCacheSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	source *countingSource
	cache  *Classifications
}

func TestClassificationCacheSuite(t *testing.T) {
	suite.Run(t, new(ClassificationCacheSuite))
}

func (s *ClassificationCacheSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.source = &countingSource{}
	s.cache = New(s.source, s.client, time.Minute)
}

func (s *ClassificationCacheSuite) TearDownTest() {
	_ = s.client.Close()
}

func (s *ClassificationCacheSuite) TestSecondReadIsServedFromRedis() {
	ctx := context.Background()
	first, err := s.cache.States(ctx)
	s.Require().NoError(err)
	second, err := s.cache.States(ctx)
	s.Require().NoError(err)

	s.Equal([]string{"OR", "WA"}, first)
	s.Equal(first, second)
	s.Equal(int32(1), s.source.states.Load())
	s.True(s.mr.Exists(keyPrefix + "states"))
}

func (s *ClassificationCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	_, err := s.cache.StreetTypes(ctx)
	s.Require().NoError(err)

	s.mr.FastForward(2 * time.Minute)
	_, err = s.cache.StreetTypes(ctx)
	s.Require().NoError(err)
	s.Equal(int32(2), s.source.streetTypes.Load())
}

func (s *ClassificationCacheSuite) TestInvalidateForcesReload() {
	ctx := context.Background()
	_, err := s.cache.States(ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Invalidate(ctx))
	_, err = s.cache.States(ctx)
	s.Require().NoError(err)
	s.Equal(int32(2), s.source.states.Load())
}

func (s *ClassificationCacheSuite) TestRedisOutageFallsBackToSource() {
	s.mr.Close()
	got, err := s.cache.States(context.Background())
	s.Require().NoError(err)
	s.Equal([]string{"OR", "WA"}, got)
}

func (s *ClassificationCacheSuite) TestLoadErrorsAreNotCached() {
	s.source.err = errors.New("db down")
	_, err := s.cache.States(context.Background())
	s.Error(err)
	s.False(s.mr.Exists(keyPrefix + "states"))
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	source := &countingSource{gate: make(chan struct{})}
	c := New(source, nil, time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	wg.Add(callers)
	for range callers {
		go func() {
			defer wg.Done()
			got, err := c.States(context.Background())
			assert.NoError(t, err)
			assert.Len(t, got, 2)
		}()
	}

	require.Eventually(t, func() bool { return source.states.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(source.gate)
	wg.Wait()

	assert.Equal(t, int32(1), source.states.Load())
}
