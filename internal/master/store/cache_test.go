package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/manekat/internal/master"
	"github.com/MrJamesThe3rd/manekat/internal/master/store"
)

const key = "manekat:master"

func stored() master.Config {
	return master.Config{
		Categories:  master.NewSet("Food", "Bills"),
		Members:     master.NewSet("A", "B"),
		MinTransfer: 50000,
	}
}

func newCache(t *testing.T, repo master.Repository) (*store.Cached, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return store.NewCached(repo, rdb, time.Minute), s
}

func TestCached_Get(t *testing.T) {
	t.Run("MissPopulates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := master.NewMockRepository(ctrl)
		c, s := newCache(t, repo)

		cfg := stored()
		repo.EXPECT().Get(gomock.Any()).Return(&cfg, nil)

		got, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, stored(), *got)
		assert.True(t, s.Exists(key))
		assert.Equal(t, time.Minute, s.TTL(key))
	})

	t.Run("HitSkipsStore", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := master.NewMockRepository(ctrl)
		c, _ := newCache(t, repo)

		cfg := stored()
		repo.EXPECT().Get(gomock.Any()).Return(&cfg, nil).Times(1)

		first, err := c.Get(context.Background())
		require.NoError(t, err)

		second, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, *first, *second)
	})

	t.Run("MalformedEntryFallsThrough", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := master.NewMockRepository(ctrl)
		c, s := newCache(t, repo)

		require.NoError(t, s.Set(key, "not json"))

		cfg := stored()
		repo.EXPECT().Get(gomock.Any()).Return(&cfg, nil)

		got, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, stored(), *got)

		raw, err := s.Get(key)
		require.NoError(t, err)
		assert.NotEqual(t, "not json", raw)
	})

	t.Run("RedisDownServesStore", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := master.NewMockRepository(ctrl)
		c, s := newCache(t, repo)

		s.SetError("LOADING redis is down")

		cfg := stored()
		repo.EXPECT().Get(gomock.Any()).Return(&cfg, nil)

		got, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, stored(), *got)
	})

	t.Run("StoreErrorNotCached", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := master.NewMockRepository(ctrl)
		c, s := newCache(t, repo)

		repo.EXPECT().Get(gomock.Any()).Return(nil, master.ErrNotFound)

		_, err := c.Get(context.Background())
		require.ErrorIs(t, err, master.ErrNotFound)
		assert.False(t, s.Exists(key))
	})
}

func TestCached_MutationsInvalidate(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(m *master.MockRepository)
		mutate    func(ctx context.Context, c *store.Cached) error
	}{
		{
			name: "CreateIfAbsent",
			setupMock: func(m *master.MockRepository) {
				m.EXPECT().CreateIfAbsent(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			mutate: func(ctx context.Context, c *store.Cached) error {
				_, err := c.CreateIfAbsent(ctx, stored())
				return err
			},
		},
		{
			name: "AddValue",
			setupMock: func(m *master.MockRepository) {
				m.EXPECT().AddValue(gomock.Any(), master.FieldMembers, "C").Return(nil)
			},
			mutate: func(ctx context.Context, c *store.Cached) error {
				return c.AddValue(ctx, master.FieldMembers, "C")
			},
		},
		{
			name: "RemoveValue",
			setupMock: func(m *master.MockRepository) {
				m.EXPECT().RemoveValue(gomock.Any(), master.FieldCategories, "Bills").Return(nil)
			},
			mutate: func(ctx context.Context, c *store.Cached) error {
				return c.RemoveValue(ctx, master.FieldCategories, "Bills")
			},
		},
		{
			name: "SetMinTransfer",
			setupMock: func(m *master.MockRepository) {
				m.EXPECT().SetMinTransfer(gomock.Any(), int64(75000)).Return(nil)
			},
			mutate: func(ctx context.Context, c *store.Cached) error {
				return c.SetMinTransfer(ctx, 75000)
			},
		},
		{
			name: "FailedWrite",
			setupMock: func(m *master.MockRepository) {
				m.EXPECT().SetMinTransfer(gomock.Any(), int64(1)).Return(errors.New("conn reset"))
			},
			mutate: func(ctx context.Context, c *store.Cached) error {
				_ = c.SetMinTransfer(ctx, 1)
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := master.NewMockRepository(ctrl)
			c, s := newCache(t, repo)
			ctx := context.Background()

			cfg := stored()
			repo.EXPECT().Get(gomock.Any()).Return(&cfg, nil)

			_, err := c.Get(ctx)
			require.NoError(t, err)
			require.True(t, s.Exists(key))

			tt.setupMock(repo)

			require.NoError(t, tt.mutate(ctx, c))
			assert.False(t, s.Exists(key))
		})
	}
}

// memRepo stands in for the shared database both processes write to.
type memRepo struct {
	mu  sync.Mutex
	cfg master.Config
}

func (r *memRepo) Get(context.Context) (*master.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return new(r.cfg.Clone()), nil
}

func (r *memRepo) Exists(context.Context) (bool, error) { return true, nil }

func (r *memRepo) CreateIfAbsent(context.Context, master.Config) (bool, error) { return false, nil }

func (r *memRepo) AddValue(_ context.Context, field master.Field, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch field {
	case master.FieldCategories:
		r.cfg.Categories.Add(value)
	case master.FieldMembers:
		r.cfg.Members.Add(value)
	}

	return nil
}

func (r *memRepo) RemoveValue(_ context.Context, field master.Field, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch field {
	case master.FieldCategories:
		r.cfg.Categories.Remove(value)
	case master.FieldMembers:
		r.cfg.Members.Remove(value)
	}

	return nil
}

func (r *memRepo) SetMinTransfer(_ context.Context, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg.MinTransfer = value

	return nil
}

func TestCached_RefreshingSeesOtherProcessWrites(t *testing.T) {
	ctx := context.Background()
	db := &memRepo{cfg: stored()}

	c, _ := newCache(t, db)

	api := master.NewManager(c, stored())
	console := master.NewManager(db, stored())

	got, err := api.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Members.Values())

	require.NoError(t, console.AddToSet(ctx, master.FieldMembers, "C"))

	got, err = api.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Members.Values(), "cached until invalidated")

	reload := c.Refreshing(api.Current)

	got, err = reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, got.Members.Values())

	got, err = api.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, got.Members.Values())
}
