package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

func newLink(code, owner, target string) *model.Link {
	return &model.Link{
		Code:      code,
		TargetURL: target,
		OwnerID:   owner,
		CreatedAt: time.Now(),
	}
}

// exerciseLinkRepository runs the behaviour every LinkRepository must share.
func exerciseLinkRepository(t *testing.T, repo LinkRepository) {
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newLink("aaa111", "owner1", "http://one.example")))
	require.NoError(t, repo.Create(ctx, newLink("bbb222", "owner2", "http://two.example")))
	require.NoError(t, repo.Create(ctx, newLink("ccc333", "owner1", "http://three.example")))

	t.Run("duplicate code", func(t *testing.T) {
		err := repo.Create(ctx, newLink("aaa111", "owner2", "http://dup.example"))
		assert.ErrorIs(t, err, ErrCodeExists)
	})

	t.Run("find", func(t *testing.T) {
		link, err := repo.FindByCode(ctx, "aaa111")
		require.NoError(t, err)
		assert.Equal(t, "http://one.example", link.TargetURL)
		assert.Equal(t, "owner1", link.OwnerID)

		_, err = repo.FindByCode(ctx, "zzz999")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := repo.CodeExists(ctx, "bbb222")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.CodeExists(ctx, "zzz999")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("list by owner keeps insertion order", func(t *testing.T) {
		links, err := repo.ListByOwner(ctx, "owner1")
		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, "aaa111", links[0].Code)
		assert.Equal(t, "ccc333", links[1].Code)

		links, err = repo.ListByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("update target", func(t *testing.T) {
		require.NoError(t, repo.UpdateTarget(ctx, "bbb222", "http://two-b.example"))

		link, err := repo.FindByCode(ctx, "bbb222")
		require.NoError(t, err)
		assert.Equal(t, "http://two-b.example", link.TargetURL)
		assert.Equal(t, "owner2", link.OwnerID)

		assert.ErrorIs(t, repo.UpdateTarget(ctx, "zzz999", "http://x.example"), ErrLinkNotFound)
	})

	t.Run("visits are appended in order", func(t *testing.T) {
		base := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, repo.AppendVisit(ctx, "aaa111", model.Visit{VisitorID: "A", Timestamp: base}))
		require.NoError(t, repo.AppendVisit(ctx, "aaa111", model.Visit{VisitorID: "", Timestamp: base.Add(time.Second)}))
		require.NoError(t, repo.AppendVisit(ctx, "aaa111", model.Visit{VisitorID: "B", Timestamp: base.Add(2 * time.Second)}))

		visits, err := repo.Visits(ctx, "aaa111")
		require.NoError(t, err)
		require.Len(t, visits, 3)
		assert.Equal(t, "A", visits[0].VisitorID)
		assert.Equal(t, "", visits[1].VisitorID)
		assert.Equal(t, "B", visits[2].VisitorID)

		visits, err = repo.Visits(ctx, "ccc333")
		require.NoError(t, err)
		assert.Empty(t, visits)

		assert.ErrorIs(t, repo.AppendVisit(ctx, "zzz999", model.Visit{VisitorID: "A"}), ErrLinkNotFound)
		_, err = repo.Visits(ctx, "zzz999")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("delete drops link and visits", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "aaa111"))

		_, err := repo.FindByCode(ctx, "aaa111")
		assert.ErrorIs(t, err, ErrLinkNotFound)
		_, err = repo.Visits(ctx, "aaa111")
		assert.ErrorIs(t, err, ErrLinkNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "aaa111"), ErrLinkNotFound)

		links, err := repo.ListByOwner(ctx, "owner1")
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "ccc333", links[0].Code)
	})
}

func exerciseUserRepository(t *testing.T, repo UserRepository) {
	ctx := context.Background()

	user := &model.User{ID: "user0001", Email: "a@x.com", PasswordHash: "hash", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, user))

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{ID: "user0002", Email: "a@x.com", PasswordHash: "h", CreatedAt: time.Now()})
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{ID: "user0001", Email: "b@x.com", PasswordHash: "h", CreatedAt: time.Now()})
		assert.ErrorIs(t, err, ErrUserIDExists)
	})

	t.Run("find", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "user0001", found.ID)
		assert.Equal(t, "hash", found.PasswordHash)

		found, err = repo.FindByID(ctx, "user0001")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", found.Email)

		_, err = repo.FindByEmail(ctx, "A@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound, "email match is exact")
		_, err = repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("id exists", func(t *testing.T) {
		exists, err := repo.IDExists(ctx, "user0001")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.IDExists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestMemoryLinkRepository(t *testing.T) {
	exerciseLinkRepository(t, NewMemoryLinkRepository())
}

func TestMemoryUserRepository(t *testing.T) {
	exerciseUserRepository(t, NewMemoryUserRepository())
}

func TestMemoryLinkRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryLinkRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newLink("aaa111", "owner1", "http://one.example")))

	link, err := repo.FindByCode(ctx, "aaa111")
	require.NoError(t, err)
	link.TargetURL = "http://mutated.example"

	again, err := repo.FindByCode(ctx, "aaa111")
	require.NoError(t, err)
	assert.Equal(t, "http://one.example", again.TargetURL)

	require.NoError(t, repo.AppendVisit(ctx, "aaa111", model.Visit{VisitorID: "A"}))
	visits, err := repo.Visits(ctx, "aaa111")
	require.NoError(t, err)
	visits[0].VisitorID = "Z"

	visits, err = repo.Visits(ctx, "aaa111")
	require.NoError(t, err)
	assert.Equal(t, "A", visits[0].VisitorID)
}
