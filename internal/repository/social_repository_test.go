package repository_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/nikolayk812/wardrobe/internal/repository"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/goleak"
)

type socialRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	repo      port.SocialRepository
	listings  port.ListingRepository
	container testcontainers.Container
}

func TestSocialRepositorySuite(t *testing.T) {
	defer goleak.VerifyNone(t)

	suite.Run(t, new(socialRepositorySuite))
}

func (suite *socialRepositorySuite) SetupSuite() {
	var err error

	suite.container, suite.pool, err = startDatabase(suite.T().Context())
	suite.Require().NoError(err)

	suite.repo = repository.NewSocial(suite.pool)
	suite.listings = repository.NewListing(suite.pool)
}

func (suite *socialRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *socialRepositorySuite) TearDownTest() {
	suite.NoError(truncateAll(suite.T().Context(), suite.pool))
}

func fakePost(authorID string) domain.Post {
	return domain.Post{
		AuthorID:   authorID,
		Content:    gofakeit.Sentence(12),
		Category:   domain.PostCategoryOutfit,
		Visibility: domain.VisibilityPublic,
		ImageURLs:  []string{gofakeit.URL(), gofakeit.URL()},
	}
}

func (suite *socialRepositorySuite) TestFollow() {
	t := suite.T()
	ctx := t.Context()

	alice, bob, carol := gofakeit.UUID(), gofakeit.UUID(), gofakeit.UUID()

	require.NoError(t, suite.repo.Follow(ctx, alice, bob))
	require.NoError(t, suite.repo.Follow(ctx, carol, bob))
	require.NoError(t, suite.repo.Follow(ctx, bob, alice))

	err := suite.repo.Follow(ctx, alice, bob)
	require.EqualError(t, err, "q.InsertFollow: already following")
	require.ErrorIs(t, err, domain.ErrAlreadyFollowing)

	require.ErrorIs(t, suite.repo.Follow(ctx, alice, alice), domain.ErrSelfFollow)

	followers, err := suite.repo.Followers(ctx, bob, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), followers.Total)
	assert.ElementsMatch(t, []string{alice, carol}, lo.Map(followers.Users, func(f domain.Follow, _ int) string { return f.FollowerID }))

	firstPage, err := suite.repo.Followers(ctx, bob, domain.Page{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, firstPage.Users, 1)
	assert.Equal(t, int64(2), firstPage.Total)

	following, err := suite.repo.Following(ctx, alice, domain.Page{})
	require.NoError(t, err)
	require.Len(t, following.Users, 1)
	assert.Equal(t, bob, following.Users[0].FolloweeID)

	require.NoError(t, suite.repo.Unfollow(ctx, alice, bob))
	require.EqualError(t, suite.repo.Unfollow(ctx, alice, bob), "q.DeleteFollow: follow not found")
}

func (suite *socialRepositorySuite) TestPosts() {
	t := suite.T()
	ctx := t.Context()

	listingID, err := suite.listings.CreateListing(ctx, fakeListing())
	require.NoError(t, err)

	in := fakePost(gofakeit.UUID())
	in.ListingID = &listingID

	created, err := suite.repo.InsertPost(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	actual, err := suite.repo.GetPost(ctx, created.ID)
	require.NoError(t, err)

	diff := cmp.Diff(in, actual,
		cmpopts.IgnoreFields(domain.Post{}, "ID", "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
	)
	assert.Empty(t, diff)

	// deleting the listing keeps the post
	require.NoError(t, suite.listings.DeleteListing(ctx, listingID))
	actual, err = suite.repo.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, actual.ListingID)

	require.NoError(t, suite.repo.DeletePost(ctx, created.ID))
	_, err = suite.repo.GetPost(ctx, created.ID)
	require.ErrorIs(t, err, repository.ErrPostNotFound)
	require.EqualError(t, suite.repo.DeletePost(ctx, created.ID), "q.DeletePost: post not found")
}

func (suite *socialRepositorySuite) TestTogglePostLike() {
	t := suite.T()
	ctx := t.Context()

	post, err := suite.repo.InsertPost(ctx, fakePost(gofakeit.UUID()))
	require.NoError(t, err)

	userID := gofakeit.UUID()

	liked, likes, err := suite.repo.TogglePostLike(ctx, post.ID, userID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), likes)

	liked, likes, err = suite.repo.TogglePostLike(ctx, post.ID, userID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), likes)

	_, _, err = suite.repo.TogglePostLike(ctx, uuid.New(), userID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (suite *socialRepositorySuite) TestComments() {
	t := suite.T()
	ctx := t.Context()

	post, err := suite.repo.InsertPost(ctx, fakePost(gofakeit.UUID()))
	require.NoError(t, err)

	var ids []uuid.UUID
	for range 3 {
		c, err := suite.repo.InsertComment(ctx, domain.Comment{
			PostID:   post.ID,
			AuthorID: gofakeit.UUID(),
			Content:  gofakeit.Sentence(6),
		})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	withCount, err := suite.repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), withCount.CommentsCount)

	comments, err := suite.repo.ListComments(ctx, post.ID, domain.Page{})
	require.NoError(t, err)
	// oldest first
	assert.Equal(t, ids, lo.Map(comments, func(c domain.Comment, _ int) uuid.UUID { return c.ID }))

	first, err := suite.repo.GetComment(ctx, ids[0])
	require.NoError(t, err)
	require.NoError(t, suite.repo.DeleteComment(ctx, first))
	require.ErrorIs(t, suite.repo.DeleteComment(ctx, first), repository.ErrCommentNotFound)

	withCount, err = suite.repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), withCount.CommentsCount)

	_, err = suite.repo.InsertComment(ctx, domain.Comment{PostID: uuid.New(), AuthorID: gofakeit.UUID(), Content: "hi"})
	require.ErrorIs(t, err, repository.ErrPostNotFound)
}

func (suite *socialRepositorySuite) TestFeed() {
	t := suite.T()
	ctx := t.Context()

	viewer, followed, stranger := gofakeit.UUID(), gofakeit.UUID(), gofakeit.UUID()
	require.NoError(t, suite.repo.Follow(ctx, viewer, followed))

	insert := func(authorID string, visibility domain.Visibility) uuid.UUID {
		p := fakePost(authorID)
		p.Visibility = visibility
		created, err := suite.repo.InsertPost(ctx, p)
		require.NoError(t, err)
		return created.ID
	}

	followedPublic := insert(followed, domain.VisibilityPublic)
	followedFollowers := insert(followed, domain.VisibilityFollowers)
	insert(followed, domain.VisibilityPrivate)
	strangerPublic := insert(stranger, domain.VisibilityPublic)
	viewerPrivate := insert(viewer, domain.VisibilityPrivate)

	tests := []struct {
		kind    domain.FeedKind
		wantIDs []uuid.UUID
	}{
		{kind: domain.FeedDiscover, wantIDs: []uuid.UUID{strangerPublic, followedPublic}},
		{kind: domain.FeedFollowing, wantIDs: []uuid.UUID{followedFollowers, followedPublic}},
		{kind: domain.FeedPersonal, wantIDs: []uuid.UUID{viewerPrivate}},
	}

	for _, tt := range tests {
		suite.Run(string(tt.kind), func() {
			t := suite.T()

			posts, err := suite.repo.Feed(t.Context(), tt.kind, viewer, domain.Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, lo.Map(posts, func(p domain.Post, _ int) uuid.UUID { return p.ID }))
		})
	}

	_, err := suite.repo.Feed(ctx, "trending", viewer, domain.Page{})
	require.ErrorIs(t, err, domain.ErrValidation)
}
