package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/wardrobe/internal/db"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/samber/lo"
)

var (
	ErrPostNotFound    = fmt.Errorf("post %w", domain.ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", domain.ErrNotFound)
	ErrFollowNotFound  = fmt.Errorf("follow %w", domain.ErrNotFound)
)

type socialRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewSocial(pool *pgxpool.Pool) port.SocialRepository {
	return &socialRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewSocialWithTx(tx pgx.Tx) port.SocialRepository {
	return &socialRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *socialRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return domain.ErrSelfFollow
	}

	inserted, err := r.q.InsertFollow(ctx, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("q.InsertFollow: %w", err)
	}

	if inserted == 0 {
		return fmt.Errorf("q.InsertFollow: %w", domain.ErrAlreadyFollowing)
	}

	return nil
}

func (r *socialRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	deleted, err := r.q.DeleteFollow(ctx, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("q.DeleteFollow: %w", err)
	}

	if deleted == 0 {
		return fmt.Errorf("q.DeleteFollow: %w", ErrFollowNotFound)
	}

	return nil
}

func (r *socialRepository) Followers(ctx context.Context, userID string, page domain.Page) (domain.FollowPage, error) {
	page = page.Normalize()

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.FollowPage, error) {
		follows, err := q.ListFollowers(ctx, userID, int32(page.Limit), int32(page.Offset))
		if err != nil {
			return domain.FollowPage{}, fmt.Errorf("q.ListFollowers: %w", err)
		}

		total, err := q.CountFollowers(ctx, userID)
		if err != nil {
			return domain.FollowPage{}, fmt.Errorf("q.CountFollowers: %w", err)
		}

		return domain.FollowPage{Users: mapDBFollowsToDomain(follows), Total: total}, nil
	})
}

func (r *socialRepository) Following(ctx context.Context, userID string, page domain.Page) (domain.FollowPage, error) {
	page = page.Normalize()

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.FollowPage, error) {
		follows, err := q.ListFollowing(ctx, userID, int32(page.Limit), int32(page.Offset))
		if err != nil {
			return domain.FollowPage{}, fmt.Errorf("q.ListFollowing: %w", err)
		}

		total, err := q.CountFollowing(ctx, userID)
		if err != nil {
			return domain.FollowPage{}, fmt.Errorf("q.CountFollowing: %w", err)
		}

		return domain.FollowPage{Users: mapDBFollowsToDomain(follows), Total: total}, nil
	})
}

func (r *socialRepository) InsertPost(ctx context.Context, post domain.Post) (domain.Post, error) {
	dbPost, err := r.q.InsertPost(ctx, db.InsertPostParams{
		AuthorID:   post.AuthorID,
		Content:    post.Content,
		Category:   string(post.Category),
		Visibility: string(post.Visibility),
		ImageUrls:  lo.Ternary(post.ImageURLs == nil, []string{}, post.ImageURLs),
		ListingID:  post.ListingID,
	})
	if err != nil {
		return domain.Post{}, fmt.Errorf("q.InsertPost: %w", mapPgError(err))
	}

	return mapDBPostToDomain(dbPost), nil
}

func (r *socialRepository) GetPost(ctx context.Context, postID uuid.UUID) (domain.Post, error) {
	dbPost, err := r.q.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Post{}, ErrPostNotFound
		}
		return domain.Post{}, fmt.Errorf("q.GetPost: %w", err)
	}

	return mapDBPostToDomain(dbPost), nil
}

func (r *socialRepository) DeletePost(ctx context.Context, postID uuid.UUID) error {
	cmdTag, err := r.q.DeletePost(ctx, postID)
	if err != nil {
		return fmt.Errorf("q.DeletePost: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.DeletePost: %w", ErrPostNotFound)
	}

	return nil
}

func (r *socialRepository) TogglePostLike(ctx context.Context, postID uuid.UUID, userID string) (bool, int64, error) {
	type toggle struct {
		liked bool
		likes int64
	}

	result, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (toggle, error) {
		removed, err := q.DeletePostLike(ctx, postID, userID)
		if err != nil {
			return toggle{}, fmt.Errorf("q.DeletePostLike: %w", err)
		}

		liked, delta := false, -removed
		if removed == 0 {
			inserted, err := q.InsertPostLike(ctx, postID, userID)
			if err != nil {
				if errors.Is(mapPgError(err), domain.ErrConflict) {
					return toggle{}, fmt.Errorf("q.InsertPostLike: %w", ErrPostNotFound)
				}
				return toggle{}, fmt.Errorf("q.InsertPostLike: %w", err)
			}
			liked, delta = true, inserted
		}

		likes, err := q.AdjustPostLikes(ctx, postID, delta)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return toggle{}, fmt.Errorf("q.AdjustPostLikes: %w", ErrPostNotFound)
			}
			return toggle{}, fmt.Errorf("q.AdjustPostLikes: %w", err)
		}

		return toggle{liked: liked, likes: likes}, nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("withTx: %w", err)
	}

	return result.liked, result.likes, nil
}

func (r *socialRepository) InsertComment(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.Comment, error) {
		dbComment, err := q.InsertComment(ctx, comment.PostID, comment.AuthorID, comment.Content)
		if err != nil {
			if errors.Is(mapPgError(err), domain.ErrConflict) {
				return domain.Comment{}, fmt.Errorf("q.InsertComment: %w", ErrPostNotFound)
			}
			return domain.Comment{}, fmt.Errorf("q.InsertComment: %w", err)
		}

		if _, err := q.AdjustPostComments(ctx, comment.PostID, 1); err != nil {
			return domain.Comment{}, fmt.Errorf("q.AdjustPostComments: %w", err)
		}

		return mapDBCommentToDomain(dbComment), nil
	})
}

func (r *socialRepository) GetComment(ctx context.Context, commentID uuid.UUID) (domain.Comment, error) {
	dbComment, err := r.q.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Comment{}, ErrCommentNotFound
		}
		return domain.Comment{}, fmt.Errorf("q.GetComment: %w", err)
	}

	return mapDBCommentToDomain(dbComment), nil
}

func (r *socialRepository) DeleteComment(ctx context.Context, comment domain.Comment) error {
	_, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (struct{}, error) {
		cmdTag, err := q.DeleteComment(ctx, comment.ID)
		if err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteComment: %w", err)
		}

		if cmdTag.RowsAffected() == 0 {
			return struct{}{}, fmt.Errorf("q.DeleteComment: %w", ErrCommentNotFound)
		}

		if _, err := q.AdjustPostComments(ctx, comment.PostID, -1); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return struct{}{}, fmt.Errorf("q.AdjustPostComments: %w", err)
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *socialRepository) ListComments(ctx context.Context, postID uuid.UUID, page domain.Page) ([]domain.Comment, error) {
	page = page.Normalize()

	dbComments, err := r.q.ListComments(ctx, postID, int32(page.Limit), int32(page.Offset))
	if err != nil {
		return nil, fmt.Errorf("q.ListComments: %w", err)
	}

	return lo.Map(dbComments, func(c db.Comment, _ int) domain.Comment {
		return mapDBCommentToDomain(c)
	}), nil
}

func (r *socialRepository) Feed(ctx context.Context, kind domain.FeedKind, viewerID string, page domain.Page) ([]domain.Post, error) {
	page = page.Normalize()
	limit, offset := int32(page.Limit), int32(page.Offset)

	var (
		dbPosts []db.Post
		err     error
	)

	switch kind {
	case domain.FeedDiscover:
		dbPosts, err = r.q.DiscoverFeed(ctx, limit, offset)
	case domain.FeedFollowing:
		dbPosts, err = r.q.FollowingFeed(ctx, viewerID, limit, offset)
	case domain.FeedPersonal:
		dbPosts, err = r.q.PersonalFeed(ctx, viewerID, limit, offset)
	default:
		return nil, fmt.Errorf("%w: unknown feed %q", domain.ErrValidation, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("q.%sFeed: %w", kind, err)
	}

	return lo.Map(dbPosts, func(p db.Post, _ int) domain.Post {
		return mapDBPostToDomain(p)
	}), nil
}

func mapDBFollowsToDomain(follows []db.Follow) []domain.Follow {
	return lo.Map(follows, func(f db.Follow, _ int) domain.Follow {
		return domain.Follow{
			FollowerID: f.FollowerID,
			FolloweeID: f.FolloweeID,
			CreatedAt:  f.CreatedAt,
		}
	})
}

func mapDBPostToDomain(p db.Post) domain.Post {
	return domain.Post{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		Content:       p.Content,
		Category:      domain.PostCategory(p.Category),
		Visibility:    domain.Visibility(p.Visibility),
		ImageURLs:     nilSliceIfEmpty(p.ImageUrls),
		ListingID:     p.ListingID,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func mapDBCommentToDomain(c db.Comment) domain.Comment {
	return domain.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
