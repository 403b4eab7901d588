package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
)

type SocialRepository interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Followers(ctx context.Context, userID string, page domain.Page) (domain.FollowPage, error)
	Following(ctx context.Context, userID string, page domain.Page) (domain.FollowPage, error)

	InsertPost(ctx context.Context, post domain.Post) (domain.Post, error)
	GetPost(ctx context.Context, postID uuid.UUID) (domain.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error
	TogglePostLike(ctx context.Context, postID uuid.UUID, userID string) (liked bool, likes int64, err error)

	InsertComment(ctx context.Context, comment domain.Comment) (domain.Comment, error)
	GetComment(ctx context.Context, commentID uuid.UUID) (domain.Comment, error)
	DeleteComment(ctx context.Context, comment domain.Comment) error
	ListComments(ctx context.Context, postID uuid.UUID, page domain.Page) ([]domain.Comment, error)

	Feed(ctx context.Context, kind domain.FeedKind, viewerID string, page domain.Page) ([]domain.Post, error)
}
