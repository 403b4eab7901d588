package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
)

type SocialService struct {
	social port.SocialRepository
	logger *slog.Logger
}

func NewSocialService(social port.SocialRepository, logger *slog.Logger) (*SocialService, error) {
	if social == nil {
		return nil, fmt.Errorf("social is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SocialService{social: social, logger: logger}, nil
}

func (s *SocialService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return fmt.Errorf("%w: follower and followee are required", domain.ErrValidation)
	}
	if followerID == followeeID {
		return domain.ErrSelfFollow
	}

	if err := s.social.Follow(ctx, followerID, followeeID); err != nil {
		return fmt.Errorf("social.Follow: %w", err)
	}
	return nil
}

func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return fmt.Errorf("%w: follower and followee are required", domain.ErrValidation)
	}

	if err := s.social.Unfollow(ctx, followerID, followeeID); err != nil {
		return fmt.Errorf("social.Unfollow: %w", err)
	}
	return nil
}

func (s *SocialService) Followers(ctx context.Context, userID string, page domain.Page) (domain.FollowPage, error) {
	result, err := s.social.Followers(ctx, userID, page.Normalize())
	if err != nil {
		return result, fmt.Errorf("social.Followers: %w", err)
	}
	return result, nil
}

func (s *SocialService) Following(ctx context.Context, userID string, page domain.Page) (domain.FollowPage, error) {
	result, err := s.social.Following(ctx, userID, page.Normalize())
	if err != nil {
		return result, fmt.Errorf("social.Following: %w", err)
	}
	return result, nil
}

type CreatePostRequest struct {
	AuthorID   string
	Content    string
	Category   string
	Visibility string
	ImageURLs  []string
	ListingID  *uuid.UUID
}

func (s *SocialService) CreatePost(ctx context.Context, req CreatePostRequest) (domain.Post, error) {
	if req.AuthorID == "" {
		return domain.Post{}, fmt.Errorf("%w: authorID is empty", domain.ErrValidation)
	}

	content := strings.TrimSpace(req.Content)
	if err := domain.ValidateText("content", content, domain.MaxPostLength); err != nil {
		return domain.Post{}, err
	}

	category, err := domain.ToPostCategory(req.Category)
	if err != nil {
		return domain.Post{}, err
	}

	visibility, err := domain.ToVisibility(req.Visibility)
	if err != nil {
		return domain.Post{}, err
	}

	post, err := s.social.InsertPost(ctx, domain.Post{
		AuthorID:   req.AuthorID,
		Content:    content,
		Category:   category,
		Visibility: visibility,
		ImageURLs:  req.ImageURLs,
		ListingID:  req.ListingID,
	})
	if err != nil {
		return domain.Post{}, fmt.Errorf("social.InsertPost: %w", err)
	}

	s.logger.Info("post created", "method", "SocialService.CreatePost", "post_id", post.ID, "category", category)

	return post, nil
}

func (s *SocialService) DeletePost(ctx context.Context, postID uuid.UUID, callerID string) error {
	post, err := s.social.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("social.GetPost: %w", err)
	}

	if post.AuthorID != callerID {
		return fmt.Errorf("%w: only the author can delete a post", domain.ErrForbidden)
	}

	if err := s.social.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("social.DeletePost: %w", err)
	}
	return nil
}

func (s *SocialService) TogglePostLike(ctx context.Context, postID uuid.UUID, userID string) (bool, int64, error) {
	if userID == "" {
		return false, 0, fmt.Errorf("%w: userID is empty", domain.ErrValidation)
	}

	liked, likes, err := s.social.TogglePostLike(ctx, postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("social.TogglePostLike: %w", err)
	}
	return liked, likes, nil
}

func (s *SocialService) AddComment(ctx context.Context, postID uuid.UUID, authorID, content string) (domain.Comment, error) {
	if authorID == "" {
		return domain.Comment{}, fmt.Errorf("%w: authorID is empty", domain.ErrValidation)
	}

	content = strings.TrimSpace(content)
	if err := domain.ValidateText("comment", content, domain.MaxCommentLength); err != nil {
		return domain.Comment{}, err
	}

	comment, err := s.social.InsertComment(ctx, domain.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("social.InsertComment: %w", err)
	}
	return comment, nil
}

// DeleteComment is allowed for the comment's author and the post's author.
func (s *SocialService) DeleteComment(ctx context.Context, commentID uuid.UUID, callerID string) error {
	comment, err := s.social.GetComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("social.GetComment: %w", err)
	}

	if comment.AuthorID != callerID {
		post, err := s.social.GetPost(ctx, comment.PostID)
		if err != nil {
			return fmt.Errorf("social.GetPost: %w", err)
		}
		if post.AuthorID != callerID {
			return fmt.Errorf("%w: only the comment or post author can delete a comment", domain.ErrForbidden)
		}
	}

	if err := s.social.DeleteComment(ctx, comment); err != nil {
		return fmt.Errorf("social.DeleteComment: %w", err)
	}
	return nil
}

func (s *SocialService) ListComments(ctx context.Context, postID uuid.UUID, page domain.Page) ([]domain.Comment, error) {
	if _, err := s.social.GetPost(ctx, postID); err != nil {
		return nil, fmt.Errorf("social.GetPost: %w", err)
	}

	comments, err := s.social.ListComments(ctx, postID, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("social.ListComments: %w", err)
	}
	return comments, nil
}

// Feed returns posts newest first. The following and personal feeds need a viewer.
func (s *SocialService) Feed(ctx context.Context, kind domain.FeedKind, viewerID string, page domain.Page) ([]domain.Post, error) {
	if kind != domain.FeedDiscover && viewerID == "" {
		return nil, fmt.Errorf("%w: %s feed requires a viewer", domain.ErrValidation, kind)
	}

	posts, err := s.social.Feed(ctx, kind, viewerID, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("social.Feed: %w", err)
	}
	return posts, nil
}
