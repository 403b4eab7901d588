package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Follow struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

type PostCategory string

const (
	PostCategoryOutfit  PostCategory = "outfit"
	PostCategoryHaul    PostCategory = "haul"
	PostCategoryReview  PostCategory = "review"
	PostCategoryTip     PostCategory = "tip"
	PostCategoryGeneral PostCategory = "general"
)

var validPostCategories = map[PostCategory]struct{}{
	PostCategoryOutfit:  {},
	PostCategoryHaul:    {},
	PostCategoryReview:  {},
	PostCategoryTip:     {},
	PostCategoryGeneral: {},
}

func ToPostCategory(s string) (PostCategory, error) {
	if s == "" {
		return PostCategoryGeneral, nil
	}

	category := PostCategory(s)
	if _, ok := validPostCategories[category]; ok {
		return category, nil
	}

	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
}

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityPrivate   Visibility = "private"
)

func ToVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case "":
		return VisibilityPublic, nil
	case VisibilityPublic, VisibilityFollowers, VisibilityPrivate:
		return Visibility(s), nil
	default:
		return "", fmt.Errorf("%w: unknown visibility %q", ErrValidation, s)
	}
}

type Post struct {
	ID            uuid.UUID
	AuthorID      string
	Content       string
	Category      PostCategory
	Visibility    Visibility
	ImageURLs     []string
	ListingID     *uuid.UUID
	LikesCount    int64
	CommentsCount int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Comment struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

const (
	MaxPostLength    = 2000
	MaxCommentLength = 500
)

// ValidateText checks a trimmed body is non-empty and at most maxRunes long.
func ValidateText(field, text string, maxRunes int) error {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return fmt.Errorf("%w: %s is empty", ErrValidation, field)
	}
	if n > maxRunes {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrValidation, field, maxRunes)
	}
	return nil
}

type FeedKind string

const (
	FeedDiscover  FeedKind = "discover"
	FeedFollowing FeedKind = "following"
	FeedPersonal  FeedKind = "personal"
)

func ToFeedKind(s string) (FeedKind, error) {
	switch FeedKind(s) {
	case FeedDiscover, FeedFollowing, FeedPersonal:
		return FeedKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown feed %q", ErrValidation, s)
	}
}

type FollowPage struct {
	Users []Follow
	Total int64
}
