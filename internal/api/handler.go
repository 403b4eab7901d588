package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/service"
)

const maxBodyBytes = 1 << 20

type ListingService interface {
	CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error)
	GetListing(ctx context.Context, listingID uuid.UUID) (domain.Listing, error)
	SearchListings(ctx context.Context, filter domain.ListingFilter, page domain.Page) (domain.ListingPage, error)
	ToggleLike(ctx context.Context, listingID uuid.UUID, userID string) (bool, int64, error)
	SetStatus(ctx context.Context, listingID uuid.UUID, status domain.ListingStatus, callerID string) (domain.Listing, error)
}

type TransactionService interface {
	CreateTransaction(ctx context.Context, req service.CreateTransactionRequest) (domain.Transaction, error)
	ProcessPayment(ctx context.Context, transactionID uuid.UUID, details domain.PaymentDetails) (domain.PaymentResult, error)
	UpdateTransaction(ctx context.Context, transactionID uuid.UUID, patch domain.TransactionPatch, actor string) (domain.Transaction, error)
	ConfirmDelivery(ctx context.Context, transactionID uuid.UUID, callerID string) (domain.Transaction, error)
	CancelTransaction(ctx context.Context, transactionID uuid.UUID, reason, actor string) (domain.Transaction, error)
	ResolveDispute(ctx context.Context, transactionID uuid.UUID, outcome domain.TransactionStatus, actor string) (domain.Transaction, error)
	GetTransaction(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error)
	GetTimeline(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionEvent, error)
	GetTransactionStats(ctx context.Context, sellerID string) (domain.TransactionStats, error)
	GetUserTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

type SocialService interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Followers(ctx context.Context, userID string, page domain.Page) (domain.FollowPage, error)
	Following(ctx context.Context, userID string, page domain.Page) (domain.FollowPage, error)
	CreatePost(ctx context.Context, req service.CreatePostRequest) (domain.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID, callerID string) error
	TogglePostLike(ctx context.Context, postID uuid.UUID, userID string) (bool, int64, error)
	AddComment(ctx context.Context, postID uuid.UUID, authorID, content string) (domain.Comment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID, callerID string) error
	ListComments(ctx context.Context, postID uuid.UUID, page domain.Page) ([]domain.Comment, error)
	Feed(ctx context.Context, kind domain.FeedKind, viewerID string, page domain.Page) ([]domain.Post, error)
}

type Handler struct {
	logger       *slog.Logger
	listings     ListingService
	transactions TransactionService
	social       SocialService
}

func NewHandler(logger *slog.Logger, listings ListingService, transactions TransactionService, social SocialService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:       logger,
		listings:     listings,
		transactions: transactions,
		social:       social,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondWithError(w, h.logger, r, err)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", domain.ErrValidation, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", domain.ErrValidation, name)
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, key)
	}
	return n, nil
}

func queryPage(r *http.Request) (domain.Page, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return domain.Page{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Limit: limit, Offset: offset}.Normalize(), nil
}
