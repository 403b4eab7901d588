package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Amounts cross the API as fixed two-decimal strings.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a decimal", domain.ErrValidation, field)
	}
	return d, nil
}

func parseCurrency(s string) (currency.Unit, error) {
	unit, err := currency.ParseISO(s)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("%w: currency %q is not an ISO 4217 code", domain.ErrValidation, s)
	}
	return unit, nil
}

type shippingOptionDTO struct {
	Carrier       string `json:"carrier"`
	Price         string `json:"price"`
	EstimatedDays int    `json:"estimated_days"`
}

type createListingRequest struct {
	Title           string                     `json:"title"`
	Description     string                     `json:"description"`
	Tags            []string                   `json:"tags"`
	Price           string                     `json:"price"`
	Currency        string                     `json:"currency"`
	Condition       domain.ConditionAssessment `json:"condition"`
	ShippingOptions []shippingOptionDTO        `json:"shipping_options"`
	Status          string                     `json:"status"`
}

func (req createListingRequest) toDomain(sellerID string) (domain.Listing, error) {
	cur, err := parseCurrency(req.Currency)
	if err != nil {
		return domain.Listing{}, err
	}

	price, err := parseAmount("price", req.Price)
	if err != nil {
		return domain.Listing{}, err
	}

	var status domain.ListingStatus
	if req.Status != "" {
		if status, err = domain.ToListingStatus(req.Status); err != nil {
			return domain.Listing{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
	}

	options := make([]domain.ShippingOption, 0, len(req.ShippingOptions))
	for i, o := range req.ShippingOptions {
		p, err := parseAmount(fmt.Sprintf("shipping_options[%d].price", i), o.Price)
		if err != nil {
			return domain.Listing{}, err
		}
		options = append(options, domain.ShippingOption{
			Carrier:       o.Carrier,
			Price:         domain.NewMoney(p, cur),
			EstimatedDays: o.EstimatedDays,
		})
	}

	return domain.Listing{
		SellerID:        sellerID,
		Title:           req.Title,
		Description:     req.Description,
		Tags:            req.Tags,
		Price:           domain.NewMoney(price, cur),
		Condition:       req.Condition,
		ShippingOptions: options,
		Status:          status,
	}, nil
}

type listingResponse struct {
	ID              uuid.UUID                  `json:"id"`
	ItemID          uuid.UUID                  `json:"item_id"`
	SellerID        string                     `json:"seller_id"`
	BuyerID         *string                    `json:"buyer_id,omitempty"`
	Title           string                     `json:"title"`
	Description     string                     `json:"description"`
	Tags            []string                   `json:"tags"`
	Price           string                     `json:"price"`
	Currency        string                     `json:"currency"`
	Condition       domain.ConditionAssessment `json:"condition"`
	ShippingOptions []shippingOptionDTO        `json:"shipping_options"`
	Status          domain.ListingStatus       `json:"status"`
	Views           int64                      `json:"views"`
	Likes           int64                      `json:"likes"`
	Watchers        int64                      `json:"watchers"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

func toListingResponse(l domain.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		ItemID:      l.ItemID,
		SellerID:    l.SellerID,
		BuyerID:     l.BuyerID,
		Title:       l.Title,
		Description: l.Description,
		Tags:        lo.Ternary(l.Tags == nil, []string{}, l.Tags),
		Price:       money(l.Price.Amount),
		Currency:    l.Price.Currency.String(),
		Condition:   l.Condition,
		ShippingOptions: lo.Map(l.ShippingOptions, func(o domain.ShippingOption, _ int) shippingOptionDTO {
			return shippingOptionDTO{Carrier: o.Carrier, Price: money(o.Price.Amount), EstimatedDays: o.EstimatedDays}
		}),
		Status:    l.Status,
		Views:     l.Views,
		Likes:     l.Likes,
		Watchers:  l.Watchers,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

type listingPageResponse struct {
	Listings []listingResponse `json:"listings"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type setListingStatusRequest struct {
	Status string `json:"status"`
}

type likeResponse struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

type createTransactionRequest struct {
	ListingID       uuid.UUID      `json:"listing_id"`
	PaymentMethod   string         `json:"payment_method"`
	ShippingAddress domain.Address `json:"shipping_address"`
	ShippingOption  *int           `json:"shipping_option,omitempty"`
}

type transactionResponse struct {
	ID                uuid.UUID                `json:"id"`
	ListingID         uuid.UUID                `json:"listing_id"`
	BuyerID           string                   `json:"buyer_id"`
	SellerID          string                   `json:"seller_id"`
	Amount            string                   `json:"amount"`
	Currency          string                   `json:"currency"`
	PlatformFee       string                   `json:"platform_fee"`
	PaymentFee        string                   `json:"payment_fee"`
	ShippingFee       string                   `json:"shipping_fee"`
	NetAmount         string                   `json:"net_amount"`
	Status            domain.TransactionStatus `json:"status"`
	PaymentMethod     string                   `json:"payment_method"`
	PaymentID         *string                  `json:"payment_id,omitempty"`
	ShippingAddress   domain.Address           `json:"shipping_address"`
	TrackingNumber    *string                  `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time               `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time               `json:"actual_delivery,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

func toTransactionResponse(t domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:                t.ID,
		ListingID:         t.ListingID,
		BuyerID:           t.BuyerID,
		SellerID:          t.SellerID,
		Amount:            money(t.Amount.Amount),
		Currency:          t.Amount.Currency.String(),
		PlatformFee:       money(t.Fees.PlatformFee),
		PaymentFee:        money(t.Fees.PaymentFee),
		ShippingFee:       money(t.Fees.ShippingFee),
		NetAmount:         money(t.NetAmount()),
		Status:            t.Status,
		PaymentMethod:     t.PaymentMethod,
		PaymentID:         t.PaymentID,
		ShippingAddress:   t.ShippingAddress,
		TrackingNumber:    t.TrackingNumber,
		EstimatedDelivery: t.EstimatedDelivery,
		ActualDelivery:    t.ActualDelivery,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

type paymentRequest struct {
	Method string `json:"method"`
	Token  string `json:"token"`
}

type paymentResultResponse struct {
	Success        bool   `json:"success"`
	PaymentID      string `json:"payment_id,omitempty"`
	Status         string `json:"status"`
	TransactionFee string `json:"transaction_fee"`
	Message        string `json:"message,omitempty"`
}

func toPaymentResultResponse(r domain.PaymentResult) paymentResultResponse {
	return paymentResultResponse{
		Success:        r.Success,
		PaymentID:      r.PaymentID,
		Status:         r.Status,
		TransactionFee: money(r.TransactionFee),
		Message:        r.Message,
	}
}

type patchTransactionRequest struct {
	Status            *string    `json:"status"`
	TrackingNumber    *string    `json:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	ActualDelivery    *time.Time `json:"actual_delivery"`
}

func (req patchTransactionRequest) toDomain() (domain.TransactionPatch, error) {
	patch := domain.TransactionPatch{
		TrackingNumber:    req.TrackingNumber,
		EstimatedDelivery: req.EstimatedDelivery,
		ActualDelivery:    req.ActualDelivery,
	}

	if req.Status != nil {
		status, err := domain.ToTransactionStatus(*req.Status)
		if err != nil {
			return patch, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		patch.Status = &status
	}

	return patch, nil
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type resolveDisputeRequest struct {
	Outcome string `json:"outcome"`
}

type eventResponse struct {
	ID        uuid.UUID        `json:"id"`
	EventType domain.EventType `json:"event_type"`
	Payload   json.RawMessage  `json:"payload"`
	Actor     string           `json:"actor"`
	Timestamp time.Time        `json:"timestamp"`
}

func toEventResponses(events []domain.TransactionEvent) []eventResponse {
	return lo.Map(events, func(e domain.TransactionEvent, _ int) eventResponse {
		return eventResponse{
			ID:        e.ID,
			EventType: e.EventType,
			Payload:   lo.Ternary(len(e.Payload) == 0, json.RawMessage(`{}`), e.Payload),
			Actor:     e.Actor,
			Timestamp: e.Timestamp,
		}
	})
}

type statsResponse struct {
	TotalTransactions int64                              `json:"total_transactions"`
	CompletedCount    int64                              `json:"completed_count"`
	TotalRevenue      string                             `json:"total_revenue"`
	AverageOrderValue string                             `json:"average_order_value"`
	CompletionRate    string                             `json:"completion_rate"`
	StatusBreakdown   map[domain.TransactionStatus]int64 `json:"status_breakdown"`
}

func toStatsResponse(s domain.TransactionStats) statsResponse {
	return statsResponse{
		TotalTransactions: s.TotalTransactions,
		CompletedCount:    s.CompletedCount,
		TotalRevenue:      money(s.TotalRevenue),
		AverageOrderValue: money(s.AverageOrderValue),
		CompletionRate:    s.CompletionRate.String(),
		StatusBreakdown:   s.StatusBreakdown,
	}
}

type followResponse struct {
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type followPageResponse struct {
	Users []followResponse `json:"users"`
	Total int64            `json:"total"`
}

func toFollowPageResponse(p domain.FollowPage) followPageResponse {
	return followPageResponse{
		Users: lo.Map(p.Users, func(f domain.Follow, _ int) followResponse {
			return followResponse{FollowerID: f.FollowerID, FolloweeID: f.FolloweeID, CreatedAt: f.CreatedAt}
		}),
		Total: p.Total,
	}
}

type createPostRequest struct {
	Content    string     `json:"content"`
	Category   string     `json:"category"`
	Visibility string     `json:"visibility"`
	ImageURLs  []string   `json:"image_urls"`
	ListingID  *uuid.UUID `json:"listing_id,omitempty"`
}

type postResponse struct {
	ID            uuid.UUID           `json:"id"`
	AuthorID      string              `json:"author_id"`
	Content       string              `json:"content"`
	Category      domain.PostCategory `json:"category"`
	Visibility    domain.Visibility   `json:"visibility"`
	ImageURLs     []string            `json:"image_urls"`
	ListingID     *uuid.UUID          `json:"listing_id,omitempty"`
	LikesCount    int64               `json:"likes_count"`
	CommentsCount int64               `json:"comments_count"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toPostResponse(p domain.Post) postResponse {
	return postResponse{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		Content:       p.Content,
		Category:      p.Category,
		Visibility:    p.Visibility,
		ImageURLs:     lo.Ternary(p.ImageURLs == nil, []string{}, p.ImageURLs),
		ListingID:     p.ListingID,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type createCommentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toCommentResponse(c domain.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
