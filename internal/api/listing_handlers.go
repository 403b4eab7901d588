package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	listing, err := req.toDomain(callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	created, err := h.listings.CreateListing(r.Context(), listing)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/listings/%s", created.ID))
	respondWithJSON(w, http.StatusCreated, toListingResponse(created))
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	listing, err := h.listings.GetListing(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toListingResponse(listing))
}

// multiValue accepts both repeated keys and comma separated values.
func multiValue(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseListingFilter(q url.Values) (domain.ListingFilter, error) {
	filter := domain.ListingFilter{
		Query:     strings.TrimSpace(q.Get("q")),
		SellerIDs: multiValue(q, "seller"),
		ConditionStatuses: lo.Map(multiValue(q, "condition"), func(s string, _ int) domain.ConditionStatus {
			return domain.ConditionStatus(s)
		}),
	}

	for _, s := range multiValue(q, "status") {
		status, err := domain.ToListingStatus(s)
		if err != nil {
			return filter, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	for key, target := range map[string]**decimal.Decimal{
		"min_price": &filter.MinPrice,
		"max_price": &filter.MaxPrice,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		d, err := parseAmount(key, v)
		if err != nil {
			return filter, err
		}
		*target = &d
	}

	return filter, nil
}

func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListingFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.listings.SearchListings(r.Context(), filter, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listingPageResponse{
		Listings: lo.Map(result.Listings, func(l domain.Listing, _ int) listingResponse { return toListingResponse(l) }),
		Total:    result.Total,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
}

func (h *Handler) ToggleListingLike(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	liked, likes, err := h.listings.ToggleLike(r.Context(), id, callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, likeResponse{Liked: liked, Likes: likes})
}

func (h *Handler) SetListingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req setListingStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	status, err := domain.ToListingStatus(req.Status)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		return
	}

	listing, err := h.listings.SetStatus(r.Context(), id, status, callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toListingResponse(listing))
}
