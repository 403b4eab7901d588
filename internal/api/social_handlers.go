package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/service"
	"github.com/samber/lo"
)

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	if err := h.social.Follow(r.Context(), callerID(r), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.social.Unfollow(r.Context(), callerID(r), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.social.Followers(r.Context(), mux.Vars(r)["id"], page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toFollowPageResponse(result))
}

func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.social.Following(r.Context(), mux.Vars(r)["id"], page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toFollowPageResponse(result))
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	post, err := h.social.CreatePost(r.Context(), service.CreatePostRequest{
		AuthorID:   callerID(r),
		Content:    req.Content,
		Category:   req.Category,
		Visibility: req.Visibility,
		ImageURLs:  req.ImageURLs,
		ListingID:  req.ListingID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/posts/%s", post.ID))
	respondWithJSON(w, http.StatusCreated, toPostResponse(post))
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.social.DeletePost(r.Context(), id, callerID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) TogglePostLike(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	liked, likes, err := h.social.TogglePostLike(r.Context(), id, callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, likeResponse{Liked: liked, Likes: likes})
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	comment, err := h.social.AddComment(r.Context(), id, callerID(r), req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toCommentResponse(comment))
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	comments, err := h.social.ListComments(r.Context(), id, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, lo.Map(comments, func(c domain.Comment, _ int) commentResponse {
		return toCommentResponse(c)
	}))
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.social.DeleteComment(r.Context(), id, callerID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ToFeedKind(mux.Vars(r)["kind"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	posts, err := h.social.Feed(r.Context(), kind, callerID(r), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, lo.Map(posts, func(p domain.Post, _ int) postResponse {
		return toPostResponse(p)
	}))
}
