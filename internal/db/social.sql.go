package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const insertFollow = `-- name: InsertFollow :execrows
INSERT INTO follows (follower_id, followee_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`

func (q *Queries) InsertFollow(ctx context.Context, followerID, followeeID string) (int64, error) {
	result, err := q.db.Exec(ctx, insertFollow, followerID, followeeID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteFollow = `-- name: DeleteFollow :execrows
DELETE
FROM follows
WHERE follower_id = $1
  AND followee_id = $2`

func (q *Queries) DeleteFollow(ctx context.Context, followerID, followeeID string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteFollow, followerID, followeeID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanFollows(rows pgx.Rows) ([]Follow, error) {
	defer rows.Close()

	var items []Follow
	for rows.Next() {
		var i Follow
		if err := rows.Scan(&i.FollowerID, &i.FolloweeID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listFollowers = `-- name: ListFollowers :many
SELECT follower_id, followee_id, created_at
FROM follows
WHERE followee_id = $1
ORDER BY created_at DESC, follower_id
LIMIT $2 OFFSET $3`

func (q *Queries) ListFollowers(ctx context.Context, userID string, limit, offset int32) ([]Follow, error) {
	rows, err := q.db.Query(ctx, listFollowers, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanFollows(rows)
}

const countFollowers = `-- name: CountFollowers :one
SELECT COUNT(*)
FROM follows
WHERE followee_id = $1`

func (q *Queries) CountFollowers(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countFollowers, userID).Scan(&count)
	return count, err
}

const listFollowing = `-- name: ListFollowing :many
SELECT follower_id, followee_id, created_at
FROM follows
WHERE follower_id = $1
ORDER BY created_at DESC, followee_id
LIMIT $2 OFFSET $3`

func (q *Queries) ListFollowing(ctx context.Context, userID string, limit, offset int32) ([]Follow, error) {
	rows, err := q.db.Query(ctx, listFollowing, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanFollows(rows)
}

const countFollowing = `-- name: CountFollowing :one
SELECT COUNT(*)
FROM follows
WHERE follower_id = $1`

func (q *Queries) CountFollowing(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countFollowing, userID).Scan(&count)
	return count, err
}

const postColumns = `id, author_id, content, category, visibility, image_urls, listing_id, likes_count, comments_count,
       created_at, updated_at`

func scanPost(row pgx.Row) (Post, error) {
	var i Post
	err := row.Scan(
		&i.ID,
		&i.AuthorID,
		&i.Content,
		&i.Category,
		&i.Visibility,
		&i.ImageUrls,
		&i.ListingID,
		&i.LikesCount,
		&i.CommentsCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanPosts(rows pgx.Rows) ([]Post, error) {
	defer rows.Close()

	var items []Post
	for rows.Next() {
		i, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertPost = `-- name: InsertPost :one
INSERT INTO posts (author_id, content, category, visibility, image_urls, listing_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + postColumns

type InsertPostParams struct {
	AuthorID   string
	Content    string
	Category   string
	Visibility string
	ImageUrls  []string
	ListingID  *uuid.UUID
}

func (q *Queries) InsertPost(ctx context.Context, arg InsertPostParams) (Post, error) {
	return scanPost(q.db.QueryRow(ctx, insertPost,
		arg.AuthorID,
		arg.Content,
		arg.Category,
		arg.Visibility,
		arg.ImageUrls,
		arg.ListingID,
	))
}

const getPost = `-- name: GetPost :one
SELECT ` + postColumns + `
FROM posts
WHERE id = $1`

func (q *Queries) GetPost(ctx context.Context, id uuid.UUID) (Post, error) {
	return scanPost(q.db.QueryRow(ctx, getPost, id))
}

const deletePost = `-- name: DeletePost :execresult
DELETE
FROM posts
WHERE id = $1`

func (q *Queries) DeletePost(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deletePost, id)
}

const insertPostLike = `-- name: InsertPostLike :execrows
INSERT INTO post_likes (post_id, user_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`

func (q *Queries) InsertPostLike(ctx context.Context, postID uuid.UUID, userID string) (int64, error) {
	result, err := q.db.Exec(ctx, insertPostLike, postID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deletePostLike = `-- name: DeletePostLike :execrows
DELETE
FROM post_likes
WHERE post_id = $1
  AND user_id = $2`

func (q *Queries) DeletePostLike(ctx context.Context, postID uuid.UUID, userID string) (int64, error) {
	result, err := q.db.Exec(ctx, deletePostLike, postID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const adjustPostLikes = `-- name: AdjustPostLikes :one
UPDATE posts
SET likes_count = GREATEST(likes_count + $2, 0)
WHERE id = $1
RETURNING likes_count`

func (q *Queries) AdjustPostLikes(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var likes int64
	err := q.db.QueryRow(ctx, adjustPostLikes, id, delta).Scan(&likes)
	return likes, err
}

const adjustPostComments = `-- name: AdjustPostComments :one
UPDATE posts
SET comments_count = GREATEST(comments_count + $2, 0)
WHERE id = $1
RETURNING comments_count`

func (q *Queries) AdjustPostComments(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var comments int64
	err := q.db.QueryRow(ctx, adjustPostComments, id, delta).Scan(&comments)
	return comments, err
}

const insertComment = `-- name: InsertComment :one
INSERT INTO comments (post_id, author_id, content)
VALUES ($1, $2, $3)
RETURNING id, post_id, author_id, content, created_at`

func (q *Queries) InsertComment(ctx context.Context, postID uuid.UUID, authorID, content string) (Comment, error) {
	var i Comment
	err := q.db.QueryRow(ctx, insertComment, postID, authorID, content).Scan(
		&i.ID,
		&i.PostID,
		&i.AuthorID,
		&i.Content,
		&i.CreatedAt,
	)
	return i, err
}

const getComment = `-- name: GetComment :one
SELECT id, post_id, author_id, content, created_at
FROM comments
WHERE id = $1`

func (q *Queries) GetComment(ctx context.Context, id uuid.UUID) (Comment, error) {
	var i Comment
	err := q.db.QueryRow(ctx, getComment, id).Scan(
		&i.ID,
		&i.PostID,
		&i.AuthorID,
		&i.Content,
		&i.CreatedAt,
	)
	return i, err
}

const deleteComment = `-- name: DeleteComment :execresult
DELETE
FROM comments
WHERE id = $1`

func (q *Queries) DeleteComment(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteComment, id)
}

const listComments = `-- name: ListComments :many
SELECT id, post_id, author_id, content, created_at
FROM comments
WHERE post_id = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3`

func (q *Queries) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int32) ([]Comment, error) {
	rows, err := q.db.Query(ctx, listComments, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Comment
	for rows.Next() {
		var i Comment
		if err := rows.Scan(
			&i.ID,
			&i.PostID,
			&i.AuthorID,
			&i.Content,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const discoverFeed = `-- name: DiscoverFeed :many
SELECT ` + postColumns + `
FROM posts
WHERE visibility = 'public'
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2`

func (q *Queries) DiscoverFeed(ctx context.Context, limit, offset int32) ([]Post, error) {
	rows, err := q.db.Query(ctx, discoverFeed, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

const followingFeed = `-- name: FollowingFeed :many
SELECT p.id, p.author_id, p.content, p.category, p.visibility, p.image_urls, p.listing_id, p.likes_count,
       p.comments_count, p.created_at, p.updated_at
FROM posts p
         JOIN follows f ON f.followee_id = p.author_id
WHERE f.follower_id = $1
  AND p.visibility IN ('public', 'followers')
ORDER BY p.created_at DESC, p.id
LIMIT $2 OFFSET $3`

func (q *Queries) FollowingFeed(ctx context.Context, viewerID string, limit, offset int32) ([]Post, error) {
	rows, err := q.db.Query(ctx, followingFeed, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

const personalFeed = `-- name: PersonalFeed :many
SELECT ` + postColumns + `
FROM posts
WHERE author_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`

func (q *Queries) PersonalFeed(ctx context.Context, authorID string, limit, offset int32) ([]Post, error) {
	rows, err := q.db.Query(ctx, personalFeed, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}
