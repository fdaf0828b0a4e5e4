package repository

import (
	"errors"
	"fmt"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/util"

	"gorm.io/gorm"
)

// ReplyCursor is the decoded compound cursor for reply pagination:
// position (CreatedAt, ID) in the (created_at ASC, id ASC) ordering.
type ReplyCursor struct {
	CreatedAt time.Time
	ID        uint
}

type CommentRepository interface {
	Create(comment *model.Comment) error
	FindByID(id uint) (*model.Comment, error)
	FindByIDWithDeleted(id uint) (*model.Comment, error)
	ExistsByID(id uint) (bool, error)
	ExistsByIDWithDeleted(id uint) (bool, error)
	FindRootsByPost(postID uint, before *time.Time, limit int) ([]*model.Comment, error)
	FindDescendantIDs(id uint) ([]uint, error)
	FindRepliesPage(ids []uint, cursor *ReplyCursor, limit int) ([]*model.Comment, error)
	Update(comment *model.Comment) error
	SoftDelete(id uint) error
	HardDelete(ids []uint) error
	CountByParentID(parentID uint) (int64, error)
	CountByParentIDs(parentIDs []uint) (map[uint]int64, error)
	CountByPostID(postID uint) (int64, error)
	CountByPostIDs(postIDs []uint) (map[uint]int64, error)
	// Transaction runs fn against a transaction-scoped repository so a
	// subtree traversal and its cascading delete commit atomically.
	Transaction(fn func(CommentRepository) error) error
}

type commentRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	commentCountCachePrefix = "comment:count:"
	commentCacheExpiration  = 15 * time.Minute
)

func NewCommentRepository(db *gorm.DB, redis *util.RedisClient) CommentRepository {
	return &commentRepository{
		db:    db,
		redis: redis,
	}
}

// Create inserts a new comment and invalidates count caches
func (r *commentRepository) Create(comment *model.Comment) error {
	if err := r.db.Create(comment).Error; err != nil {
		return err
	}

	r.invalidateCountCaches(comment)
	return nil
}

// FindByID finds a live comment by ID
func (r *commentRepository) FindByID(id uint) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.Preload("Author").Preload("ReplyToUser").
		Where("id = ?", id).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// FindByIDWithDeleted finds a comment by ID including tombstones, so
// soft-deleted comments stay addressable by permalink.
func (r *commentRepository) FindByIDWithDeleted(id uint) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.Unscoped().Preload("Author").Preload("ReplyToUser").
		Where("id = ?", id).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ExistsByID(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *commentRepository) ExistsByIDWithDeleted(id uint) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&model.Comment{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindRootsByPost fetches a page of root comments for a post, newest
// first. The before timestamp is the decoded pagination cursor.
func (r *commentRepository) FindRootsByPost(postID uint, before *time.Time, limit int) ([]*model.Comment, error) {
	query := r.db.Preload("Author").Preload("ReplyToUser").
		Where("post_id = ? AND parent_id IS NULL", postID)

	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var comments []*model.Comment
	err := query.Order("created_at DESC").Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// FindDescendantIDs lists the ids of every descendant of a comment in
// one recursive query. The comment itself is not included. Raw SQL
// bypasses the soft-delete scope on purpose: traversal must pass
// through tombstoned rows to reach their children.
func (r *commentRepository) FindDescendantIDs(id uint) ([]uint, error) {
	var ids []uint
	err := r.db.Raw(`
		WITH RECURSIVE descendants AS (
			SELECT id FROM comments WHERE parent_id = ?
			UNION ALL
			SELECT c.id FROM comments c
			INNER JOIN descendants d ON c.parent_id = d.id
		)
		SELECT id FROM descendants`, id).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FindRepliesPage fetches a page over the given descendant set with the
// compound ordering (created_at ASC, id ASC). The cursor predicate
// keeps pagination deterministic when timestamps collide. Tombstoned
// rows are excluded by the soft-delete scope.
func (r *commentRepository) FindRepliesPage(ids []uint, cursor *ReplyCursor, limit int) ([]*model.Comment, error) {
	if len(ids) == 0 {
		return []*model.Comment{}, nil
	}

	query := r.db.Preload("Author").Preload("ReplyToUser").
		Where("id IN ?", ids)

	if cursor != nil {
		query = query.Where("created_at > ? OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var comments []*model.Comment
	err := query.Order("created_at ASC").Order("id ASC").Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Update saves a comment and invalidates caches
func (r *commentRepository) Update(comment *model.Comment) error {
	if err := r.db.Save(comment).Error; err != nil {
		return err
	}

	r.invalidateCountCaches(comment)
	return nil
}

// SoftDelete tombstones a reply. The row stays behind so children keep
// a valid parent reference.
func (r *commentRepository) SoftDelete(id uint) error {
	var comment model.Comment
	if err := r.db.Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := r.db.Delete(&comment).Error; err != nil {
		return err
	}

	r.invalidateCountCaches(&comment)
	return nil
}

// HardDelete permanently erases a set of comments, tombstoned or not.
func (r *commentRepository) HardDelete(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.db.Unscoped().Where("id IN ?", ids).Delete(&model.Comment{}).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.DeletePattern(commentCountCachePrefix + "*")
	}
	return nil
}

// CountByParentID counts direct live replies of a comment
func (r *commentRepository) CountByParentID(parentID uint) (int64, error) {
	cacheKey := fmt.Sprintf("%sparent:%d", commentCountCachePrefix, parentID)
	if r.redis != nil {
		cached, err := r.redis.Get(cacheKey)
		if err == nil {
			var count int64
			if _, err := fmt.Sscanf(cached, "%d", &count); err == nil {
				return count, nil
			}
		}
	}

	var count int64
	err := r.db.Model(&model.Comment{}).Where("parent_id = ?", parentID).Count(&count).Error
	if err != nil {
		return 0, err
	}

	if r.redis != nil {
		r.redis.Set(cacheKey, fmt.Sprintf("%d", count), commentCacheExpiration)
	}
	return count, nil
}

// CountByParentIDs counts direct live replies for multiple comments in
// one grouped query
func (r *commentRepository) CountByParentIDs(parentIDs []uint) (map[uint]int64, error) {
	if len(parentIDs) == 0 {
		return map[uint]int64{}, nil
	}

	var results []struct {
		ParentID uint
		Count    int64
	}
	err := r.db.Model(&model.Comment{}).
		Select("parent_id, count(*) as count").
		Where("parent_id IN ?", parentIDs).
		Group("parent_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[uint]int64)
	for _, row := range results {
		m[row.ParentID] = row.Count
	}
	for _, id := range parentIDs {
		if _, ok := m[id]; !ok {
			m[id] = 0
		}
	}
	return m, nil
}

// CountByPostID counts live comments of a post (replies included)
func (r *commentRepository) CountByPostID(postID uint) (int64, error) {
	cacheKey := fmt.Sprintf("%spost:%d", commentCountCachePrefix, postID)
	if r.redis != nil {
		cached, err := r.redis.Get(cacheKey)
		if err == nil {
			var count int64
			if _, err := fmt.Sscanf(cached, "%d", &count); err == nil {
				return count, nil
			}
		}
	}

	var count int64
	err := r.db.Model(&model.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	if err != nil {
		return 0, err
	}

	if r.redis != nil {
		r.redis.Set(cacheKey, fmt.Sprintf("%d", count), commentCacheExpiration)
	}
	return count, nil
}

// CountByPostIDs counts live comments for multiple posts in one query
func (r *commentRepository) CountByPostIDs(postIDs []uint) (map[uint]int64, error) {
	if len(postIDs) == 0 {
		return map[uint]int64{}, nil
	}

	var results []struct {
		PostID uint
		Count  int64
	}
	err := r.db.Model(&model.Comment{}).
		Select("post_id, count(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[uint]int64)
	for _, row := range results {
		m[row.PostID] = row.Count
	}
	for _, id := range postIDs {
		if _, ok := m[id]; !ok {
			m[id] = 0
		}
	}
	return m, nil
}

func (r *commentRepository) Transaction(fn func(CommentRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&commentRepository{db: tx, redis: r.redis})
	})
}

func (r *commentRepository) invalidateCountCaches(comment *model.Comment) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(fmt.Sprintf("%spost:%d", commentCountCachePrefix, comment.PostID))
	if comment.ParentID != nil {
		r.redis.Delete(fmt.Sprintf("%sparent:%d", commentCountCachePrefix, *comment.ParentID))
	}
}
