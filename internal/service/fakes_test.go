package service

import (
	"sort"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/repository"

	"gorm.io/gorm"
)

// In-memory repository fakes reproducing the query semantics the
// services depend on: soft-delete scoping, cursor predicates, ordering
// and the composite uniqueness of reactions.

type fakeUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return repository.ErrDuplicateKey
		}
	}
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) ExistsByID(id uint) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

type fakePostRepo struct {
	users      map[uint]model.User
	posts      map[uint]*model.Post
	nextID     uint
	engagement map[uint]float64
}

func newFakePostRepo(users map[uint]model.User) *fakePostRepo {
	return &fakePostRepo{
		users:      users,
		posts:      make(map[uint]*model.Post),
		nextID:     1,
		engagement: make(map[uint]float64),
	}
}

func (r *fakePostRepo) Create(post *model.Post) error {
	post.ID = r.nextID
	r.nextID++
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	clone := *post
	r.posts[post.ID] = &clone
	return nil
}

func (r *fakePostRepo) FindByID(id uint) (*model.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *post
	clone.Author = r.users[post.AuthorID]
	return &clone, nil
}

func (r *fakePostRepo) FindByIDs(ids []uint) ([]*model.Post, error) {
	var posts []*model.Post
	for _, id := range ids {
		if post, ok := r.posts[id]; ok {
			clone := *post
			clone.Author = r.users[post.AuthorID]
			posts = append(posts, &clone)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) ExistsByID(id uint) (bool, error) {
	_, ok := r.posts[id]
	return ok, nil
}

func (r *fakePostRepo) FindPage(before *time.Time, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	for _, post := range r.posts {
		if post.IsHidden {
			continue
		}
		if before != nil && !post.CreatedAt.Before(*before) {
			continue
		}
		clone := *post
		clone.Author = r.users[post.AuthorID]
		posts = append(posts, &clone)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *fakePostRepo) Update(post *model.Post) error {
	if _, ok := r.posts[post.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *post
	r.posts[post.ID] = &clone
	return nil
}

func (r *fakePostRepo) Delete(id uint) error {
	delete(r.posts, id)
	delete(r.engagement, id)
	return nil
}

func (r *fakePostRepo) BumpEngagementScore(postID uint, delta float64) {
	r.engagement[postID] += delta
}

func (r *fakePostRepo) FindTrendingIDs(limit int) ([]uint, error) {
	type entry struct {
		id    uint
		score float64
	}
	var entries []entry
	for id, score := range r.engagement {
		entries = append(entries, entry{id: id, score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].id < entries[j].id
	})
	var ids []uint
	for _, e := range entries {
		if len(ids) == limit {
			break
		}
		ids = append(ids, e.id)
	}
	return ids, nil
}

type fakeCommentRepo struct {
	users    map[uint]model.User
	comments map[uint]*model.Comment
	nextID   uint
}

func newFakeCommentRepo(users map[uint]model.User) *fakeCommentRepo {
	return &fakeCommentRepo{
		users:    users,
		comments: make(map[uint]*model.Comment),
		nextID:   1,
	}
}

func (r *fakeCommentRepo) Create(comment *model.Comment) error {
	comment.ID = r.nextID
	r.nextID++
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	clone := *comment
	r.comments[comment.ID] = &clone
	return nil
}

func (r *fakeCommentRepo) preload(comment *model.Comment) *model.Comment {
	clone := *comment
	clone.Author = r.users[comment.AuthorID]
	if comment.ReplyToUserID != nil {
		if user, ok := r.users[*comment.ReplyToUserID]; ok {
			clone.ReplyToUser = &user
		}
	}
	return &clone
}

func (r *fakeCommentRepo) FindByID(id uint) (*model.Comment, error) {
	comment, ok := r.comments[id]
	if !ok || comment.DeletedAt.Valid {
		return nil, repository.ErrNotFound
	}
	return r.preload(comment), nil
}

func (r *fakeCommentRepo) FindByIDWithDeleted(id uint) (*model.Comment, error) {
	comment, ok := r.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.preload(comment), nil
}

func (r *fakeCommentRepo) ExistsByID(id uint) (bool, error) {
	comment, ok := r.comments[id]
	return ok && !comment.DeletedAt.Valid, nil
}

func (r *fakeCommentRepo) ExistsByIDWithDeleted(id uint) (bool, error) {
	_, ok := r.comments[id]
	return ok, nil
}

func (r *fakeCommentRepo) FindRootsByPost(postID uint, before *time.Time, limit int) ([]*model.Comment, error) {
	var comments []*model.Comment
	for _, comment := range r.comments {
		if comment.PostID != postID || comment.ParentID != nil || comment.DeletedAt.Valid {
			continue
		}
		if before != nil && !comment.CreatedAt.Before(*before) {
			continue
		}
		comments = append(comments, r.preload(comment))
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

// FindDescendantIDs walks parent links through tombstones, like the
// recursive query it stands in for. The starting comment is excluded.
func (r *fakeCommentRepo) FindDescendantIDs(id uint) ([]uint, error) {
	var ids []uint
	frontier := []uint{id}
	for len(frontier) > 0 {
		parentID := frontier[0]
		frontier = frontier[1:]
		var children []uint
		for _, comment := range r.comments {
			if comment.ParentID != nil && *comment.ParentID == parentID {
				children = append(children, comment.ID)
			}
		}
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
		ids = append(ids, children...)
		frontier = append(frontier, children...)
	}
	return ids, nil
}

func (r *fakeCommentRepo) FindRepliesPage(ids []uint, cursor *repository.ReplyCursor, limit int) ([]*model.Comment, error) {
	if len(ids) == 0 {
		return []*model.Comment{}, nil
	}

	idSet := make(map[uint]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	var comments []*model.Comment
	for _, comment := range r.comments {
		if !idSet[comment.ID] || comment.DeletedAt.Valid {
			continue
		}
		if cursor != nil {
			after := comment.CreatedAt.After(cursor.CreatedAt) ||
				(comment.CreatedAt.Equal(cursor.CreatedAt) && comment.ID > cursor.ID)
			if !after {
				continue
			}
		}
		comments = append(comments, r.preload(comment))
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

func (r *fakeCommentRepo) Update(comment *model.Comment) error {
	if _, ok := r.comments[comment.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *comment
	clone.Author = model.User{}
	clone.ReplyToUser = nil
	r.comments[comment.ID] = &clone
	return nil
}

func (r *fakeCommentRepo) SoftDelete(id uint) error {
	comment, ok := r.comments[id]
	if !ok || comment.DeletedAt.Valid {
		return repository.ErrNotFound
	}
	comment.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (r *fakeCommentRepo) HardDelete(ids []uint) error {
	for _, id := range ids {
		delete(r.comments, id)
	}
	return nil
}

func (r *fakeCommentRepo) CountByParentID(parentID uint) (int64, error) {
	var count int64
	for _, comment := range r.comments {
		if comment.ParentID != nil && *comment.ParentID == parentID && !comment.DeletedAt.Valid {
			count++
		}
	}
	return count, nil
}

func (r *fakeCommentRepo) CountByParentIDs(parentIDs []uint) (map[uint]int64, error) {
	m := make(map[uint]int64)
	for _, id := range parentIDs {
		count, _ := r.CountByParentID(id)
		m[id] = count
	}
	return m, nil
}

func (r *fakeCommentRepo) CountByPostID(postID uint) (int64, error) {
	var count int64
	for _, comment := range r.comments {
		if comment.PostID == postID && !comment.DeletedAt.Valid {
			count++
		}
	}
	return count, nil
}

func (r *fakeCommentRepo) CountByPostIDs(postIDs []uint) (map[uint]int64, error) {
	m := make(map[uint]int64)
	for _, id := range postIDs {
		count, _ := r.CountByPostID(id)
		m[id] = count
	}
	return m, nil
}

func (r *fakeCommentRepo) Transaction(fn func(repository.CommentRepository) error) error {
	return fn(r)
}

type fakeReactionRepo struct {
	users     map[uint]model.User
	reactions map[uint]*model.Reaction
	nextID    uint

	// createHook runs before each insert to simulate a concurrent
	// writer winning the uniqueness race.
	createHook func(*model.Reaction) error
}

func newFakeReactionRepo(users map[uint]model.User) *fakeReactionRepo {
	return &fakeReactionRepo{
		users:     users,
		reactions: make(map[uint]*model.Reaction),
		nextID:    1,
	}
}

func (r *fakeReactionRepo) insert(reaction *model.Reaction) *model.Reaction {
	reaction.ID = r.nextID
	r.nextID++
	if reaction.CreatedAt.IsZero() {
		reaction.CreatedAt = time.Now()
	}
	clone := *reaction
	r.reactions[reaction.ID] = &clone
	return &clone
}

func (r *fakeReactionRepo) Create(reaction *model.Reaction) error {
	if r.createHook != nil {
		if err := r.createHook(reaction); err != nil {
			return err
		}
	}
	for _, existing := range r.reactions {
		if existing.AuthorID == reaction.AuthorID &&
			existing.ReactableID == reaction.ReactableID &&
			existing.ReactableType == reaction.ReactableType {
			return repository.ErrDuplicateKey
		}
	}
	r.insert(reaction)
	return nil
}

func (r *fakeReactionRepo) Update(reaction *model.Reaction) error {
	if _, ok := r.reactions[reaction.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *reaction
	r.reactions[reaction.ID] = &clone
	return nil
}

func (r *fakeReactionRepo) Delete(id uint) error {
	if _, ok := r.reactions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.reactions, id)
	return nil
}

func (r *fakeReactionRepo) FindByAuthorAndReactable(authorID, reactableID uint, reactableType string) (*model.Reaction, error) {
	for _, reaction := range r.reactions {
		if reaction.AuthorID == authorID &&
			reaction.ReactableID == reactableID &&
			reaction.ReactableType == reactableType {
			clone := *reaction
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeReactionRepo) FindByReactable(reactableID uint, reactableType string) ([]*model.Reaction, error) {
	return r.FindForMany([]uint{reactableID}, reactableType)
}

func (r *fakeReactionRepo) FindForMany(reactableIDs []uint, reactableType string) ([]*model.Reaction, error) {
	idSet := make(map[uint]bool, len(reactableIDs))
	for _, id := range reactableIDs {
		idSet[id] = true
	}

	reactions := []*model.Reaction{}
	for _, reaction := range r.reactions {
		if reaction.ReactableType == reactableType && idSet[reaction.ReactableID] {
			clone := *reaction
			clone.Author = r.users[reaction.AuthorID]
			reactions = append(reactions, &clone)
		}
	}
	sort.Slice(reactions, func(i, j int) bool { return reactions[i].ID < reactions[j].ID })
	return reactions, nil
}

func (r *fakeReactionRepo) Transaction(fn func(repository.ReactionRepository) error) error {
	return fn(r)
}

// fixture wires the fakes into real services. Notifications stay nil:
// the services treat a nil NotificationService as "don't notify".
type fixture struct {
	users        map[uint]model.User
	userRepo     *fakeUserRepo
	postRepo     *fakePostRepo
	commentRepo  *fakeCommentRepo
	reactionRepo *fakeReactionRepo

	reactions ReactionService
	comments  CommentService
	posts     PostService
}

func newFixture() *fixture {
	users := make(map[uint]model.User)
	f := &fixture{
		users:        users,
		userRepo:     newFakeUserRepo(),
		postRepo:     newFakePostRepo(users),
		commentRepo:  newFakeCommentRepo(users),
		reactionRepo: newFakeReactionRepo(users),
	}
	f.reactions = NewReactionService(f.reactionRepo, f.postRepo, f.commentRepo)
	f.comments = NewCommentService(f.commentRepo, f.postRepo, f.reactions, nil)
	f.posts = NewPostService(f.postRepo, f.reactions, f.comments)
	return f
}

func (f *fixture) addUser(id uint, username string) {
	f.users[id] = model.User{
		ID:       id,
		Email:    username + "@example.com",
		Username: username,
		FullName: username,
	}
}

func (f *fixture) addPost(authorID uint, text string, createdAt time.Time) *model.Post {
	post := &model.Post{AuthorID: authorID, Text: text, CreatedAt: createdAt}
	if err := f.postRepo.Create(post); err != nil {
		panic(err)
	}
	return post
}

func (f *fixture) addComment(postID, authorID uint, parentID *uint, text string, createdAt time.Time) *model.Comment {
	comment := &model.Comment{
		PostID:    postID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Text:      text,
		CreatedAt: createdAt,
	}
	if err := f.commentRepo.Create(comment); err != nil {
		panic(err)
	}
	return comment
}

func uintPtr(v uint) *uint { return &v }
