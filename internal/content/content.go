// Package content is the file-backed store for blog posts and categories.
//
// Layout under the content directory:
//
//	posts.json       {"next_id": N, "posts": [...]}
//	categories.json  ["Gear", "Stories", ...]
//	backups/         timestamped full snapshots, written before every mutation
//
// The store holds everything in memory behind a mutex and rewrites the
// files on each mutation. That is fine at blog scale; it is not a
// concurrent-writer database and doesn't pretend to be.
package content

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sakif/flinger-site/internal/apperror"
)

const (
	postsFile      = "posts.json"
	categoriesFile = "categories.json"
	backupDir      = "backups"
)

// Post is a single blog entry. Category must name an existing category.
type Post struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	ReadTime    string `json:"readTime"`
	IsAffiliate bool   `json:"isAffiliate"`
	Date        string `json:"date"`
}

// PostPatch is a partial update: nil fields are left untouched.
type PostPatch struct {
	Title       *string `json:"title"`
	Excerpt     *string `json:"excerpt"`
	Content     *string `json:"content"`
	Category    *string `json:"category"`
	ReadTime    *string `json:"readTime"`
	IsAffiliate *bool   `json:"isAffiliate"`
	Date        *string `json:"date"`
}

type postsDocument struct {
	NextID int64  `json:"next_id"`
	Posts  []Post `json:"posts"`
}

// Store is the in-memory view of the content directory. All exported
// methods are safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	dir        string
	nextID     int64
	posts      []Post
	categories []string
	logger     *slog.Logger
}

// New loads (or initializes) the content directory.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, backupDir), 0o755); err != nil {
		return nil, fmt.Errorf("content: creating content dir: %w", err)
	}

	s := &Store{dir: dir, nextID: 1, categories: []string{}, posts: []Post{}, logger: logger}

	if err := s.loadPosts(); err != nil {
		return nil, err
	}
	if err := s.loadCategories(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadPosts() error {
	data, err := os.ReadFile(filepath.Join(s.dir, postsFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("content: reading %s: %w", postsFile, err)
	}

	var doc postsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("content: parsing %s: %w", postsFile, err)
	}
	s.posts = doc.Posts
	if s.posts == nil {
		s.posts = []Post{}
	}
	s.nextID = doc.NextID
	// Repair a missing or stale counter so ids stay monotonic even if the
	// file was edited by hand.
	for _, p := range s.posts {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	if s.nextID < 1 {
		s.nextID = 1
	}
	return nil
}

func (s *Store) loadCategories() error {
	data, err := os.ReadFile(filepath.Join(s.dir, categoriesFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("content: reading %s: %w", categoriesFile, err)
	}
	if err := json.Unmarshal(data, &s.categories); err != nil {
		return fmt.Errorf("content: parsing %s: %w", categoriesFile, err)
	}
	if s.categories == nil {
		s.categories = []string{}
	}
	return nil
}

// backup snapshots both files into backups/ with a timestamp prefix.
// Best effort: a failed backup is logged and never blocks the mutation.
func (s *Store) backup() {
	stamp := time.Now().UTC().Format("20060102-150405.000000000")
	for _, name := range []string{postsFile, categoriesFile} {
		src := filepath.Join(s.dir, name)
		data, err := os.ReadFile(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			s.logger.Warn("content backup read failed",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		dst := filepath.Join(s.dir, backupDir, stamp+"-"+name)
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			s.logger.Warn("content backup write failed",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Store) persistPosts() error {
	doc := postsDocument{NextID: s.nextID, Posts: s.posts}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("content: encoding posts: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, postsFile), data, 0o644); err != nil {
		return fmt.Errorf("content: writing %s: %w", postsFile, err)
	}
	return nil
}

func (s *Store) persistCategories() error {
	data, err := json.MarshalIndent(s.categories, "", "  ")
	if err != nil {
		return fmt.Errorf("content: encoding categories: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, categoriesFile), data, 0o644); err != nil {
		return fmt.Errorf("content: writing %s: %w", categoriesFile, err)
	}
	return nil
}

func (s *Store) hasCategory(name string) bool {
	for _, c := range s.categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// ListPosts returns all posts, newest id first.
func (s *Store) ListPosts() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// GetPost returns the post with the given id.
func (s *Store) GetPost(id int64) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.posts {
		if p.ID == id {
			result := p
			return &result, nil
		}
	}
	return nil, apperror.NotFound("blog post", strconv.FormatInt(id, 10))
}

// CreatePost validates, assigns the next id, snapshots, and persists.
func (s *Store) CreatePost(p Post) (*Post, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Category != "" && !s.hasCategory(p.Category) {
		return nil, apperror.ValidationFailed("category", "unknown category: "+p.Category)
	}
	if p.Date == "" {
		p.Date = time.Now().UTC().Format("2006-01-02")
	}

	s.backup()

	p.ID = s.nextID
	s.nextID++
	s.posts = append(s.posts, p)

	if err := s.persistPosts(); err != nil {
		// Roll the in-memory state back so memory and disk stay in step.
		s.posts = s.posts[:len(s.posts)-1]
		s.nextID--
		return nil, err
	}
	result := p
	return &result, nil
}

// UpdatePost applies a partial patch; fields the patch leaves nil keep
// their current values.
func (s *Store) UpdatePost(id int64, patch PostPatch) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.posts {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, apperror.NotFound("blog post", strconv.FormatInt(id, 10))
	}

	updated := s.posts[idx]
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, apperror.ValidationFailed("title", "title is required")
		}
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Excerpt != nil {
		updated.Excerpt = *patch.Excerpt
	}
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	if patch.Category != nil {
		if *patch.Category != "" && !s.hasCategory(*patch.Category) {
			return nil, apperror.ValidationFailed("category", "unknown category: "+*patch.Category)
		}
		updated.Category = *patch.Category
	}
	if patch.ReadTime != nil {
		updated.ReadTime = *patch.ReadTime
	}
	if patch.IsAffiliate != nil {
		updated.IsAffiliate = *patch.IsAffiliate
	}
	if patch.Date != nil {
		updated.Date = *patch.Date
	}

	s.backup()

	previous := s.posts[idx]
	s.posts[idx] = updated
	if err := s.persistPosts(); err != nil {
		s.posts[idx] = previous
		return nil, err
	}
	result := updated
	return &result, nil
}

// DeletePost removes a post. The id is never reused.
func (s *Store) DeletePost(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.posts {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperror.NotFound("blog post", strconv.FormatInt(id, 10))
	}

	s.backup()

	removed := s.posts[idx]
	s.posts = append(s.posts[:idx], s.posts[idx+1:]...)
	if err := s.persistPosts(); err != nil {
		s.posts = append(s.posts[:idx], append([]Post{removed}, s.posts[idx:]...)...)
		return err
	}
	return nil
}

// ListCategories returns the category names in stored order.
func (s *Store) ListCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// CreateCategory adds a category name. Names are unique case-insensitively.
func (s *Store) CreateCategory(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.ValidationFailed("name", "category name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasCategory(name) {
		return apperror.Duplicate("name", "Category already exists")
	}

	s.backup()

	s.categories = append(s.categories, name)
	if err := s.persistCategories(); err != nil {
		s.categories = s.categories[:len(s.categories)-1]
		return err
	}
	return nil
}

// DeleteCategory removes a category. Deletion is refused while any post
// still references the category, so posts never point at a name that no
// longer exists.
func (s *Store) DeleteCategory(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if strings.EqualFold(c, name) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperror.NotFound("category", name)
	}

	for _, p := range s.posts {
		if strings.EqualFold(p.Category, name) {
			return apperror.Conflict("category is referenced by existing posts")
		}
	}

	s.backup()

	removed := s.categories[idx]
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	if err := s.persistCategories(); err != nil {
		s.categories = append(s.categories[:idx], append([]string{removed}, s.categories[idx:]...)...)
		return err
	}
	return nil
}
