package db

import (
	"Gin_postgres_redis_library/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Authors

func (r *Repo) CreateAuthor(ctx context.Context, a *models.Author) error {
	return classify(r.DB.WithContext(ctx).Create(a).Error)
}

// FindOrCreateAuthor 按名字查，不存在则用 email 创建；返回值 created 表示是否新建
func (r *Repo) FindOrCreateAuthor(ctx context.Context, name, email string) (*models.Author, bool, error) {
	var a models.Author
	err := r.DB.WithContext(ctx).Where("name = ?", name).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		a = models.Author{Name: name, Email: email}
		if err := r.DB.WithContext(ctx).Create(&a).Error; err != nil {
			return nil, false, classify(err)
		}
		return &a, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &a, false, nil
}

func (r *Repo) FindAuthorByID(ctx context.Context, id uint) (*models.Author, error) {
	var a models.Author
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

func (r *Repo) ListAuthors(ctx context.Context) ([]models.Author, error) {
	var as []models.Author
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&as).Error
	return as, err
}

// Books

// CreateBook 新书总是可借；ISBN 重复返回 ErrConflict
func (r *Repo) CreateBook(ctx context.Context, b *models.Book) error {
	if _, err := r.FindBookByISBN(ctx, b.ISBN); err == nil {
		return fmt.Errorf("isbn %s: %w", b.ISBN, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, err := r.FindAuthorByID(ctx, b.AuthorID); err != nil {
		return fmt.Errorf("author %d: %w", b.AuthorID, err)
	}
	b.Available = true
	b.Author = nil
	return classify(r.DB.WithContext(ctx).Create(b).Error)
}

func (r *Repo) FindBookByID(ctx context.Context, id uint) (*models.Book, error) {
	var b models.Book
	if err := r.DB.WithContext(ctx).Preload("Author").First(&b, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

func (r *Repo) FindBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var b models.Book
	if err := r.DB.WithContext(ctx).Preload("Author").Where("isbn = ?", isbn).First(&b).Error; err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

type BooksQuery struct {
	Available *bool
	AuthorID  uint
	Q         string // 模糊搜索：title/isbn
}

func (r *Repo) ListBooks(ctx context.Context, q BooksQuery) ([]models.Book, error) {
	tx := r.DB.WithContext(ctx).Preload("Author").Order("title ASC, id ASC")
	if q.Available != nil {
		tx = tx.Where("available = ?", *q.Available)
	}
	if q.AuthorID != 0 {
		tx = tx.Where("author_id = ?", q.AuthorID)
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := likePattern(s)
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(isbn) LIKE ?", pat, pat)
	}
	var books []models.Book
	if err := tx.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// SetBookImage 设置封面；url 为空表示清除
func (r *Repo) SetBookImage(ctx context.Context, bookID uint, url string) error {
	var v *string
	if url = strings.TrimSpace(url); url != "" {
		v = &url
	}
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("image_url", v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBookImageByTitle 供 seed 使用，返回更新的行数
func (r *Repo) SetBookImageByTitle(ctx context.Context, title, url string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("title = ?", title).
		Update("image_url", url)
	return res.RowsAffected, res.Error
}
