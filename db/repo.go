package db

import (
	"Gin_postgres_redis_library/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Repo 是显式传递的存储句柄；所有读写都经由它，不使用全局 DB
type Repo struct {
	DB *gorm.DB

	tracer  trace.Tracer
	metrics *transitionMetrics
	now     func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{
		DB:      db,
		tracer:  otel.Tracer("library/db"),
		metrics: newTransitionMetrics(otel.Meter("library/db")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Users

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := r.FindUserByUsername(ctx, u.Username); err == nil {
		return fmt.Errorf("username %q: %w", u.Username, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return classify(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *Repo) TouchUserLogin(ctx context.Context, userID, ip string) error {
	// 用数据库时间，登录计数自增避免并发覆盖
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"last_login_at": r.now(),
			"last_seen_at":  r.now(),
			"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
			"last_login_ip": ip,
		}).Error
}

func (r *Repo) TouchUserSeen(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", r.now()).Error
}

func (r *Repo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (r *Repo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (r *Repo) SetUserAdmin(ctx context.Context, userID string, isAdmin bool) error {
	res := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// 列表（分页 + 关键词匹配用户名）
type ListUsersResult struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

func (r *Repo) ListUsers(ctx context.Context, q string, page, size int) (ListUsersResult, error) {
	page, size = normalizePage(page, size, 100)

	tx := r.DB.WithContext(ctx).Model(&models.User{})
	if q = strings.TrimSpace(q); q != "" {
		tx = tx.Where("LOWER(username) LIKE ?", likePattern(q))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListUsersResult{}, err
	}

	var users []models.User
	if err := tx.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error; err != nil {
		return ListUsersResult{}, err
	}
	return ListUsersResult{Users: users, Total: total}, nil
}

// 删除用户：先释放仍持有的书，再删借阅记录、member 与用户本身
func (r *Repo) DeleteUserByID(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Member
		err := tx.Where("user_id = ?", id).First(&m).Error
		switch {
		case err == nil:
			held := tx.Model(&models.BorrowRecord{}).
				Select("book_id").
				Where("member_id = ? AND return_date IS NULL", m.ID)
			if err := tx.Model(&models.Book{}).
				Where("id IN (?)", held).
				Update("available", true).Error; err != nil {
				return err
			}
			if err := tx.Where("member_id = ?", m.ID).Delete(&models.BorrowRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&m).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func normalizePage(page, size, max int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > max {
		size = 20
	}
	return page, size
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}
