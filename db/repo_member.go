package db

import (
	"Gin_postgres_redis_library/models"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repo) FindMemberByUserID(ctx context.Context, userID string) (*models.Member, error) {
	var m models.Member
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, classify(err)
	}
	return &m, nil
}

// findOrCreateMember 在给定事务里解析或创建 Member（phone/address 为空）。
// INSERT ... ON CONFLICT DO NOTHING 让并发的首次借书只产生一行。
func findOrCreateMember(tx *gorm.DB, userID string) (*models.Member, error) {
	m := models.Member{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&m).Error; err != nil {
		return nil, classify(err)
	}
	var got models.Member
	if err := tx.Where("user_id = ?", userID).First(&got).Error; err != nil {
		return nil, classify(err)
	}
	return &got, nil
}

// UpdateMemberProfile 更新本人资料，没有 Member 时顺带创建
func (r *Repo) UpdateMemberProfile(ctx context.Context, userID, phone, address string) (*models.Member, error) {
	var out *models.Member
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findOrCreateMember(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Member{}).
			Where("id = ?", m.ID).
			Updates(map[string]any{
				"phone":      strings.TrimSpace(phone),
				"address":    strings.TrimSpace(address),
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		if err := tx.First(m, m.ID).Error; err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type AdminMemberRow struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	OpenLoans int64     `json:"openLoans"`
	CreatedAt time.Time `json:"createdAt"`
}

type PagedMembers struct {
	Total   int64            `json:"total"`
	Members []AdminMemberRow `json:"members"`
}

func (r *Repo) ListMembers(ctx context.Context, q string, page, size int) (*PagedMembers, error) {
	page, size = normalizePage(page, size, 200)
	db := r.DB.WithContext(ctx)

	base := db.Table(models.MemberTable+" m").
		Joins("JOIN "+models.UserTable+" u ON u.id = m.user_id")
	if s := strings.TrimSpace(q); s != "" {
		pat := likePattern(s)
		base = base.Where("LOWER(u.username) LIKE ? OR m.phone LIKE ?", pat, pat)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	open := db.Table(models.BorrowRecordTable+" r").
		Select("COUNT(*)").
		Where("r.member_id = m.id AND r.return_date IS NULL")

	var rows []AdminMemberRow
	if err := base.Session(&gorm.Session{}).
		Select("m.id, m.user_id, u.username, m.phone, m.address, m.created_at, (?) AS open_loans", open).
		Order("u.username ASC").
		Offset((page - 1) * size).
		Limit(size).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return &PagedMembers{Total: total, Members: rows}, nil
}
