package db

import (
	"Gin_postgres_redis_library/models"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// 借出：一个事务 = 锁 book → 解析/创建 member → 条件更新 available → 新建 open record。
// 任何一步失败都整体回滚，包括刚创建的 member。
func (r *Repo) BorrowBook(ctx context.Context, userID string, bookID uint) (*models.BorrowRecord, error) {
	ctx, span := r.tracer.Start(ctx, "db.borrow_book", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int64("book.id", int64(bookID)),
	))
	defer span.End()

	var rec *models.BorrowRecord
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Book
		if err := forUpdate(tx).First(&b, "id = ?", bookID).Error; err != nil {
			return classify(err)
		}

		member, err := findOrCreateMember(tx, userID)
		if err != nil {
			return err
		}

		if !b.Available {
			return ErrConflict
		}
		// 条件更新：并发借同一本书时只有一个能改到行
		res := tx.Model(&models.Book{}).
			Where("id = ? AND available = ?", b.ID, true).
			Update("available", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		l := &models.BorrowRecord{
			BookID:     b.ID,
			MemberID:   member.ID,
			BorrowDate: r.now(),
		}
		if err := tx.Create(l).Error; err != nil {
			// 部分唯一索引兜底
			return classify(err)
		}
		rec = l
		return nil
	})
	r.metrics.record(ctx, "borrow", err)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("record.id", int64(rec.ID)))
	return rec, nil
}

// ReturnRecord 归还调用者自己的 open record。记录不存在、已归还、或属于他人都返回 ErrNotFound。
func (r *Repo) ReturnRecord(ctx context.Context, recordID uint, userID string) (*models.BorrowRecord, error) {
	return r.closeRecord(ctx, recordID, userID, true)
}

// AdminReturnRecord 管理员可归还任意 open record，returned_by 记为管理员
func (r *Repo) AdminReturnRecord(ctx context.Context, recordID uint, adminID string) (*models.BorrowRecord, error) {
	return r.closeRecord(ctx, recordID, adminID, false)
}

func (r *Repo) closeRecord(ctx context.Context, recordID uint, actorID string, ownerOnly bool) (*models.BorrowRecord, error) {
	ctx, span := r.tracer.Start(ctx, "db.return_record", trace.WithAttributes(
		attribute.String("user.id", actorID),
		attribute.Int64("record.id", int64(recordID)),
		attribute.Bool("owner_only", ownerOnly),
	))
	defer span.End()

	var l models.BorrowRecord
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			First(&l, "id = ? AND return_date IS NULL", recordID).Error; err != nil {
			return classify(err)
		}
		if ownerOnly {
			var m models.Member
			if err := tx.Where("user_id = ?", actorID).First(&m).Error; err != nil {
				return classify(err)
			}
			if m.ID != l.MemberID {
				return ErrNotFound
			}
		}

		now := r.now()
		res := tx.Model(&models.BorrowRecord{}).
			Where("id = ? AND return_date IS NULL", l.ID).
			Updates(map[string]any{
				"return_date": now,
				"returned_by": actorID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&models.Book{}).
			Where("id = ?", l.BookID).
			Update("available", true).Error; err != nil {
			return err
		}
		l.ReturnDate = &now
		l.ReturnedBy = &actorID
		return nil
	})
	r.metrics.record(ctx, "return", err)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("book.id", int64(l.BookID)))
	return &l, nil
}

// NotFound/Conflict 是业务结果，不算 span 错误
func endSpan(span trace.Span, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		span.SetAttributes(attribute.String("outcome", err.Error()))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Queries

// BookView 是按观看者标注的书：当前用户是否持有这本书
type BookView struct {
	models.Book
	BorrowedByMe bool  `json:"borrowedByMe"`
	MyRecordID   *uint `json:"myRecordId,omitempty"`
}

// openRecordsByBook 返回 userID 当前持有的 bookID → recordID；匿名或无 member 时为空
func (r *Repo) openRecordsByBook(ctx context.Context, userID string) (map[uint]uint, error) {
	out := map[uint]uint{}
	if userID == "" {
		return out, nil
	}
	db := r.DB.WithContext(ctx)
	members := db.Model(&models.Member{}).Select("id").Where("user_id = ?", userID)
	var recs []models.BorrowRecord
	if err := db.
		Where("member_id IN (?) AND return_date IS NULL", members).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	for _, rec := range recs {
		out[rec.BookID] = rec.ID
	}
	return out, nil
}

func annotate(b models.Book, held map[uint]uint) BookView {
	v := BookView{Book: b}
	if id, ok := held[b.ID]; ok {
		v.BorrowedByMe = true
		v.MyRecordID = &id
	}
	return v
}

func (r *Repo) ListBooksForViewer(ctx context.Context, userID string, q BooksQuery) ([]BookView, error) {
	books, err := r.ListBooks(ctx, q)
	if err != nil {
		return nil, err
	}
	held, err := r.openRecordsByBook(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]BookView, 0, len(books))
	for _, b := range books {
		out = append(out, annotate(b, held))
	}
	return out, nil
}

func (r *Repo) BookForViewer(ctx context.Context, bookID uint, userID string) (*BookView, error) {
	b, err := r.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	held, err := r.openRecordsByBook(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := annotate(*b, held)
	return &v, nil
}

// ListMyOpenRecords “我的书”：调用者所有未归还记录（含书与作者）
func (r *Repo) ListMyOpenRecords(ctx context.Context, userID string) ([]models.BorrowRecord, error) {
	m, err := r.FindMemberByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return []models.BorrowRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	var recs []models.BorrowRecord
	if err := r.DB.WithContext(ctx).
		Preload("Book").Preload("Book.Author").
		Where("member_id = ? AND return_date IS NULL", m.ID).
		Order("borrow_date DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repo) FindRecordByID(ctx context.Context, id uint) (*models.BorrowRecord, error) {
	var rec models.BorrowRecord
	if err := r.DB.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &rec, nil
}

// Admin

type AdminRecordRow struct {
	ID         uint       `json:"id"`
	BookID     uint       `json:"bookId"`
	BookTitle  string     `json:"bookTitle"`
	ISBN       string     `json:"isbn"`
	AuthorID   uint       `json:"authorId"`
	AuthorName string     `json:"authorName"`
	MemberID   uint       `json:"memberId"`
	Username   string     `json:"username"`
	BorrowDate time.Time  `json:"borrowDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	IsReturned bool       `json:"isReturned"`
}

type AdminRecordsQuery struct {
	Status   string // "", "open", "returned"
	AuthorID uint
	Q        string // 书名或用户名
	Page     int
	Size     int
}

type PagedRecords struct {
	Total   int64            `json:"total"`
	Records []AdminRecordRow `json:"records"`
}

func (r *Repo) ListRecordsAdmin(ctx context.Context, q AdminRecordsQuery) (*PagedRecords, error) {
	q.Page, q.Size = normalizePage(q.Page, q.Size, 200)

	qry := r.DB.WithContext(ctx).
		Table(models.BorrowRecordTable + " r").
		Joins("JOIN " + models.BookTable + " b ON b.id = r.book_id").
		Joins("JOIN " + models.AuthorTable + " a ON a.id = b.author_id").
		Joins("JOIN " + models.MemberTable + " m ON m.id = r.member_id").
		Joins("JOIN " + models.UserTable + " u ON u.id = m.user_id")

	switch q.Status {
	case "open":
		qry = qry.Where("r.return_date IS NULL")
	case "returned":
		qry = qry.Where("r.return_date IS NOT NULL")
	}
	if q.AuthorID != 0 {
		qry = qry.Where("b.author_id = ?", q.AuthorID)
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := likePattern(s)
		qry = qry.Where("LOWER(b.title) LIKE ? OR LOWER(u.username) LIKE ?", pat, pat)
	}

	var total int64
	if err := qry.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []AdminRecordRow
	if err := qry.Session(&gorm.Session{}).
		Select(`
			r.id, r.book_id, b.title AS book_title, b.isbn,
			a.id AS author_id, a.name AS author_name,
			r.member_id, u.username, r.borrow_date, r.return_date
		`).
		Order("r.borrow_date DESC, r.id DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].IsReturned = rows[i].ReturnDate != nil
	}
	return &PagedRecords{Total: total, Records: rows}, nil
}

// ParseID 解析路径里的数字 id；非法值按不存在处理
func ParseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, ErrNotFound
	}
	return uint(n), nil
}
