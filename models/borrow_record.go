// models/borrow_record.go
package models

import "time"

const BorrowRecordTable = "lib_borrow_records"

// BorrowRecord ReturnDate 为空即“未归还”（open）
type BorrowRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"index;not null" json:"bookId"`
	Book       *Book      `gorm:"constraint:OnDelete:CASCADE" json:"book,omitempty"`
	MemberID   uint       `gorm:"index;not null" json:"memberId"`
	Member     *Member    `gorm:"constraint:OnDelete:CASCADE" json:"member,omitempty"`
	BorrowDate time.Time  `gorm:"index;not null;<-:create" json:"borrowDate"`
	ReturnDate *time.Time `gorm:"index" json:"returnDate,omitempty"`
	ReturnedBy *string    `gorm:"type:uuid" json:"returnedBy,omitempty"`
}

func (BorrowRecord) TableName() string { return BorrowRecordTable }

func (r BorrowRecord) IsOpen() bool { return r.ReturnDate == nil }
