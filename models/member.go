package models

import "time"

const MemberTable = "lib_members"

// Member 与 User 一对一，首次借书时自动创建，phone/address 可为空
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Phone     string    `gorm:"size:15;not null;default:''" json:"phone"`
	Address   string    `gorm:"type:text;not null;default:''" json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Member) TableName() string { return MemberTable }
