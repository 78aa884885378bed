package domain

import "time"

// User owns zero or more todos. Users are created through the API and never
// mutated or deleted through it.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      *string   `gorm:"type:varchar(255)" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Todos []Todo `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
