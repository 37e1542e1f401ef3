package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        string    `json:"id"`
	Fullname  string    `json:"fullname"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type WishlistItem struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title"`
	Image     string    `json:"image,omitempty"`
	Price     int64     `json:"price"`
	InStock   bool      `json:"in_stock"`
	AddedAt   time.Time `json:"added_at"`
}
