package models

import "time"

// User is the write model for the account service. PasswordHash and DeletedAt
// never leave the service boundary; outward-facing code must go through Safe().
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// SafeUser is the projection of User that is allowed to cross the trust
// boundary: no password hash, no soft-delete marker.
type SafeUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Safe returns the outward-facing projection of the user.
func (u *User) Safe() *SafeUser {
	return &SafeUser{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Income is a recorded money inflow.
type Income struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Amount    float64   `json:"amount"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Place     string    `json:"place"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expense is a recorded money outflow.
type Expense struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Amount    float64   `json:"amount"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Place     string    `json:"place"`
	CreatedAt time.Time `json:"createdAt"`
}

// SummaryView is the per-user totals read model cached in Redis.
type SummaryView struct {
	UserID       string  `json:"userId"`
	IncomeTotal  float64 `json:"incomeTotal"`
	ExpenseTotal float64 `json:"expenseTotal"`
	Balance      float64 `json:"balance"`
	IncomeCount  int     `json:"incomeCount"`
	ExpenseCount int     `json:"expenseCount"`
}
