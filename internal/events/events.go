package events

import "time"

// Event types
const (
	UserRegistered = "user.registered"
	UserLoggedIn   = "user.login"

	IncomeRecorded  = "transaction.income.recorded"
	ExpenseRecorded = "transaction.expense.recorded"
)

// Stream names
const (
	UserEventsStream        = "user.events"
	TransactionEventsStream = "transaction.events"
)

// Event is the envelope written to the stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type UserRegisteredEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type UserLoggedInEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type TransactionRecordedEvent struct {
	TransactionID string  `json:"transactionId"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Kind          string  `json:"kind"`
	Place         string  `json:"place"`
}
