package domain

import "time"

// Member is anyone who can enrol in a batch or borrow. Externally registered borrowers
// carry an EXT- prefixed id.
type Member struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Address   string    `json:"address" db:"address"`
	External  bool      `json:"external" db:"external"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type RegisterMemberRequest struct {
	ID      string `json:"id" validate:"omitempty,numeric"`
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Address string `json:"address" validate:"omitempty,max=255"`
}
