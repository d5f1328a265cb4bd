package models

import "time"

// Account roles.
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// Transaction types.
const (
	TxDeposit    = "deposit"
	TxWithdrawal = "withdrawal"
	TxPurchase   = "purchase"
	TxRentCharge = "rent_charge"
	TxRefund     = "refund"
)

// Transaction statuses. Purchase, rent_charge and staff-issued refund rows
// are created already approved; deposit and withdrawal rows start pending
// and transition exactly once.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request kinds for withdrawal-typed rows. A refund request is
// withdrawal-shaped but does not pre-debit the account and credits on
// approval instead.
const (
	KindWithdrawal    = ""
	KindRefundRequest = "refund_request"
)

// Catalog item statuses.
const (
	ItemAvailable   = "available"
	ItemReserved    = "reserved"
	ItemSold        = "sold"
	ItemUnavailable = "unavailable"
)

type Account struct {
	ID           string    `db:"id" json:"id"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Login        string    `db:"login" json:"login"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Balance      int64     `db:"balance" json:"balance"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CatalogItem struct {
	ID             string     `db:"id" json:"id"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	ImageRef       string     `db:"image_ref" json:"image_ref"`
	Price          int64      `db:"price" json:"price"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Status         string     `db:"status" json:"status"`
	OwnerID        *string    `db:"owner_id" json:"owner_id,omitempty"`
	ReservedAt     *time.Time `db:"reserved_at" json:"reserved_at,omitempty"`
	LastPaidAmount int64      `db:"last_paid_amount" json:"last_paid_amount"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type PaymentMethod struct {
	ID              string `db:"id" json:"id"`
	Name            string `db:"name" json:"name"`
	InstructionText string `db:"instruction_text" json:"instruction_text"`
	IsActive        bool   `db:"is_active" json:"is_active"`
	MinAmount       int64  `db:"min_amount" json:"min_amount"`
	IconRef         string `db:"icon_ref" json:"icon_ref"`
	PaymentURL      string `db:"payment_url" json:"payment_url"`
}

type Transaction struct {
	ID          string    `db:"id" json:"id"`
	AccountID   string    `db:"account_id" json:"account_id"`
	Type        string    `db:"type" json:"type"`
	RequestKind string    `db:"request_kind" json:"request_kind,omitempty"`
	Status      string    `db:"status" json:"status"`
	Amount      int64     `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	ReceiptRef  *string   `db:"receipt_ref" json:"receipt_ref,omitempty"`
	Viewed      bool      `db:"viewed" json:"viewed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
