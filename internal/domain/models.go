package domain

import "time"

type Product struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Price         float64    `json:"price"`
	DiscountPrice float64    `json:"discount_price,omitempty"`
	Image         string     `json:"image,omitempty"`
	Category      string     `json:"category,omitempty"`
	Stock         *int       `json:"stock,omitempty"`
	Description   string     `json:"description,omitempty"`
	SKU           string     `json:"sku,omitempty"`
	Barcode       string     `json:"barcode,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// IdentityKey is the merge/dedup key for a product: SKU when present,
// otherwise barcode, otherwise the raw ID.
func (p Product) IdentityKey() string {
	if p.SKU != "" {
		return p.SKU
	}
	if p.Barcode != "" {
		return p.Barcode
	}
	return p.ID
}

// UnitPrice is the price a cart line pays: the discount price when one is set.
func (p Product) UnitPrice() float64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

// StockLimit reports the cart quantity cap for the product. A product with no
// stock figure has no cap.
func (p Product) StockLimit() (int, bool) {
	if p.Stock == nil {
		return 0, false
	}
	return *p.Stock, true
}

type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	City string `json:"city"`
}

type BranchInventoryRecord struct {
	BranchID  string    `json:"branch_id"`
	ProductID string    `json:"product_id"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StockMovement struct {
	ID           string    `json:"id"`
	BranchID     string    `json:"branch_id"`
	ProductID    string    `json:"product_id"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity"`
	Reason       string    `json:"reason,omitempty"`
	FromBranchID string    `json:"from_branch_id,omitempty"`
	ToBranchID   string    `json:"to_branch_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type TransferRequest struct {
	ID           string     `json:"id"`
	ProductID    string     `json:"product_id"`
	FromBranchID string     `json:"from_branch_id"`
	ToBranchID   string     `json:"to_branch_id"`
	Quantity     int        `json:"quantity"`
	Status       string     `json:"status"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type BranchAvailability struct {
	Branch Branch `json:"branch"`
	Stock  int    `json:"stock"`
}

type Shift struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	BranchID    string     `json:"branch_id"`
	OpenedAt    time.Time  `json:"opened_at"`
	OpenedBy    string     `json:"opened_by"`
	OpeningCash float64    `json:"opening_cash"`
	CashSales   float64    `json:"cash_sales"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	ClosedBy    string     `json:"closed_by,omitempty"`
	CountedCash *float64   `json:"counted_cash,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type CashMovement struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// DrawerSnapshot is the single-slot drawer record: the current shift (if any)
// plus the cash movements logged against it. Opening a new shift replaces the
// whole snapshot.
type DrawerSnapshot struct {
	Shift     *Shift         `json:"shift,omitempty"`
	Movements []CashMovement `json:"movements"`
}

type DrawerStatus struct {
	Shift        *Shift         `json:"shift,omitempty"`
	Movements    []CashMovement `json:"movements"`
	ExpectedCash float64        `json:"expected_cash"`
	OverShort    *float64       `json:"over_short,omitempty"`
}

type ShiftOpenRequest struct {
	BranchID    string  `json:"branch_id"`
	OpenedBy    string  `json:"opened_by"`
	OpeningCash float64 `json:"opening_cash"`
}

type ShiftCloseRequest struct {
	ClosedBy    string  `json:"closed_by"`
	CountedCash float64 `json:"counted_cash"`
	Notes       string  `json:"notes"`
}

type CashMovementRequest struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

type CashSalesUpdateRequest struct {
	Amount float64 `json:"amount"`
}

type StockSetRequest struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Reason    string `json:"reason"`
}

type StockAdjustRequest struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
}

type StockResponse struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

type TransferRequestCreate struct {
	ProductID    string `json:"product_id"`
	FromBranchID string `json:"from_branch_id"`
	ToBranchID   string `json:"to_branch_id"`
	Quantity     int    `json:"quantity"`
	Note         string `json:"note"`
}

type ProductUpsertRequest struct {
	Products []Product `json:"products"`
}

type CSVRowResult struct {
	Line   int      `json:"line"`
	Name   string   `json:"name,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

type CSVImportResult struct {
	Parsed   int            `json:"parsed"`
	Imported int            `json:"imported"`
	Invalid  int            `json:"invalid"`
	Rows     []CSVRowResult `json:"rows"`
	Message  string         `json:"message"`
}

type CheckoutLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

type Customer struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type PaymentLine struct {
	ID         string  `json:"id"`
	Method     string  `json:"method"`
	Amount     float64 `json:"amount"`
	Saved      bool    `json:"saved"`
	CardNumber string  `json:"card_number,omitempty"`
	ExpiryDate string  `json:"expiry_date,omitempty"`
	CVV        string  `json:"cvv,omitempty"`
}

type QuoteRequest struct {
	Items      []CheckoutLine `json:"items"`
	CouponCode string         `json:"coupon_code,omitempty"`
}

type Quote struct {
	Subtotal           float64 `json:"subtotal"`
	VATPercentage      float64 `json:"vat_percentage"`
	VAT                float64 `json:"vat"`
	DiscountPercentage float64 `json:"discount_percentage"`
	DiscountAmount     float64 `json:"discount_amount"`
	Total              float64 `json:"total"`
	CouponMessage      string  `json:"coupon_message,omitempty"`
}

type CheckoutRequest struct {
	BranchID   string         `json:"branch_id"`
	Items      []CheckoutLine `json:"items"`
	CouponCode string         `json:"coupon_code,omitempty"`
	Customer   Customer       `json:"customer"`
	Payments   []PaymentLine  `json:"payments"`
	Notes      string         `json:"notes,omitempty"`
}

type ReceiptItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
	Notes     string  `json:"notes,omitempty"`
}

type ReceiptPayment struct {
	Method       string  `json:"method"`
	Amount       float64 `json:"amount"`
	CardLastFour string  `json:"card_last_four,omitempty"`
}

type ReceiptPricing struct {
	Subtotal           float64 `json:"subtotal"`
	VATPercentage      float64 `json:"vat_percentage"`
	VAT                float64 `json:"vat"`
	DiscountPercentage float64 `json:"discount_percentage"`
	DiscountAmount     float64 `json:"discount_amount"`
	FinalTotal         float64 `json:"final_total"`
}

type Receipt struct {
	ID             string           `json:"id"`
	TransactionRef string           `json:"transaction_ref"`
	BranchID       string           `json:"branch_id"`
	Customer       Customer         `json:"customer"`
	Items          []ReceiptItem    `json:"items"`
	Pricing        ReceiptPricing   `json:"pricing"`
	Payments       []ReceiptPayment `json:"payments"`
	Notes          string           `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	MovementAdjustment      = "adjustment"
	MovementTransferRequest = "transfer-request"
	MovementTransferSend    = "transfer-send"
	MovementTransferReceive = "transfer-receive"
)

const (
	TransferStatusPending   = "pending"
	TransferStatusApproved  = "approved"
	TransferStatusDeclined  = "declined"
	TransferStatusFulfilled = "fulfilled"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	CashMovementIn  = "in"
	CashMovementOut = "out"
)

const (
	PaymentMethodCash    = "cash"
	PaymentMethodCard    = "card"
	PaymentMethodDigital = "digital"
)

const (
	CustomerTypeWalkIn     = "walk-in"
	CustomerTypeRegistered = "registered"
)
