package domain

import "time"

// Meta carries the fields shared by every synced record. Embedded by value in
// each entity; the remote store owns CreatedAt/UpdatedAt, PendingSync marks a
// locally-mutated record not yet confirmed written remotely.
type Meta struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	PendingSync bool      `json:"pendingSync,omitempty"`
}

func (m *Meta) DocMeta() *Meta { return m }

// DateLayout is the calendar-date format used for business dates
// (join dates, restock dates, invoice issue/due dates).
const DateLayout = "2006-01-02"

type Product struct {
	Meta
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price"`
	Cost            float64 `json:"cost"`
	Category        string  `json:"category"`
	Stock           float64 `json:"stock"`
	InitialStock    float64 `json:"initialStock"`
	MinStock        float64 `json:"minStock"`
	Unit            string  `json:"unit"`
	Supplier        string  `json:"supplier,omitempty"`
	LastRestockDate string  `json:"lastRestockDate,omitempty"`
}

type ProductUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Cost        *float64 `json:"cost,omitempty"`
	Category    *string  `json:"category,omitempty"`
	MinStock    *float64 `json:"minStock,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	Supplier    *string  `json:"supplier,omitempty"`
}

type InventoryItem struct {
	Meta
	ProductID      string  `json:"productId"`
	Quantity       float64 `json:"quantity"`
	UnitCost       float64 `json:"unitCost"`
	Location       string  `json:"location,omitempty"`
	LastUpdated    string  `json:"lastUpdated,omitempty"`
	ExpirationDate string  `json:"expirationDate,omitempty"`
	BatchNumber    string  `json:"batchNumber,omitempty"`
}

type IngredientItem struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
	Optional  bool    `json:"optional,omitempty"`
}

type Recipe struct {
	Meta
	ProductID       string           `json:"productId"`
	Name            string           `json:"name"`
	Ingredients     []IngredientItem `json:"ingredients"`
	PreparationTime int              `json:"preparationTime,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

type RecipeUpdate struct {
	Name            *string           `json:"name,omitempty"`
	Ingredients     *[]IngredientItem `json:"ingredients,omitempty"`
	PreparationTime *int              `json:"preparationTime,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
}

type WasteReason string

const (
	WasteExpired  WasteReason = "expired"
	WasteDamaged  WasteReason = "damaged"
	WasteReturned WasteReason = "returned"
	WasteSpoiled  WasteReason = "spoiled"
	WasteOther    WasteReason = "other"
)

// WasteRecord is immutable once created except for deletion. CostImpact is
// captured at record time from the product's cost.
type WasteRecord struct {
	Meta
	ProductID  string      `json:"productId"`
	Quantity   float64     `json:"quantity"`
	Reason     WasteReason `json:"reason"`
	Date       string      `json:"date"`
	RecordedBy string      `json:"recordedBy,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	CostImpact float64     `json:"costImpact"`
}

type TierName string

const (
	TierNone     TierName = "none"
	TierBronze   TierName = "bronze"
	TierSilver   TierName = "silver"
	TierGold     TierName = "gold"
	TierPlatinum TierName = "platinum"
)

type LoyaltyTier struct {
	Name               TierName `json:"name"`
	PointsNeeded       int      `json:"pointsNeeded"`
	DiscountPercentage float64  `json:"discountPercentage"`
	BirthdayBonus      int      `json:"birthdayBonus"`
	PointsMultiplier   float64  `json:"pointsMultiplier"`
}

type Customer struct {
	Meta
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone,omitempty"`
	Address       string   `json:"address,omitempty"`
	LoyaltyPoints int      `json:"loyaltyPoints"`
	LoyaltyTier   TierName `json:"loyaltyTier"`
	BirthDate     string   `json:"birthDate,omitempty"`
	JoinDate      string   `json:"joinDate"`
	LastVisitDate string   `json:"lastVisitDate,omitempty"`
	TotalSpent    float64  `json:"totalSpent"`
	Notes         string   `json:"notes,omitempty"`
}

type CustomerUpdate struct {
	Name          *string  `json:"name,omitempty"`
	Email         *string  `json:"email,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Address       *string  `json:"address,omitempty"`
	LoyaltyPoints *int     `json:"loyaltyPoints,omitempty"`
	BirthDate     *string  `json:"birthDate,omitempty"`
	LastVisitDate *string  `json:"lastVisitDate,omitempty"`
	TotalSpent    *float64 `json:"totalSpent,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

type SaleItem struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	Quantity     float64 `json:"quantity"`
	PricePerUnit float64 `json:"pricePerUnit"`
	Total        float64 `json:"total"`
	Notes        string  `json:"notes,omitempty"`
}

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SaleRefunded  SaleStatus = "refunded"
)

type Sale struct {
	Meta
	Date               string     `json:"date"`
	Items              []SaleItem `json:"items"`
	Subtotal           float64    `json:"subtotal"`
	DiscountAmount     float64    `json:"discountAmount"`
	DiscountPercentage float64    `json:"discountPercentage"`
	TotalAmount        float64    `json:"totalAmount"`
	PaymentMethod      string     `json:"paymentMethod"`
	Status             SaleStatus `json:"status,omitempty"`
	Tax                float64    `json:"tax,omitempty"`
	TipAmount          float64    `json:"tipAmount,omitempty"`
	CustomerID         string     `json:"customerId,omitempty"`
}

type PurchaseItem struct {
	ProductID string  `json:"productId"`
	ItemName  string  `json:"itemName"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	TotalCost float64 `json:"totalCost"`
}

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

type Purchase struct {
	Meta
	Date                 string         `json:"date"`
	Items                []PurchaseItem `json:"items"`
	TotalAmount          float64        `json:"totalAmount"`
	Supplier             string         `json:"supplier"`
	Status               PurchaseStatus `json:"status"`
	Notes                string         `json:"notes,omitempty"`
	InvoiceReceiptNumber string         `json:"invoiceReceiptNumber,omitempty"`
	PaymentMethod        string         `json:"paymentMethod,omitempty"`
}

type InvoiceItem struct {
	ProductID   string  `json:"productId,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "Draft"
	InvoiceSent      InvoiceStatus = "Sent"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceOverdue   InvoiceStatus = "Overdue"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

type Invoice struct {
	Meta
	InvoiceNumber      string        `json:"invoiceNumber"`
	CustomerID         string        `json:"customerId"`
	IssueDate          string        `json:"issueDate"`
	DueDate            string        `json:"dueDate"`
	Items              []InvoiceItem `json:"items"`
	Subtotal           float64       `json:"subtotal"`
	DiscountAmount     float64       `json:"discountAmount"`
	DiscountPercentage float64       `json:"discountPercentage"`
	TaxRate            float64       `json:"taxRate"`
	TaxAmount          float64       `json:"taxAmount"`
	TotalAmount        float64       `json:"totalAmount"`
	Status             InvoiceStatus `json:"status"`
	Notes              string        `json:"notes,omitempty"`
	PaymentTerms       string        `json:"paymentTerms,omitempty"`
}

type InvoiceUpdate struct {
	CustomerID   *string        `json:"customerId,omitempty"`
	DueDate      *string        `json:"dueDate,omitempty"`
	Status       *InvoiceStatus `json:"status,omitempty"`
	Notes        *string        `json:"notes,omitempty"`
	PaymentTerms *string        `json:"paymentTerms,omitempty"`
}

type BusinessSettings struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	Website        string  `json:"website,omitempty"`
	TaxRate        float64 `json:"taxRate"`
	TaxApplicable  bool    `json:"taxApplicable"`
	ReceiptTagline string  `json:"receiptTagline,omitempty"`
}

type ReceiptSettings struct {
	ShowLogo           bool   `json:"showLogo"`
	ShowBarcode        bool   `json:"showBarcode"`
	DefaultMessage     string `json:"defaultMessage,omitempty"`
	PrintAutomatically bool   `json:"printAutomatically"`
}

type InventorySettings struct {
	EnableAutoReorderAlerts bool    `json:"enableAutoReorderAlerts"`
	LowStockThreshold       float64 `json:"lowStockThreshold"`
	WastageAlertThreshold   float64 `json:"wastageAlertThreshold"`
	ExpiringSoonDays        int     `json:"expiringSoonDays"`
}

type LoyaltySettings struct {
	PointsPerDollar float64       `json:"pointsPerDollar"`
	Tiers           []LoyaltyTier `json:"tiers"`
}
