package model

import "time"

type DocumentType string

const (
	DocInvoice DocumentType = "invoice"
	DocReceipt DocumentType = "receipt"
)

func (t DocumentType) Valid() bool {
	return t == DocInvoice || t == DocReceipt
}

// NumberPrefix is the human-facing prefix used when allocating a
// document number for this type.
func (t DocumentType) NumberPrefix() string {
	if t == DocReceipt {
		return "RCPT"
	}
	return "INV"
}

type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPublished DocumentStatus = "published"
	StatusArchived  DocumentStatus = "archived"
)

var docStatusRank = map[DocumentStatus]int{
	StatusDraft:     0,
	StatusPublished: 1,
	StatusArchived:  2,
}

func (s DocumentStatus) Valid() bool {
	_, ok := docStatusRank[s]
	return ok
}

// CanTransition reports whether a document may move from s to next.
// Transitions only go forward: draft -> published -> archived.
// Resubmitting the current status is a no-op, so clients that echo a
// document back unchanged or retry an update are not rejected.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	from, ok := docStatusRank[s]
	if !ok {
		return false
	}
	to, ok := docStatusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// DefaultDocumentStatus returns the status a new document starts in.
// Receipts represent completed transactions and are born published.
func DefaultDocumentStatus(t DocumentType) DocumentStatus {
	if t == DocReceipt {
		return StatusPublished
	}
	return StatusDraft
}

type PassStatus string

const (
	PassActive    PassStatus = "active"
	PassUsed      PassStatus = "used"
	PassExpired   PassStatus = "expired"
	PassCancelled PassStatus = "cancelled"
)

func (s PassStatus) Valid() bool {
	switch s {
	case PassActive, PassUsed, PassExpired, PassCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a pass may move from s to next.
// Only an active pass can change state; used, expired and cancelled
// are terminal.
func (s PassStatus) CanTransition(next PassStatus) bool {
	if s != PassActive {
		return false
	}
	return next == PassUsed || next == PassExpired || next == PassCancelled
}

type Business struct {
	ID               string            `db:"id" json:"id"`
	UserID           string            `db:"user_id" json:"user_id"`
	Name             string            `db:"name" json:"name"`
	Email            string            `db:"email" json:"email,omitempty"`
	Phone            string            `db:"phone" json:"phone,omitempty"`
	Website          string            `db:"website" json:"website,omitempty"`
	Address          string            `db:"address" json:"address,omitempty"`
	TownCity         string            `db:"town_city" json:"town_city,omitempty"`
	Region           string            `db:"region" json:"region,omitempty"`
	BusinessCategory string            `db:"business_category" json:"business_category,omitempty"`
	TaxID            string            `db:"tax_id" json:"tax_id,omitempty"`
	RegistrationNo   string            `db:"registration_number" json:"registration_number,omitempty"`
	SocialMediaLinks map[string]string `db:"social_media_links" json:"social_media_links,omitempty"`
	LogoURL          *string           `db:"logo_url" json:"logo_url,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

type BusinessItem struct {
	ID          string    `db:"id" json:"id"`
	BusinessID  string    `db:"business_id" json:"business_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Price       *float64  `db:"price" json:"price,omitempty"`
	Unit        string    `db:"unit" json:"unit,omitempty"`
	Category    string    `db:"category" json:"category,omitempty"`
	SKU         string    `db:"sku" json:"sku,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DocumentClient is the party a document is issued to.
type DocumentClient struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

// DocumentContent is the structured payload of an invoice or receipt.
type DocumentContent struct {
	Client  DocumentClient `json:"client"`
	Items   []LineItem     `json:"items"`
	DueDate string         `json:"due_date,omitempty"`
	Notes   string         `json:"notes,omitempty"`
}

// Normalize drops line items with an empty description. Blank rows
// left behind by the form are never persisted.
func (c *DocumentContent) Normalize() {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.Description != "" {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// Total sums quantity x price over line items with a non-empty
// description. The result is persisted on the document at save time,
// so historical totals survive later catalog price changes.
func (c DocumentContent) Total() float64 {
	var total float64
	for _, it := range c.Items {
		if it.Description == "" {
			continue
		}
		total += it.Quantity * it.Price
	}
	return total
}

type Document struct {
	ID          string          `db:"id" json:"id"`
	BusinessID  string          `db:"business_id" json:"business_id"`
	Type        DocumentType    `db:"type" json:"type"`
	Number      string          `db:"number" json:"number"`
	Title       string          `db:"title" json:"title"`
	Status      DocumentStatus  `db:"status" json:"status"`
	TotalAmount float64         `db:"total_amount" json:"total_amount"`
	Content     DocumentContent `db:"content" json:"content"`
	PDFURL      *string         `db:"pdf_url" json:"pdf_url,omitempty"`
	TemplateID  *string         `db:"template_id" json:"template_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

type Event struct {
	ID          string     `db:"id" json:"id"`
	BusinessID  string     `db:"business_id" json:"business_id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description,omitempty"`
	Venue       string     `db:"venue" json:"venue,omitempty"`
	TownCity    string     `db:"town_city" json:"town_city,omitempty"`
	Region      string     `db:"region" json:"region,omitempty"`
	GPSAddress  string     `db:"gps_address" json:"gps_address,omitempty"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	MaxCapacity *int       `db:"max_capacity" json:"max_capacity,omitempty"`
	EntryFee    *float64   `db:"entry_fee" json:"entry_fee,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type EntryPass struct {
	ID              string         `db:"id" json:"id"`
	EventID         string         `db:"event_id" json:"event_id"`
	PassCode        string         `db:"pass_code" json:"pass_code"`
	HolderName      string         `db:"holder_name" json:"holder_name"`
	HolderEmail     string         `db:"holder_email" json:"holder_email,omitempty"`
	HolderPhone     string         `db:"holder_phone" json:"holder_phone,omitempty"`
	ValidFrom       *time.Time     `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil      *time.Time     `db:"valid_until" json:"valid_until,omitempty"`
	Status          PassStatus     `db:"status" json:"status"`
	QRCodeURL       string         `db:"qr_code_url" json:"qr_code_url"`
	VerificationURL string         `db:"verification_url" json:"verification_url"`
	Metadata        map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Scan outcomes recorded on the PassScan metadata.
const (
	ScanAccepted       = "accepted"
	ScanRejectedStatus = "pass_not_active"
	ScanRejectedEarly  = "before_valid_from"
	ScanRejectedLate   = "after_valid_until"
)

// EvaluateScan decides whether a scan at the given instant consumes
// the pass. A nil bound leaves that side of the window open.
func (p *EntryPass) EvaluateScan(at time.Time) (ok bool, reason string) {
	if p.Status != PassActive {
		return false, ScanRejectedStatus
	}
	if p.ValidFrom != nil && at.Before(*p.ValidFrom) {
		return false, ScanRejectedEarly
	}
	if p.ValidUntil != nil && at.After(*p.ValidUntil) {
		return false, ScanRejectedLate
	}
	return true, ScanAccepted
}

// PassWithEvent is an entry pass joined with the event it belongs to,
// the shape every owner-scoped pass read returns.
type PassWithEvent struct {
	EntryPass
	EventName      string     `json:"event_name"`
	EventVenue     string     `json:"event_venue,omitempty"`
	EventStartDate *time.Time `json:"event_start_date,omitempty"`
}

type PassScan struct {
	ID          string         `db:"id" json:"id"`
	PassID      string         `db:"pass_id" json:"pass_id"`
	ScannedAt   time.Time      `db:"scanned_at" json:"scanned_at"`
	ScannerInfo string         `db:"scanner_info" json:"scanner_info,omitempty"`
	Location    string         `db:"location" json:"location,omitempty"`
	Metadata    map[string]any `db:"metadata" json:"metadata,omitempty"`
}

// ActivityItem is one entry of the dashboard's merged recent feed.
type ActivityItem struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // "document" or "event"
	Title       string    `json:"title"`
	TotalAmount *float64  `json:"total_amount,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocTotal is one published document row as seen by the dashboard.
type DocTotal struct {
	Type        DocumentType
	TotalAmount float64
}

type DashboardStats struct {
	TotalRevenue   float64        `json:"total_revenue"`
	TotalInvoices  int            `json:"total_invoices"`
	TotalReceipts  int            `json:"total_receipts"`
	TotalEvents    int            `json:"total_events"`
	RecentActivity []ActivityItem `json:"recent_activity"`
}
