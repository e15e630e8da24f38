package dto

import "time"

// LogoUpload carries an optional logo image, base64-encoded by the
// client, stored to object storage before the business row is written.
type LogoUpload struct {
	FileName string `json:"file_name" validate:"required"`
	Data     string `json:"data" validate:"required"`
}

type CreateBusinessRequest struct {
	Name               string            `json:"name" validate:"required,notblank"`
	Email              string            `json:"email" validate:"omitempty,email"`
	Phone              string            `json:"phone"`
	Website            string            `json:"website"`
	Address            string            `json:"address"`
	TownCity           string            `json:"town_city"`
	Region             string            `json:"region"`
	BusinessCategory   string            `json:"business_category"`
	TaxID              string            `json:"tax_id"`
	RegistrationNumber string            `json:"registration_number"`
	SocialMediaLinks   map[string]string `json:"social_media_links"`
	Logo               *LogoUpload       `json:"logo"`
}

type UpdateBusinessRequest struct {
	Name               *string           `json:"name" validate:"omitempty,min=1"`
	Email              *string           `json:"email" validate:"omitempty,email"`
	Phone              *string           `json:"phone"`
	Website            *string           `json:"website"`
	Address            *string           `json:"address"`
	TownCity           *string           `json:"town_city"`
	Region             *string           `json:"region"`
	BusinessCategory   *string           `json:"business_category"`
	TaxID              *string           `json:"tax_id"`
	RegistrationNumber *string           `json:"registration_number"`
	SocialMediaLinks   map[string]string `json:"social_media_links"`
	Logo               *LogoUpload       `json:"logo"`
}

type SwitchBusinessRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
}

type CreateItemRequest struct {
	BusinessID  string   `json:"business_id" validate:"required"`
	Name        string   `json:"name" validate:"required,notblank"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Unit        string   `json:"unit"`
	Category    string   `json:"category"`
	SKU         string   `json:"sku"`
}

// UpdateItemRequest carries partial item edits. An absent field keeps
// the stored value, which means a set price cannot be cleared back to
// null through this endpoint; send 0 to mark an item as free.
type UpdateItemRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Unit        *string  `json:"unit"`
	Category    *string  `json:"category"`
	SKU         *string  `json:"sku"`
}

type LineItemPayload struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type DocumentClientPayload struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type DocumentContentPayload struct {
	Client  DocumentClientPayload `json:"client"`
	Items   []LineItemPayload     `json:"items" validate:"dive"`
	DueDate string                `json:"due_date"`
	Notes   string                `json:"notes"`
}

type CreateDocumentRequest struct {
	BusinessID string                 `json:"business_id" validate:"required"`
	Type       string                 `json:"type" validate:"required,oneof=invoice receipt"`
	Title      string                 `json:"title" validate:"required"`
	Content    DocumentContentPayload `json:"content"`
	TemplateID *string                `json:"template_id"`
}

type UpdateDocumentRequest struct {
	Title   *string                 `json:"title" validate:"omitempty,min=1"`
	Status  *string                 `json:"status" validate:"omitempty,oneof=draft published archived"`
	Content *DocumentContentPayload `json:"content"`
	PDFURL  *string                 `json:"pdf_url"`
}

type CreateEventRequest struct {
	BusinessID  string     `json:"business_id" validate:"required"`
	Name        string     `json:"name" validate:"required,notblank"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	TownCity    string     `json:"town_city"`
	Region      string     `json:"region"`
	GPSAddress  string     `json:"gps_address"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	MaxCapacity *int       `json:"max_capacity" validate:"omitempty,gt=0"`
	EntryFee    *float64   `json:"entry_fee" validate:"omitempty,gte=0"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1"`
	Description *string    `json:"description"`
	Venue       *string    `json:"venue"`
	TownCity    *string    `json:"town_city"`
	Region      *string    `json:"region"`
	GPSAddress  *string    `json:"gps_address"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	MaxCapacity *int       `json:"max_capacity" validate:"omitempty,gt=0"`
	EntryFee    *float64   `json:"entry_fee" validate:"omitempty,gte=0"`
	IsActive    *bool      `json:"is_active"`
}

type CreatePassRequest struct {
	EventID     string     `json:"event_id" validate:"required"`
	HolderName  string     `json:"holder_name" validate:"required,notblank"`
	HolderEmail string     `json:"holder_email" validate:"omitempty,email"`
	HolderPhone string     `json:"holder_phone"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until"`
}

type UpdatePassRequest struct {
	HolderName  *string    `json:"holder_name" validate:"omitempty,min=1"`
	HolderEmail *string    `json:"holder_email" validate:"omitempty,email"`
	HolderPhone *string    `json:"holder_phone"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until"`
}

type ScanRequest struct {
	ScannerInfo string `json:"scanner_info"`
	Location    string `json:"location"`
}

// PassExpiryMessage is the delayed queue payload scheduled at pass
// creation and consumed when the validity window closes.
type PassExpiryMessage struct {
	PassID   string    `json:"pass_id"`
	ExpireAt time.Time `json:"expire_at"`
}

// VerificationResponse is the public shape served at /verify/:id for
// scanning clients. It deliberately omits holder contact details.
type VerificationResponse struct {
	PassID     string     `json:"pass_id"`
	PassCode   string     `json:"pass_code"`
	HolderName string     `json:"holder_name"`
	Status     string     `json:"status"`
	EventName  string     `json:"event_name"`
	EventVenue string     `json:"event_venue,omitempty"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Usable     bool       `json:"usable"`
}

type ScanResponse struct {
	Result string    `json:"result"`
	Status string    `json:"status"`
	ScanID string    `json:"scan_id"`
	At     time.Time `json:"at"`
}
