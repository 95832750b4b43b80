package product

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Description   *string   `json:"description"`
	Price         float64   `json:"price"`
	Stock         int       `json:"stock"`
	Unit          string    `json:"unit"`
	IsActive      bool      `json:"is_active"`
	LowStockLimit *int      `json:"low_stock_limit"`
	ImageURL      *string   `json:"image_url"`
	OwnerID       string    `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	Name          string  `json:"name" binding:"required,min=1,max=200"`
	Category      string  `json:"category" binding:"required,min=1,max=100"`
	Description   *string `json:"description" binding:"omitempty,max=2000"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	Stock         int     `json:"stock" binding:"gte=0"`
	Unit          string  `json:"unit" binding:"required,min=1,max=40"`
	IsActive      *bool   `json:"is_active"`
	LowStockLimit *int    `json:"low_stock_limit" binding:"omitempty,gte=0"`
}

// UpdateProductRequest is a partial payload with the same null-vs-absent
// collapse as users: nil pointers never reach the stored patch.
type UpdateProductRequest struct {
	Name          *string  `json:"name,omitempty" binding:"omitempty,min=1,max=200"`
	Category      *string  `json:"category,omitempty" binding:"omitempty,min=1,max=100"`
	Description   *string  `json:"description,omitempty" binding:"omitempty,max=2000"`
	Price         *float64 `json:"price,omitempty" binding:"omitempty,gt=0"`
	Stock         *int     `json:"stock,omitempty" binding:"omitempty,gte=0"`
	Unit          *string  `json:"unit,omitempty" binding:"omitempty,min=1,max=40"`
	IsActive      *bool    `json:"is_active,omitempty"`
	LowStockLimit *int     `json:"low_stock_limit,omitempty" binding:"omitempty,gte=0"`
	ImageURL      *string  `json:"image_url,omitempty"`
}

// Patch renders the update as a JSON merge document. Provided fields
// survive, omitted and null fields drop out. Deactivating a product
// forces low_stock_limit back to null, matching the create rule.
func (r UpdateProductRequest) Patch() (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	var patch map[string]json.RawMessage

	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, err
	}

	if r.IsActive != nil && !*r.IsActive {
		patch["low_stock_limit"] = json.RawMessage("null")
	}

	return patch, nil
}

// NewFromCreateRequest builds the stored product. The caller becomes the
// immutable owner. An inactive product never keeps a low-stock limit,
// and is_active defaults to true when the payload omits it. The image
// URL always comes from the upload pipeline, never from the payload, so
// a create without a file stores null.
func NewFromCreateRequest(req CreateProductRequest, ownerID string, imageURL *string) Product {
	now := time.Now().UTC()

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	lowStock := req.LowStockLimit
	if !active {
		lowStock = nil
	}

	return Product{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		Price:         req.Price,
		Stock:         req.Stock,
		Unit:          req.Unit,
		IsActive:      active,
		LowStockLimit: lowStock,
		ImageURL:      imageURL,
		OwnerID:       ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
