package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Stock labels stored alongside the stock counter
const (
	StockLabelIn  = "In Stock"
	StockLabelOut = "Out of Stock"
)

// MaxStockQuantity is the largest counter the designs table can hold
const MaxStockQuantity = math.MaxInt32

// Design represents a purchasable print in the catalog
type Design struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Code          string    `json:"design_code" db:"design_code"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Price         string    `json:"price" db:"price"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	Stock         string    `json:"stock" db:"stock"`
	Images        []string  `json:"images"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// StockLabel derives the stock label for a quantity
func StockLabel(quantity int) string {
	if quantity > 0 {
		return StockLabelIn
	}
	return StockLabelOut
}

// InStock reports whether the design can currently be ordered
func (d *Design) InStock() bool {
	return d.Stock == StockLabelIn
}

// SetStockQuantity stores a quantity clamped to [0, MaxStockQuantity] and
// recomputes the label
func (d *Design) SetStockQuantity(quantity int) {
	switch {
	case quantity < 0:
		quantity = 0
	case quantity > MaxStockQuantity:
		quantity = MaxStockQuantity
	}
	d.StockQuantity = quantity
	d.Stock = StockLabel(quantity)
}

// DecrementStock removes an ordered quantity from the counter
func (d *Design) DecrementStock(quantity int) {
	if quantity < 1 {
		return
	}
	if quantity >= d.StockQuantity {
		d.SetStockQuantity(0)
		return
	}
	d.SetStockQuantity(d.StockQuantity - quantity)
}

// RestoreStock puts a cancelled quantity back and forces the design in stock
func (d *Design) RestoreStock(quantity int) {
	if quantity < 1 {
		return
	}
	if quantity > MaxStockQuantity-d.StockQuantity {
		d.SetStockQuantity(MaxStockQuantity)
	} else {
		d.SetStockQuantity(d.StockQuantity + quantity)
	}
	d.Stock = StockLabelIn
}

// Snapshot copies the identity fields an order keeps for history
func (d *Design) Snapshot() DesignSnapshot {
	return DesignSnapshot{
		DesignName:  d.Name,
		DesignCode:  d.Code,
		DesignPrice: d.Price,
	}
}
