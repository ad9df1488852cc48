package domain

type EquipmentStatus string

const (
	EquipmentStatusAvailable EquipmentStatus = "available"
	EquipmentStatusRented    EquipmentStatus = "rented"
	EquipmentStatusInRepair  EquipmentStatus = "in_repair"
)

// Equipment is a rentable item. Its ID is the Booking Backend product group
// id; BooqableID is the product inside that group and RecordID the mirror
// row in the Records Backend.
type Equipment struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name" validate:"required,max=200"`
	Description     string          `json:"description,omitempty" validate:"max=2000"`
	Price           float64         `json:"price" validate:"gte=0"`
	Quantity        int             `json:"quantity" validate:"gte=1"`
	Category        string          `json:"category,omitempty" validate:"max=100"`
	Status          EquipmentStatus `json:"status,omitempty" validate:"omitempty,oneof=available rented in_repair"`
	BooqableID      string          `json:"booqableId,omitempty"`
	BooqableGroupID string          `json:"booqableGroupId,omitempty"`
	RecordID        string          `json:"recordId,omitempty"`
}

// EquipmentPatch is a partial update; nil fields are left unchanged.
type EquipmentPatch struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       *float64         `json:"price,omitempty" validate:"omitempty,gte=0"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Status      *EquipmentStatus `json:"status,omitempty" validate:"omitempty,oneof=available rented in_repair"`
}

// Apply copies every non-nil patch field onto e.
func (e *Equipment) Apply(p EquipmentPatch) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.Quantity != nil {
		e.Quantity = *p.Quantity
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
}
