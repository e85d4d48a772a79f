package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentStatus of an invoice. Only pending -> paid is allowed.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// LineItem is one billed service.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// LineItems is stored as a JSON array inside the "services" text column.
type LineItems []LineItem

func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *LineItems) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*l = LineItems{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into LineItems", value)
	}
	if len(b) == 0 {
		*l = LineItems{}
		return nil
	}
	items := LineItems{}
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// Invoice is a patient bill. Stored in the legacy "billing" table.
type Invoice struct {
	BaseModel
	BillID        string        `gorm:"size:50;uniqueIndex;not null" json:"bill_id"`
	PatientID     string        `gorm:"size:50;index;not null" json:"patient_id"`
	PatientName   string        `gorm:"size:200;not null" json:"patient_name"`
	AppointmentID string        `gorm:"size:50" json:"appointment_id,omitempty"`
	BillDate      string        `gorm:"size:20;not null" json:"bill_date"`
	Services      LineItems     `gorm:"type:text;not null" json:"services"`
	TotalAmount   string        `gorm:"size:20;not null" json:"total_amount"`
	PaymentStatus PaymentStatus `gorm:"size:50;default:'pending'" json:"payment_status"`
	PaymentMethod string        `gorm:"size:50" json:"payment_method,omitempty"`
}

func (Invoice) TableName() string { return "billing" }

func (i Invoice) BusinessID() string { return i.BillID }

func (Invoice) entity() {}
