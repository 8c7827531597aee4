package domain

import "strings"

// FieldType identifies the kind of a registration form field
type FieldType string

// FieldType constants
const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTicket   FieldType = "ticket"
	FieldTypePayment  FieldType = "payment"
	FieldTypeConsent  FieldType = "consent"
	FieldTypeYear     FieldType = "year"
	FieldTypeSection  FieldType = "section"
)

// Legacy field types, replaced by FieldTypePayment during migration
const (
	FieldTypeLegacyPaymentQR    FieldType = "paymentQr"
	FieldTypeLegacyPaymentProof FieldType = "paymentProof"
)

// Field is one form element. The JSON shape is the persisted document shape.
type Field struct {
	ID          int64     `json:"id"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     string    `json:"options,omitempty"`
	QRURL       string    `json:"qrUrl,omitempty"`
	QRData      string    `json:"qrData,omitempty"`
}

// Attributes is the type-specific part of a field. Exactly one concrete
// attribute type applies to each FieldType.
type Attributes interface {
	attributes()
}

// TextAttributes applies to free-text fields
type TextAttributes struct {
	Placeholder string
}

// ChoiceAttributes applies to choice-bearing fields
type ChoiceAttributes struct {
	Options []string
}

// PaymentAttributes applies to payment fields
type PaymentAttributes struct {
	QRURL  string
	QRData string
}

// NoAttributes applies to fields without optional attributes
type NoAttributes struct{}

func (TextAttributes) attributes()    {}
func (ChoiceAttributes) attributes()  {}
func (PaymentAttributes) attributes() {}
func (NoAttributes) attributes()      {}

// Attributes projects the field onto the attribute variant of its type.
// Attributes stored on the field but not meaningful for its type are dropped.
// Unknown types are treated as free text.
func (f Field) Attributes() Attributes {
	set := AttrPlaceholder
	if spec, ok := LookupFieldType(f.Type); ok {
		set = spec.Attributes
	}
	switch {
	case set.Has(AttrOptions):
		return ChoiceAttributes{Options: SplitOptions(f.Options)}
	case set.Has(AttrQR):
		return PaymentAttributes{QRURL: f.QRURL, QRData: f.QRData}
	case set.Has(AttrPlaceholder):
		return TextAttributes{Placeholder: f.Placeholder}
	default:
		return NoAttributes{}
	}
}

// SplitOptions splits a comma-delimited option string, trimming whitespace and
// dropping empty entries.
func SplitOptions(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
