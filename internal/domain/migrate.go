package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is the document version written by this service.
// Version 1 documents (or documents without a version) may carry legacy payment fields.
const CurrentSchemaVersion = 2

// ErrMalformedDocument is returned for documents that cannot be parsed, have no
// fields array, or break the field invariants (unique ids, one field per singleton type)
var ErrMalformedDocument = errors.New("malformed schema document")

// SchemaDocument is the persisted and exported document shape
type SchemaDocument struct {
	Version     int     `json:"version,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"desc"`
	Fields      []Field `json:"fields"`
	Event       *Event  `json:"event,omitempty"`
}

// NewSchemaDocument wraps schema in a current-version document
func NewSchemaDocument(schema FormSchema, event *Event) SchemaDocument {
	fields := schema.Fields
	if fields == nil {
		fields = []Field{}
	}
	return SchemaDocument{
		Version:     CurrentSchemaVersion,
		Title:       schema.Title,
		Description: schema.Description,
		Fields:      fields,
		Event:       event,
	}
}

// MigrationReport describes what Migrate changed
type MigrationReport struct {
	FromVersion int
	Applied     []string
}

// Changed reports whether any migration step modified the fields
func (r MigrationReport) Changed() bool {
	return len(r.Applied) > 0
}

type migration struct {
	name  string
	apply func([]Field) ([]Field, bool)
}

// migrations run in order on every document. Each step inspects the fields
// and reports no change when there is nothing to upgrade.
var migrations = []migration{
	{name: "consolidate-payment", apply: consolidatePayment},
}

// Migrate parses a stored or imported document and upgrades it to the current
// version. It is pure: the same input always yields the same schema.
func Migrate(raw []byte) (FormSchema, MigrationReport, error) {
	var doc struct {
		Version     int      `json:"version"`
		Title       string   `json:"title"`
		Description string   `json:"desc"`
		Fields      *[]Field `json:"fields"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return FormSchema{}, MigrationReport{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.Fields == nil {
		return FormSchema{}, MigrationReport{}, fmt.Errorf("%w: missing fields array", ErrMalformedDocument)
	}

	version := doc.Version
	if version < 1 {
		version = 1
	}
	report := MigrationReport{FromVersion: version}

	fields := *doc.Fields
	for _, m := range migrations {
		var changed bool
		fields, changed = m.apply(fields)
		if changed {
			report.Applied = append(report.Applied, m.name)
		}
	}

	schema := FormSchema{
		Title:       doc.Title,
		Description: doc.Description,
		Fields:      fields,
	}
	if err := schema.Validate(); err != nil {
		return FormSchema{}, MigrationReport{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return schema, report, nil
}

// consolidatePayment replaces paymentQr/paymentProof with a single payment field
// appended at the end. Schemas that already have a payment field are left alone.
func consolidatePayment(fields []Field) ([]Field, bool) {
	hasLegacy, hasPayment := false, false
	for _, f := range fields {
		switch f.Type {
		case FieldTypeLegacyPaymentQR, FieldTypeLegacyPaymentProof:
			hasLegacy = true
		case FieldTypePayment:
			hasPayment = true
		}
	}
	if !hasLegacy || hasPayment {
		return fields, false
	}

	payment := Field{Type: FieldTypePayment, Label: "Payment"}
	kept := make([]Field, 0, len(fields))
	var maxID int64
	for _, f := range fields {
		if f.ID > maxID {
			maxID = f.ID
		}
		switch f.Type {
		case FieldTypeLegacyPaymentQR:
			payment.Required = payment.Required || f.Required
			payment.QRURL = f.QRURL
			payment.QRData = f.QRData
		case FieldTypeLegacyPaymentProof:
			payment.Required = payment.Required || f.Required
		default:
			kept = append(kept, f)
		}
	}
	payment.ID = maxID + 1
	return append(kept, payment), true
}
