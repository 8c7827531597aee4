package domain

// AttributeSet is a bit set of the optional attributes a field type supports
type AttributeSet uint8

const (
	AttrPlaceholder AttributeSet = 1 << iota
	AttrOptions
	AttrQR
)

// Has reports whether all attributes in a are in s
func (s AttributeSet) Has(a AttributeSet) bool {
	return s&a == a
}

// Names lists the JSON attribute names covered by the set
func (s AttributeSet) Names() []string {
	names := []string{}
	if s.Has(AttrPlaceholder) {
		names = append(names, "placeholder")
	}
	if s.Has(AttrOptions) {
		names = append(names, "options")
	}
	if s.Has(AttrQR) {
		names = append(names, "qrUrl", "qrData")
	}
	return names
}

// FieldSpec describes a field type for the palette and the attribute editor
type FieldSpec struct {
	Type            FieldType
	Label           string
	Attributes      AttributeSet
	MultipleAllowed bool
	DefaultLabel    string
	DefaultOptions  string
}

// catalog is ordered as shown in the palette
var catalog = []FieldSpec{
	{Type: FieldTypeText, Label: "Text", Attributes: AttrPlaceholder, MultipleAllowed: true},
	{Type: FieldTypeTextarea, Label: "Text Area", Attributes: AttrPlaceholder, MultipleAllowed: true},
	{Type: FieldTypeEmail, Label: "Email", Attributes: AttrPlaceholder},
	{Type: FieldTypePhone, Label: "Phone", Attributes: AttrPlaceholder},
	{Type: FieldTypeNumber, Label: "Number", Attributes: AttrPlaceholder},
	{Type: FieldTypeDate, Label: "Date", Attributes: AttrPlaceholder},
	{Type: FieldTypeSelect, Label: "Select", Attributes: AttrOptions, DefaultOptions: "Option 1, Option 2"},
	{Type: FieldTypeCheckbox, Label: "Checkbox"},
	{Type: FieldTypeTicket, Label: "Ticket", Attributes: AttrOptions, DefaultLabel: "Ticket", DefaultOptions: "General, VIP"},
	{Type: FieldTypePayment, Label: "Payment", Attributes: AttrQR, DefaultLabel: "Payment"},
	{Type: FieldTypeConsent, Label: "Consent", DefaultLabel: "Consent Form (Parent)"},
	{Type: FieldTypeYear, Label: "Year", Attributes: AttrOptions, DefaultOptions: "1st Year, 2nd Year, 3rd Year, 4th Year"},
	{Type: FieldTypeSection, Label: "Section", Attributes: AttrOptions, DefaultOptions: "A, B, C, D"},
}

var catalogIndex = func() map[FieldType]FieldSpec {
	idx := make(map[FieldType]FieldSpec, len(catalog))
	for _, spec := range catalog {
		idx[spec.Type] = spec
	}
	return idx
}()

// Catalog returns every supported field type in palette order
func Catalog() []FieldSpec {
	out := make([]FieldSpec, len(catalog))
	copy(out, catalog)
	return out
}

// LookupFieldType returns the catalog entry for t
func LookupFieldType(t FieldType) (FieldSpec, bool) {
	spec, ok := catalogIndex[t]
	return spec, ok
}

// IsKnown reports whether t is a supported (non-legacy) field type
func (t FieldType) IsKnown() bool {
	_, ok := catalogIndex[t]
	return ok
}

// Label is the human label of the type; unknown types use the raw value
func (t FieldType) Label() string {
	if spec, ok := catalogIndex[t]; ok {
		return spec.Label
	}
	return string(t)
}

// AllowsMultiple reports whether more than one field of type t may exist in a schema
func (t FieldType) AllowsMultiple() bool {
	spec, ok := catalogIndex[t]
	return ok && spec.MultipleAllowed
}

// NewLabel is the label given to a freshly added field of this type
func (s FieldSpec) NewLabel() string {
	if s.DefaultLabel != "" {
		return s.DefaultLabel
	}
	return s.Label
}
