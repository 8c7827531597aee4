package domain

import "fmt"

// DefaultDescription is the tagline of a freshly created schema
const DefaultDescription = "Please complete the form below."

// FormSchema is the registration form of one event
type FormSchema struct {
	Title       string  `json:"title"`
	Description string  `json:"desc"`
	Fields      []Field `json:"fields"`
}

// DefaultSchema is used for events without a stored schema
func DefaultSchema(eventName string) FormSchema {
	return FormSchema{
		Title:       DefaultTitle(eventName),
		Description: DefaultDescription,
		Fields: []Field{
			{ID: 1, Type: FieldTypeText, Label: "Full Name", Required: true, Placeholder: "Enter your full name"},
			{ID: 2, Type: FieldTypeEmail, Label: "Email", Required: true, Placeholder: "you@example.com"},
		},
	}
}

// DefaultTitle is the heading given to an event's form
func DefaultTitle(eventName string) string {
	return fmt.Sprintf("%s Registration", eventName)
}

// Clone returns a deep copy
func (s FormSchema) Clone() FormSchema {
	out := s
	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		copy(out.Fields, s.Fields)
	}
	return out
}

// IndexOf returns the position of the field with id, or -1
func (s FormSchema) IndexOf(id int64) int {
	for i, f := range s.Fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// HasType reports whether a field of type t exists
func (s FormSchema) HasType(t FieldType) bool {
	for _, f := range s.Fields {
		if f.Type == t {
			return true
		}
	}
	return false
}

// MaxID returns the largest field id, or 0 for an empty schema
func (s FormSchema) MaxID() int64 {
	var max int64
	for _, f := range s.Fields {
		if f.ID > max {
			max = f.ID
		}
	}
	return max
}

// DuplicateSingletons lists catalog singleton types that occur more than once
func (s FormSchema) DuplicateSingletons() []FieldType {
	counts := map[FieldType]int{}
	var dups []FieldType
	for _, f := range s.Fields {
		if !f.Type.IsKnown() || f.Type.AllowsMultiple() {
			continue
		}
		counts[f.Type]++
		if counts[f.Type] == 2 {
			dups = append(dups, f.Type)
		}
	}
	return dups
}

// DuplicateIDs lists field ids that occur more than once
func (s FormSchema) DuplicateIDs() []int64 {
	seen := make(map[int64]int, len(s.Fields))
	var dups []int64
	for _, f := range s.Fields {
		seen[f.ID]++
		if seen[f.ID] == 2 {
			dups = append(dups, f.ID)
		}
	}
	return dups
}

// Validate checks that field ids are unique and no singleton type repeats
func (s FormSchema) Validate() error {
	if dups := s.DuplicateIDs(); len(dups) > 0 {
		return fmt.Errorf("duplicate field ids %v", dups)
	}
	if dups := s.DuplicateSingletons(); len(dups) > 0 {
		return fmt.Errorf("more than one field of type %v", dups)
	}
	return nil
}
