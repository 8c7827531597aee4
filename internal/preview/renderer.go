// Package preview projects a form schema into renderable control descriptors.
package preview

import "registration-form-api/internal/domain"

// Kind of a rendered control
type Kind string

const (
	KindText      Kind = "text"
	KindTextarea  Kind = "textarea"
	KindSelect    Kind = "select"
	KindCheckbox  Kind = "checkbox"
	KindFile      Kind = "file"
	KindImage     Kind = "image"
	KindNotice    Kind = "notice"
	KindComposite Kind = "composite"
)

const (
	// AcceptPDF restricts file controls to PDF uploads
	AcceptPDF = "application/pdf"
	// SelectPrompt is the label of the leading empty option
	SelectPrompt = "Select..."
	// MissingQRNotice is shown for payment fields without a QR image
	MissingQRNotice = "No payment QR configured"
)

// Option is one choice of a select control
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Control describes one rendered form control
type Control struct {
	FieldID     int64            `json:"fieldId"`
	FieldType   domain.FieldType `json:"fieldType"`
	Kind        Kind             `json:"kind"`
	Label       string           `json:"label"`
	ShowLabel   bool             `json:"showLabel"`
	Required    bool             `json:"required"`
	Placeholder string           `json:"placeholder,omitempty"`
	Options     []Option         `json:"options,omitempty"`
	Accept      string           `json:"accept,omitempty"`
	Image       string           `json:"image,omitempty"`
	Notice      string           `json:"notice,omitempty"`
	Children    []Control        `json:"children,omitempty"`
}

// Form is the rendered preview of a schema
type Form struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Controls    []Control `json:"controls"`
}

// Render projects schema into controls. It never mutates schema.
func Render(schema domain.FormSchema) Form {
	controls := make([]Control, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		controls = append(controls, RenderField(f))
	}
	return Form{
		Title:       schema.Title,
		Description: schema.Description,
		Controls:    controls,
	}
}

// RenderField maps one field to its control
func RenderField(f domain.Field) Control {
	c := Control{
		FieldID:   f.ID,
		FieldType: f.Type,
		Label:     f.Label,
		ShowLabel: true,
		Required:  f.Required,
	}

	switch attrs := f.Attributes().(type) {
	case domain.ChoiceAttributes:
		c.Kind = KindSelect
		c.Options = make([]Option, 0, len(attrs.Options)+1)
		c.Options = append(c.Options, Option{Value: "", Label: SelectPrompt})
		for _, o := range attrs.Options {
			c.Options = append(c.Options, Option{Value: o, Label: o})
		}
	case domain.PaymentAttributes:
		c.Kind = KindComposite
		c.Children = []Control{qrControl(f, attrs), pdfUpload(f)}
	case domain.TextAttributes:
		c.Kind = KindText
		if f.Type == domain.FieldTypeTextarea {
			c.Kind = KindTextarea
		}
		c.Placeholder = attrs.Placeholder
	default:
		switch f.Type {
		case domain.FieldTypeCheckbox:
			c.Kind = KindCheckbox
			c.ShowLabel = false
		case domain.FieldTypeConsent:
			c.Kind = KindFile
			c.Accept = AcceptPDF
		default:
			c.Kind = KindText
		}
	}
	return c
}

func qrControl(f domain.Field, attrs domain.PaymentAttributes) Control {
	src := attrs.QRData
	if src == "" {
		src = attrs.QRURL
	}
	if src == "" {
		return Control{FieldID: f.ID, FieldType: f.Type, Kind: KindNotice, Notice: MissingQRNotice}
	}
	return Control{FieldID: f.ID, FieldType: f.Type, Kind: KindImage, Label: f.Label, Image: src}
}

func pdfUpload(f domain.Field) Control {
	return Control{
		FieldID:   f.ID,
		FieldType: f.Type,
		Kind:      KindFile,
		Label:     f.Label,
		ShowLabel: true,
		Required:  f.Required,
		Accept:    AcceptPDF,
	}
}
