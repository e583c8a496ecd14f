package steps

import (
	"fmt"

	"github.com/accreditkit/quoteform/pkg/forms"
	"github.com/accreditkit/quoteform/pkg/intake"
)

// Contact block field names.
const (
	fieldFirstName = "firstName"
	fieldLastName  = "lastName"
	fieldPhone     = "phone"
	fieldEmail     = "email"
)

var contactFieldNames = []string{fieldFirstName, fieldLastName, fieldPhone, fieldEmail}

// contactBlock describes one leadership contact block.
type contactBlock struct {
	Key      string
	Title    string
	Required bool
}

var contactBlocks = []contactBlock{
	{Key: intake.BlockCEO, Title: "Chief Executive Officer (CEO)", Required: true},
	{Key: intake.BlockQuality, Title: "Director of Quality", Required: false},
	{Key: intake.BlockInvoicing, Title: "Invoicing Contact", Required: true},
}

func fieldKey(block, field string) string {
	return block + "." + field
}

// contactFields returns the descriptors of one contact block. Pattern
// rules apply to non-empty values even when the block is optional.
func contactFields(b contactBlock, disabled bool) []forms.Field {
	req := func(label string) forms.FieldOption {
		if !b.Required {
			return func(*forms.Field) {}
		}
		return forms.WithRequired(fmt.Sprintf("%s %s is required", b.Title, label))
	}
	return []forms.Field{
		forms.NewField(fieldKey(b.Key, fieldFirstName), forms.FieldText, "First Name",
			req("First Name"),
			forms.WithValidator(forms.LettersOnly("First Name can only contain letters")),
			forms.WithDisabled(disabled)),
		forms.NewField(fieldKey(b.Key, fieldLastName), forms.FieldText, "Last Name",
			req("Last Name"),
			forms.WithValidator(forms.LettersOnly("Last Name can only contain letters")),
			forms.WithDisabled(disabled)),
		forms.NewField(fieldKey(b.Key, fieldPhone), forms.FieldTel, "Phone",
			req("Phone"),
			forms.WithValidator(forms.Phone()),
			forms.WithMaxLength(10),
			forms.WithDisabled(disabled)),
		forms.NewField(fieldKey(b.Key, fieldEmail), forms.FieldEmail, "Email",
			req("Email"),
			forms.WithValidator(forms.Email()),
			forms.WithDisabled(disabled)),
	}
}

func contactValues(block string, c intake.Contact) map[string]string {
	return map[string]string{
		fieldKey(block, fieldFirstName): c.FirstName,
		fieldKey(block, fieldLastName):  c.LastName,
		fieldKey(block, fieldPhone):     c.Phone,
		fieldKey(block, fieldEmail):     c.Email,
	}
}

func setContactField(c *intake.Contact, field, value string) bool {
	switch field {
	case fieldFirstName:
		c.FirstName = value
	case fieldLastName:
		c.LastName = value
	case fieldPhone:
		c.Phone = forms.DigitsOnly(value, 10)
	case fieldEmail:
		c.Email = value
	default:
		return false
	}
	return true
}

// Billing address field names.
const (
	BlockBilling = "billing"

	fieldStreet = "street"
	fieldCity   = "city"
	fieldState  = "state"
	fieldZIP    = "zip"
)

func billingFields(states []intake.State) []forms.Field {
	opts := make([]forms.Option, len(states))
	codes := make([]string, len(states))
	for i, s := range states {
		opts[i] = forms.Option{Value: s.Code, Label: s.Name}
		codes[i] = s.Code
	}
	return []forms.Field{
		forms.NewField(fieldKey(BlockBilling, fieldStreet), forms.FieldText, "Street Address",
			forms.WithRequired("Street Address is required")),
		forms.NewField(fieldKey(BlockBilling, fieldCity), forms.FieldText, "City",
			forms.WithRequired("City is required"),
			forms.WithValidator(forms.LettersOnly("City can only contain letters"))),
		forms.NewField(fieldKey(BlockBilling, fieldState), forms.FieldSelect, "State",
			forms.WithRequired("Please select a state"),
			forms.WithValidator(forms.OneOf(codes, "Please select a state")),
			forms.WithOptions(opts...)),
		forms.NewField(fieldKey(BlockBilling, fieldZIP), forms.FieldText, "ZIP Code",
			forms.WithRequired("ZIP Code is required"),
			forms.WithValidator(forms.ZIP()),
			forms.WithMaxLength(5)),
	}
}

func billingValues(a intake.Address) map[string]string {
	return map[string]string{
		fieldKey(BlockBilling, fieldStreet): a.Street,
		fieldKey(BlockBilling, fieldCity):   a.City,
		fieldKey(BlockBilling, fieldState):  a.State,
		fieldKey(BlockBilling, fieldZIP):    a.ZIP,
	}
}

func setBillingField(a *intake.Address, field, value string) bool {
	switch field {
	case fieldStreet:
		a.Street = value
	case fieldCity:
		a.City = forms.StripDigits(value)
	case fieldState:
		a.State = value
	case fieldZIP:
		a.ZIP = forms.DigitsOnly(value, 5)
	default:
		return false
	}
	return true
}
