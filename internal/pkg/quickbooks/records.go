package quickbooks

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number decodes a JSON number or a numeric string. Anything else is 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

func (n Number) Float64() float64 { return float64(n) }

// Text decodes a JSON string, number or boolean as its text. Objects and
// arrays decode as empty text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case data[0] == '{' || data[0] == '[':
		*t = ""
	default:
		*t = Text(data)
	}
	return nil
}

// Ptr returns the text as a *string, or nil for a field that was absent.
func (t *Text) Ptr() *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

// Flag decodes a JSON boolean, a boolean string such as "true", or a number
// (non-zero is true). Anything else is false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var t Text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	s := strings.TrimSpace(string(t))
	if b, err := strconv.ParseBool(s); err == nil {
		*f = Flag(b)
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*f = Flag(n != 0)
		return nil
	}
	*f = false
	return nil
}

// Ref is a provider reference ({"value": id, "name": label}).
type Ref struct {
	Value Text `json:"value"`
	Name  Text `json:"name"`
}

// MetaData carries the source system timestamps as RFC 3339 strings.
type MetaData struct {
	CreateTime      Text `json:"CreateTime"`
	LastUpdatedTime Text `json:"LastUpdatedTime"`
}

// PhysicalAddress is a vendor or customer address block.
type PhysicalAddress struct {
	ID                     *Text `json:"Id"`
	Line1                  *Text `json:"Line1"`
	City                   *Text `json:"City"`
	CountrySubDivisionCode *Text `json:"CountrySubDivisionCode"`
	PostalCode             *Text `json:"PostalCode"`
	Lat                    *Text `json:"Lat"`
	Lon                    *Text `json:"Lon"`
}

type BillRecord struct {
	ID          Text             `json:"Id"`
	TxnDate     Text             `json:"TxnDate"`
	DueDate     Text             `json:"DueDate"`
	TotalAmt    Number           `json:"TotalAmt"`
	Balance     Number           `json:"Balance"`
	VendorRef   *Ref             `json:"VendorRef"`
	VendorAddr  *PhysicalAddress `json:"VendorAddr"`
	CurrencyRef *Ref             `json:"CurrencyRef"`
	MetaData    *MetaData        `json:"MetaData"`
	Line        []BillLine       `json:"Line"`
}

type BillLine struct {
	LineNum                    *Number                     `json:"LineNum"`
	Description                *Text                       `json:"Description"`
	Amount                     Number                      `json:"Amount"`
	ItemBasedExpenseLineDetail *ItemBasedExpenseLineDetail `json:"ItemBasedExpenseLineDetail"`
}

type ItemBasedExpenseLineDetail struct {
	ItemRef   *Ref   `json:"ItemRef"`
	Qty       Number `json:"Qty"`
	UnitPrice Number `json:"UnitPrice"`
}

type CustomerRecord struct {
	ID                      Text             `json:"Id"`
	SyncToken               *Text            `json:"SyncToken"`
	Domain                  *Text            `json:"domain"`
	GivenName               *Text            `json:"GivenName"`
	DisplayName             *Text            `json:"DisplayName"`
	BillWithParent          *Flag            `json:"BillWithParent"`
	FullyQualifiedName      *Text            `json:"FullyQualifiedName"`
	CompanyName             *Text            `json:"CompanyName"`
	FamilyName              *Text            `json:"FamilyName"`
	Sparse                  *Flag            `json:"sparse"`
	PrimaryPhone            *TelephoneNumber `json:"PrimaryPhone"`
	PrimaryEmailAddr        *EmailAddress    `json:"PrimaryEmailAddr"`
	Active                  *Flag            `json:"Active"`
	Job                     *Flag            `json:"Job"`
	BalanceWithJobs         Number           `json:"BalanceWithJobs"`
	PreferredDeliveryMethod *Text            `json:"PreferredDeliveryMethod"`
	Taxable                 *Flag            `json:"Taxable"`
	PrintOnCheckName        *Text            `json:"PrintOnCheckName"`
	Balance                 Number           `json:"Balance"`
	BillAddr                *PhysicalAddress `json:"BillAddr"`
	MetaData                *MetaData        `json:"MetaData"`
}

type TelephoneNumber struct {
	FreeFormNumber *Text `json:"FreeFormNumber"`
}

type EmailAddress struct {
	Address *Text `json:"Address"`
}
