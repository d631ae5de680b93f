package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Field names, as they appear in the persisted state file.
const (
	FieldAccess   = "access"
	FieldAddress  = "address"
	FieldArea     = "area"
	FieldInterest = "interest"
	FieldRent     = "rent"
	FieldKind     = "kind"
)

// FieldNames lists the six record attributes in their serialisation order.
var FieldNames = []string{FieldAccess, FieldAddress, FieldArea, FieldInterest, FieldRent, FieldKind}

// Labels maps each field to the label text that precedes it on the listing page.
var Labels = map[string]string{
	FieldAccess:   "Tillträde:",
	FieldAddress:  "Adress:",
	FieldArea:     "Område:",
	FieldInterest: "Antal intresse:",
	FieldRent:     "Hyra:",
	FieldKind:     "Type:",
}

// Parking is one availability record scraped from the listing source.
// All attributes are opaque display strings. A Parking is immutable once
// constructed; use NewParking or ParkingFromMap to build one.
type Parking struct {
	access   string
	address  string
	area     string
	interest string
	rent     string
	kind     string
}

// NewParking validates the six attributes and returns a record.
func NewParking(access, address, area, interest, rent, kind string) (*Parking, error) {
	return ParkingFromMap(map[string]string{
		FieldAccess:   access,
		FieldAddress:  address,
		FieldArea:     area,
		FieldInterest: interest,
		FieldRent:     rent,
		FieldKind:     kind,
	})
}

// ParkingFromMap builds a record from field name -> value. Missing, empty and
// unexpected fields are reported together in a single ValidationError.
func ParkingFromMap(fields map[string]string) (*Parking, error) {
	verr := &ValidationError{}
	for name := range fields {
		if _, known := Labels[name]; !known {
			verr.Unexpected = append(verr.Unexpected, name)
		}
	}
	return build(fields, verr)
}

func build(fields map[string]string, verr *ValidationError) (*Parking, error) {
	for _, name := range FieldNames {
		if contains(verr.NotText, name) {
			continue
		}
		v, ok := fields[name]
		switch {
		case !ok:
			verr.Missing = append(verr.Missing, name)
		case v == "":
			verr.Empty = append(verr.Empty, name)
		}
	}
	sort.Strings(verr.Unexpected)
	sort.Strings(verr.NotText)

	if verr.failed() {
		return nil, verr
	}

	return &Parking{
		access:   fields[FieldAccess],
		address:  fields[FieldAddress],
		area:     fields[FieldArea],
		interest: fields[FieldInterest],
		rent:     fields[FieldRent],
		kind:     fields[FieldKind],
	}, nil
}

func (p *Parking) Access() string   { return p.access }
func (p *Parking) Address() string  { return p.address }
func (p *Parking) Area() string     { return p.area }
func (p *Parking) Interest() string { return p.interest }
func (p *Parking) Rent() string     { return p.rent }
func (p *Parking) Kind() string     { return p.kind }

// Key returns the identity key of the record: area, address, kind, rent,
// access and interest joined with "|". Two records describe the same
// parking spot iff their keys are equal.
func (p *Parking) Key() string {
	return strings.Join([]string{p.area, p.address, p.kind, p.rent, p.access, p.interest}, "|")
}

// Map returns the record as field name -> value.
func (p *Parking) Map() map[string]string {
	return map[string]string{
		FieldAccess:   p.access,
		FieldAddress:  p.address,
		FieldArea:     p.area,
		FieldInterest: p.interest,
		FieldRent:     p.rent,
		FieldKind:     p.kind,
	}
}

func (p *Parking) String() string {
	return fmt.Sprintf("Parking{%s}", p.Key())
}

// MarshalJSON writes the fields in FieldNames order without escaping
// non-ASCII or HTML characters.
func (p *Parking) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	values := p.Map()

	buf.WriteByte('{')
	for i, name := range FieldNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"` + name + `":`)
		v, err := marshalString(values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON accepts only an object with exactly the six string fields.
func (p *Parking) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := make(map[string]string, len(raw))
	verr := &ValidationError{}
	for name, value := range raw {
		if _, known := Labels[name]; !known {
			verr.Unexpected = append(verr.Unexpected, name)
			continue
		}
		var s string
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) || json.Unmarshal(value, &s) != nil {
			verr.NotText = append(verr.NotText, name)
			continue
		}
		fields[name] = s
	}

	parsed, err := build(fields, verr)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
