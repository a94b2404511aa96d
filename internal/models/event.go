package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Event represents a calendar event as returned by the DokuMe myevents endpoint.
// Fields are kept in their received textual form; nothing is parsed or reformatted.
type Event struct {
	ID            Value     `json:"ID"`
	Title         Value     `json:"TITLE"`
	Location      Value     `json:"LOCATION"`
	StartDate     Value     `json:"STARTDATE"`
	EndDate       Value     `json:"ENDDATE"`
	Color         Value     `json:"COLOR"`
	AllDay        Value     `json:"ALLDAY"`
	Private       Value     `json:"PRIVATE"`
	CreationDate  Value     `json:"CREATIONDATE"`
	CreatorID     Value     `json:"CREATOR_ID"`
	CourseID      Value     `json:"COURSE_ID"`
	ConnectedID   Value     `json:"CONNECTED_ID"`
	UserInterface Interface `json:"USERINTERFACE_ID"`
	Note          Value     `json:"NOTE"`
}

// Key identifies an event for deduplication.
type Key struct {
	ID    Value
	Start Value
	Title Value
}

// Key returns the (ID, STARTDATE, TITLE) identity of the event.
func (e Event) Key() Key {
	return Key{ID: e.ID, Start: e.StartDate, Title: e.Title}
}

// Kind describes which JSON shape a Value was decoded from.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
	KindRaw // object or array, kept as compact JSON
)

// Value is a loosely typed scalar field. The zero value is absent.
type Value struct {
	Kind Kind
	Text string
}

// String returns a Value holding s.
func String(s string) Value {
	return Value{Kind: KindString, Text: s}
}

// Number returns a Value holding the literal JSON number n.
func Number(n string) Value {
	return Value{Kind: KindNumber, Text: n}
}

// IsSet reports whether the field was present and not null.
func (v Value) IsSet() bool { return v.Kind != KindAbsent }

// String renders the value for output. Absent values render as "".
func (v Value) String() string { return v.Text }

// Truthy reports whether the value counts as set-and-true: non-empty strings,
// non-zero numbers, true and non-empty raw JSON.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindString:
		return v.Text != ""
	case KindNumber:
		f, err := strconv.ParseFloat(v.Text, 64)
		return err != nil || f != 0
	case KindBool:
		return v.Text == "true"
	case KindRaw:
		return v.Text != "[]" && v.Text != "{}"
	}
	return false
}

// Flag interprets the value as a 0/1 style switch as used by ALLDAY and PRIVATE.
func (v Value) Flag() bool {
	switch strings.ToLower(strings.TrimSpace(v.Text)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func (v *Value) UnmarshalJSON(data []byte) error {
	val, err := decodeScalar(data)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindAbsent:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Text)
	}
	return []byte(v.Text), nil
}

func decodeScalar(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Value{}, nil
	}
	switch data[0] {
	case 'n':
		return Value{}, nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBool, Text: strconv.FormatBool(b)}, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindRaw, Text: buf.String()}, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return Value{}, fmt.Errorf("unsupported value %s: %w", data, err)
	}
	return Number(n.String()), nil
}

// InterfaceKind tags the shape of the nested USERINTERFACE_ID field.
type InterfaceKind uint8

const (
	InterfaceAbsent InterfaceKind = iota
	InterfaceNamed
	InterfaceOther
)

// Interface is the nested user interface reference. The API sends either an
// object with a NAME member, a bare scalar, or nothing.
type Interface struct {
	Kind InterfaceKind
	// Label is the NAME member for InterfaceNamed, the raw scalar text for InterfaceOther.
	Label string
}

// NamedInterface returns a resolved interface reference.
func NamedInterface(name string) Interface {
	return Interface{Kind: InterfaceNamed, Label: name}
}

// OtherInterface returns an interface reference that only carries a raw value.
func OtherInterface(raw string) Interface {
	return Interface{Kind: InterfaceOther, Label: raw}
}

// Name resolves the reference to its display name, "" when absent.
func (i Interface) Name() string {
	if i.Kind == InterfaceAbsent {
		return ""
	}
	return i.Label
}

func (i *Interface) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Name Value `json:"NAME"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*i = NamedInterface(obj.Name.String())
		return nil
	}

	v, err := decodeScalar(data)
	if err != nil {
		return err
	}
	// Falsy scalars carry no reference.
	if !v.Truthy() {
		*i = Interface{}
		return nil
	}
	*i = OtherInterface(v.String())
	return nil
}
