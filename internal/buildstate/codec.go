// Package buildstate maps the product builder's shareable configuration to
// and from URL query parameters.
package buildstate

import (
	"net/url"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
)

// Recognised query keys.
const (
	KeyOrigin      = "origin"
	KeyCarat       = "carat"
	KeyColour      = "colour"
	KeyClarity     = "clarity"
	KeyCertificate = "certificate"
	KeyMetal       = "metal"
	KeyRingSize    = "ringSize"
	KeyEngraving   = "engraving"
	KeyEngravingOn = "engravingOn"
)

// Keys lists every query key owned by the codec.
var Keys = []string{
	KeyOrigin, KeyCarat, KeyColour, KeyClarity, KeyCertificate,
	KeyMetal, KeyRingSize, KeyEngraving, KeyEngravingOn,
}

// textKeys are the string-valued keys, in the order they map onto State.
var textKeys = []string{
	KeyOrigin, KeyCarat, KeyColour, KeyClarity, KeyCertificate,
	KeyMetal, KeyRingSize, KeyEngraving,
}

// State is the builder configuration carried in the URL. An empty string
// means the key is absent. EngravingOn is nil when the key is absent.
type State struct {
	Origin      string `json:"origin,omitempty"`
	Carat       string `json:"carat,omitempty"`
	Colour      string `json:"colour,omitempty"`
	Clarity     string `json:"clarity,omitempty"`
	Certificate string `json:"certificate,omitempty"`
	Metal       string `json:"metal,omitempty"`
	RingSize    string `json:"ringSize,omitempty"`
	Engraving   string `json:"engraving,omitempty"`
	EngravingOn *bool  `json:"engravingOn,omitempty"`
}

func (s *State) field(key string) *string {
	switch key {
	case KeyOrigin:
		return &s.Origin
	case KeyCarat:
		return &s.Carat
	case KeyColour:
		return &s.Colour
	case KeyClarity:
		return &s.Clarity
	case KeyCertificate:
		return &s.Certificate
	case KeyMetal:
		return &s.Metal
	case KeyRingSize:
		return &s.RingSize
	case KeyEngraving:
		return &s.Engraving
	}
	return nil
}

// Parse reads the recognised keys out of q. Unknown keys are ignored and no
// defaults are filled in. engravingOn is true only for "1" or "true".
func Parse(q url.Values) State {
	var s State
	for _, key := range textKeys {
		if _, ok := q[key]; ok {
			*s.field(key) = q.Get(key)
		}
	}
	if _, ok := q[KeyEngravingOn]; ok {
		v := q.Get(KeyEngravingOn)
		on := v == "1" || v == "true"
		s.EngravingOn = &on
	}
	return s
}

// Serialize encodes s as a query string. Parameters in existing that the
// codec does not own (pagination, filters) are preserved; every recognised
// key is replaced by the value in s. engravingOn is written as "1" or "0".
// An empty string is returned when no parameters remain.
func Serialize(s State, existing url.Values) string {
	q := url.Values{}
	for k, vs := range existing {
		q[k] = append([]string(nil), vs...)
	}
	for _, key := range Keys {
		q.Del(key)
	}
	for _, key := range textKeys {
		if v := *s.field(key); v != "" {
			q.Set(key, v)
		}
	}
	if s.EngravingOn != nil {
		if *s.EngravingOn {
			q.Set(KeyEngravingOn, "1")
		} else {
			q.Set(KeyEngravingOn, "0")
		}
	}
	if len(q) == 0 {
		return ""
	}
	return q.Encode()
}

// selectionGroups pairs URL keys with the option groups they select.
var selectionGroups = map[string]string{
	KeyOrigin:      entity.GroupOrigin,
	KeyCarat:       entity.GroupCarat,
	KeyColour:      entity.GroupColour,
	KeyClarity:     entity.GroupClarity,
	KeyCertificate: entity.GroupCertificate,
	KeyMetal:       entity.GroupMetal,
	KeyRingSize:    entity.GroupRingSize,
}

// Selection converts the URL state into an option selection for pricing.
func (s State) Selection() entity.Selection {
	sel := entity.Selection{Options: make(map[string]string)}
	for key, group := range selectionGroups {
		if v := *s.field(key); v != "" {
			sel.Options[group] = v
		}
	}
	sel.Engraving.Text = s.Engraving
	sel.Engraving.On = s.EngravingOn != nil && *s.EngravingOn
	return sel
}

// FromSelection builds the URL state for sel. Option groups with no URL key
// (stone, cut) are not shareable and are dropped.
func FromSelection(sel entity.Selection) State {
	var s State
	for key, group := range selectionGroups {
		*s.field(key) = sel.Get(group)
	}
	s.Engraving = sel.Engraving.Text
	if sel.Engraving.On || sel.Engraving.Text != "" {
		on := sel.Engraving.On
		s.EngravingOn = &on
	}
	return s
}
