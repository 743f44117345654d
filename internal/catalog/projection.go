package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of entity a projection describes.
type Type string

const (
	TypeOffer     Type = "offer"
	TypeCategory  Type = "category"
	TypeBrand     Type = "brand"
	TypeOption    Type = "option"
	TypeAttribute Type = "attribute"
)

// ParseType validates a type string coming off the wire.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeOffer, TypeCategory, TypeBrand, TypeOption, TypeAttribute:
		return t, nil
	}
	return "", fmt.Errorf("unknown projection type %q", s)
}

// ProjectionID is the unique, immutable identity of a projection: what it
// describes, the entity code, and the store it is scoped to.
type ProjectionID struct {
	Type  Type   `json:"type"`
	Code  string `json:"code"`
	Store string `json:"store"`
}

func (id ProjectionID) String() string {
	return string(id.Type) + "/" + id.Code + "@" + id.Store
}

// Projection is the persisted envelope around a store-scoped read document.
// Deleted=true marks a tombstone: the record is kept so downstream consumers
// can observe the deletion, and may later be revived with a fresh payload.
type Projection struct {
	ID         ProjectionID    `json:"identity"`
	ModifiedAt time.Time       `json:"modifiedAt"`
	Deleted    bool            `json:"deleted"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Property is a name/value pair carried on offers and categories.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AvailabilityRules bounds when a projection is sellable or visible.
type AvailabilityRules struct {
	EnableDateTime  *time.Time `json:"enableDateTime,omitempty"`
	DisableDateTime *time.Time `json:"disableDateTime,omitempty"`
}

// Translation is a single translated display name.
type Translation struct {
	Language    string `json:"language"`
	DisplayName string `json:"displayName"`
}

// TranslationUnit is a denormalized copy of a referenced entity's translated
// display name, keyed by that entity's code. Bulk updates refresh the
// DisplayName while the Code stays fixed.
type TranslationUnit struct {
	DisplayName string `json:"displayName"`
	Code        string `json:"name"`
}

// DetailsTranslation embeds a translated attribute with its values.
type DetailsTranslation struct {
	TranslationUnit
	DisplayValues []string `json:"displayValues,omitempty"`
	Values        []string `json:"values,omitempty"`
}
