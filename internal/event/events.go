package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/catalog-sync/internal/catalog"
)

// ErrMalformedEvent marks payloads that fail validation. Handlers route
// these to the dead-letter path instead of retrying them.
var ErrMalformedEvent = errors.New("malformed event")

// Type is the wire-level event type.
type Type string

const (
	TypeBrandBulkUpdate             Type = "BRAND_BULK_UPDATE"
	TypeOptionBulkUpdate            Type = "OPTION_BULK_UPDATE"
	TypeAttributeBulkUpdate         Type = "ATTRIBUTE_BULK_UPDATE"
	TypeAttributeSKUBulkUpdate      Type = "ATTRIBUTE_SKU_BULK_UPDATE"
	TypeAttributeCategoryBulkUpdate Type = "ATTRIBUTE_CATEGORY_BULK_UPDATE"

	TypeCategoryLinked   Type = "CATEGORY_LINKED"
	TypeCategoryUnlinked Type = "CATEGORY_UNLINKED"
	TypeCategoryIncluded Type = "CATEGORY_INCLUDED"
	TypeCategoryExcluded Type = "CATEGORY_EXCLUDED"

	TypeCatalogChanged Type = "CATALOG_CHANGED"
)

// Topics, one per event category. Consumers handle duplicates; ordering is
// only guaranteed per partition key.
const (
	TopicCatalogChanged = "catalog.changed"
	TopicBulkUpdate     = "catalog.bulk"
	TopicTopology       = "catalog.topology"
	TopicDeadLetter     = "catalog.deadletter"
)

// TopicFor derives the publish topic from an event type.
func TopicFor(t Type) (string, error) {
	switch t {
	case TypeBrandBulkUpdate, TypeOptionBulkUpdate, TypeAttributeBulkUpdate,
		TypeAttributeSKUBulkUpdate, TypeAttributeCategoryBulkUpdate:
		return TopicBulkUpdate, nil
	case TypeCategoryLinked, TypeCategoryUnlinked, TypeCategoryIncluded, TypeCategoryExcluded:
		return TopicTopology, nil
	case TypeCatalogChanged:
		return TopicCatalogChanged, nil
	}
	return "", fmt.Errorf("%w: no topic for type %q", ErrMalformedEvent, t)
}

// Envelope wraps every event on the wire.
type Envelope struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload with a fresh id and timestamp.
func NewEnvelope(t Type, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}

// ReferenceType identifies which shared reference entity a bulk update is
// about, and at which level its embedded copies live.
type ReferenceType string

const (
	RefBrand             ReferenceType = "BRAND"
	RefOption            ReferenceType = "OPTION"
	RefAttribute         ReferenceType = "ATTRIBUTE"
	RefAttributeSKU      ReferenceType = "ATTRIBUTE_SKU"
	RefAttributeCategory ReferenceType = "ATTRIBUTE_CATEGORY"
)

// ProjectionType maps the reference type to the projection that stores the
// reference entity's translations.
func (r ReferenceType) ProjectionType() catalog.Type {
	switch r {
	case RefBrand:
		return catalog.TypeBrand
	case RefOption:
		return catalog.TypeOption
	default:
		return catalog.TypeAttribute
	}
}

// OwnerType maps the reference type to the projection kind whose embedded
// copies the bulk update refreshes.
func (r ReferenceType) OwnerType() catalog.Type {
	if r == RefAttributeCategory {
		return catalog.TypeCategory
	}
	return catalog.TypeOffer
}

// BulkUpdate announces that a reference entity changed and lists the owner
// codes whose embedded copies must be refreshed.
type BulkUpdate struct {
	ReferenceType      ReferenceType `json:"referenceType"`
	ReferenceCode      string        `json:"referenceCode"`
	AffectedOwnerCodes []string      `json:"affectedOwnerCodes"`
}

// Validate checks the event is processable at all.
func (b BulkUpdate) Validate() error {
	switch b.ReferenceType {
	case RefBrand, RefOption, RefAttribute, RefAttributeSKU, RefAttributeCategory:
	default:
		return fmt.Errorf("%w: unknown reference type %q", ErrMalformedEvent, b.ReferenceType)
	}
	if b.ReferenceCode == "" {
		return fmt.Errorf("%w: empty reference code", ErrMalformedEvent)
	}
	return nil
}

// TopologyOp is a catalog-topology operation on a category.
type TopologyOp string

const (
	OpLink    TopologyOp = "LINK"
	OpUnlink  TopologyOp = "UNLINK"
	OpInclude TopologyOp = "INCLUDE"
	OpExclude TopologyOp = "EXCLUDE"
)

// Topology announces a category link/unlink or include/exclude within a
// virtual catalog.
type Topology struct {
	Operation    TopologyOp `json:"operation"`
	CategoryCode string     `json:"categoryCode"`
	CatalogCode  string     `json:"catalogCode"`
}

// Validate checks the event is processable at all.
func (t Topology) Validate() error {
	switch t.Operation {
	case OpLink, OpUnlink, OpInclude, OpExclude:
	default:
		return fmt.Errorf("%w: unknown topology operation %q", ErrMalformedEvent, t.Operation)
	}
	if t.CategoryCode == "" {
		return fmt.Errorf("%w: empty category code", ErrMalformedEvent)
	}
	if t.CatalogCode == "" {
		return fmt.Errorf("%w: empty catalog code", ErrMalformedEvent)
	}
	return nil
}

// CatalogChanged notifies downstream consumers that one projection was
// created, refreshed, tombstoned or revived.
type CatalogChanged struct {
	Type       catalog.Type `json:"type"`
	Code       string       `json:"code"`
	Store      string       `json:"store"`
	Deleted    bool         `json:"deleted"`
	ModifiedAt time.Time    `json:"modifiedAt"`
}

// NewCatalogChanged builds the catalog-change envelope for a projection
// mutation, returning it alongside its serialized form for the outbox.
func NewCatalogChanged(p catalog.Projection) (Envelope, []byte, error) {
	env, err := NewEnvelope(TypeCatalogChanged, CatalogChanged{
		Type:       p.ID.Type,
		Code:       p.ID.Code,
		Store:      p.ID.Store,
		Deleted:    p.Deleted,
		ModifiedAt: p.ModifiedAt,
	})
	if err != nil {
		return Envelope{}, nil, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, err
	}
	return env, data, nil
}
