package catalog

// Offer is the denormalized, store-scoped projection of a sellable product.
type Offer struct {
	Items             []Item             `json:"items,omitempty"`
	Properties        []Property         `json:"properties,omitempty"`
	AvailabilityRules *AvailabilityRules `json:"availabilityRules,omitempty"`
	Associations      []Association      `json:"associations,omitempty"`
	SelectionRules    *SelectionRules    `json:"selectionRules,omitempty"`
	Components        []string           `json:"components,omitempty"`
	FormFields        []string           `json:"formFields,omitempty"`
	Translations      []OfferTranslation `json:"translations,omitempty"`
	Categories        []OfferCategory    `json:"categories,omitempty"`
}

// Association links an offer to related offers (cross-sell, upsell, ...).
type Association struct {
	Type  string   `json:"type"`
	Codes []string `json:"codes,omitempty"`
}

// SelectionRules constrains how bundle components are chosen.
type SelectionRules struct {
	Selection string `json:"selection"`
	Quantity  int    `json:"quantity"`
}

// OfferCategory records the offer's membership in one category.
type OfferCategory struct {
	Code     string   `json:"code"`
	Path     []string `json:"path,omitempty"`
	Default  bool     `json:"default,omitempty"`
	Featured int      `json:"featured,omitempty"`
}

// OfferTranslation holds one language's view of an offer, including the
// embedded copies of referenced brand, option and attribute display names.
type OfferTranslation struct {
	Language    string               `json:"language"`
	DisplayName string               `json:"displayName"`
	Brand       *TranslationUnit     `json:"brand,omitempty"`
	Options     []TranslationUnit    `json:"options,omitempty"`
	Details     []DetailsTranslation `json:"details,omitempty"`
}

// Item is an offer's SKU-level sub-document.
type Item struct {
	Code         string            `json:"itemCode"`
	Properties   []Property        `json:"properties,omitempty"`
	Translations []ItemTranslation `json:"translations,omitempty"`
}

// ItemTranslation holds one language's view of an item.
type ItemTranslation struct {
	Language string                  `json:"language"`
	Details  []DetailsTranslation    `json:"details,omitempty"`
	Options  []ItemOptionTranslation `json:"options,omitempty"`
}

// ItemOptionTranslation is the embedded copy of a chosen option value:
// both the option's display name and the selected value's display value.
type ItemOptionTranslation struct {
	DisplayName  string `json:"displayName"`
	Code         string `json:"name"`
	DisplayValue string `json:"displayValue"`
	Value        string `json:"value"`
}

// Clone returns a deep copy. The builder works on clones so that applying a
// reference update never mutates the caller's value.
func (o Offer) Clone() Offer {
	out := o
	out.Items = cloneItems(o.Items)
	out.Properties = cloneSlice(o.Properties)
	out.Associations = cloneAssociations(o.Associations)
	out.Components = cloneSlice(o.Components)
	out.FormFields = cloneSlice(o.FormFields)
	out.Translations = cloneOfferTranslations(o.Translations)
	out.Categories = cloneOfferCategories(o.Categories)
	if o.AvailabilityRules != nil {
		rules := *o.AvailabilityRules
		out.AvailabilityRules = &rules
	}
	if o.SelectionRules != nil {
		rules := *o.SelectionRules
		out.SelectionRules = &rules
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneItems(in []Item) []Item {
	if in == nil {
		return nil
	}
	out := make([]Item, len(in))
	for i, item := range in {
		item.Properties = cloneSlice(item.Properties)
		item.Translations = cloneItemTranslations(item.Translations)
		out[i] = item
	}
	return out
}

func cloneItemTranslations(in []ItemTranslation) []ItemTranslation {
	if in == nil {
		return nil
	}
	out := make([]ItemTranslation, len(in))
	for i, tr := range in {
		tr.Details = cloneDetails(tr.Details)
		tr.Options = cloneSlice(tr.Options)
		out[i] = tr
	}
	return out
}

func cloneOfferTranslations(in []OfferTranslation) []OfferTranslation {
	if in == nil {
		return nil
	}
	out := make([]OfferTranslation, len(in))
	for i, tr := range in {
		if tr.Brand != nil {
			brand := *tr.Brand
			tr.Brand = &brand
		}
		tr.Options = cloneSlice(tr.Options)
		tr.Details = cloneDetails(tr.Details)
		out[i] = tr
	}
	return out
}

func cloneDetails(in []DetailsTranslation) []DetailsTranslation {
	if in == nil {
		return nil
	}
	out := make([]DetailsTranslation, len(in))
	for i, d := range in {
		d.DisplayValues = cloneSlice(d.DisplayValues)
		d.Values = cloneSlice(d.Values)
		out[i] = d
	}
	return out
}

func cloneAssociations(in []Association) []Association {
	if in == nil {
		return nil
	}
	out := make([]Association, len(in))
	for i, a := range in {
		a.Codes = cloneSlice(a.Codes)
		out[i] = a
	}
	return out
}

func cloneOfferCategories(in []OfferCategory) []OfferCategory {
	if in == nil {
		return nil
	}
	out := make([]OfferCategory, len(in))
	for i, c := range in {
		c.Path = cloneSlice(c.Path)
		out[i] = c
	}
	return out
}
