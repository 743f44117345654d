package catalog

// Category is the denormalized, store-scoped projection of a catalog
// category, including its position in the category tree.
type Category struct {
	Translations      []CategoryTranslation `json:"translations,omitempty"`
	Children          []string              `json:"children,omitempty"`
	Parent            string                `json:"parent,omitempty"`
	Path              []string              `json:"path,omitempty"`
	Properties        []Property            `json:"properties,omitempty"`
	AvailabilityRules *AvailabilityRules    `json:"availabilityRules,omitempty"`
}

// CategoryTranslation holds one language's view of a category, with the
// embedded copies of referenced attribute display names under Details.
type CategoryTranslation struct {
	Language    string               `json:"language"`
	DisplayName string               `json:"displayName"`
	Details     []DetailsTranslation `json:"details,omitempty"`
}

// Clone returns a deep copy, see Offer.Clone.
func (c Category) Clone() Category {
	out := c
	out.Children = cloneSlice(c.Children)
	out.Path = cloneSlice(c.Path)
	out.Properties = cloneSlice(c.Properties)
	if c.AvailabilityRules != nil {
		rules := *c.AvailabilityRules
		out.AvailabilityRules = &rules
	}
	if c.Translations != nil {
		out.Translations = make([]CategoryTranslation, len(c.Translations))
		for i, tr := range c.Translations {
			tr.Details = cloneDetails(tr.Details)
			out.Translations[i] = tr
		}
	}
	return out
}
