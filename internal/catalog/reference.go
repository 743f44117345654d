package catalog

// Brand is the store-scoped projection of a brand: its translated display
// names, one per language.
type Brand struct {
	Translations []Translation `json:"translations,omitempty"`
}

// Option is the store-scoped projection of a SKU option, carrying translated
// display names for the option itself and for each of its values.
type Option struct {
	Translations []OptionTranslation `json:"translations,omitempty"`
}

// OptionTranslation is one language's view of an option.
type OptionTranslation struct {
	Language    string            `json:"language"`
	DisplayName string            `json:"displayName"`
	Values      []TranslatedValue `json:"optionValues,omitempty"`
}

// TranslatedValue is a translated option value display name.
type TranslatedValue struct {
	Value        string `json:"value"`
	DisplayValue string `json:"displayValue"`
}

// Attribute is the store-scoped projection of a product or SKU attribute.
type Attribute struct {
	Translations []Translation `json:"translations,omitempty"`
}

// ReferenceTranslations is the language-indexed translation set of one
// reference entity, in the shape the projection builder consumes.
// Names maps language to the entity's display name; Values, populated only
// for options, maps language to value code to display value.
type ReferenceTranslations struct {
	Names  map[string]string
	Values map[string]map[string]string
}

// Empty reports whether the set carries no translations at all.
func (rt ReferenceTranslations) Empty() bool {
	return len(rt.Names) == 0 && len(rt.Values) == 0
}

// BrandTranslations flattens a brand payload into a translation set.
func BrandTranslations(b Brand) ReferenceTranslations {
	return fromTranslations(b.Translations)
}

// AttributeTranslations flattens an attribute payload into a translation set.
func AttributeTranslations(a Attribute) ReferenceTranslations {
	return fromTranslations(a.Translations)
}

// OptionTranslations flattens an option payload, including per-value
// display values.
func OptionTranslations(o Option) ReferenceTranslations {
	rt := ReferenceTranslations{
		Names:  make(map[string]string, len(o.Translations)),
		Values: make(map[string]map[string]string, len(o.Translations)),
	}
	for _, tr := range o.Translations {
		rt.Names[tr.Language] = tr.DisplayName
		if len(tr.Values) == 0 {
			continue
		}
		values := make(map[string]string, len(tr.Values))
		for _, v := range tr.Values {
			values[v.Value] = v.DisplayValue
		}
		rt.Values[tr.Language] = values
	}
	return rt
}

func fromTranslations(translations []Translation) ReferenceTranslations {
	rt := ReferenceTranslations{Names: make(map[string]string, len(translations))}
	for _, tr := range translations {
		rt.Names[tr.Language] = tr.DisplayName
	}
	return rt
}
