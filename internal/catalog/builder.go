package catalog

// ReferenceKind selects which embedded translation structures a reference
// update touches.
type ReferenceKind string

const (
	// KindBrand refreshes the offer-level brand translation unit.
	KindBrand ReferenceKind = "brand"
	// KindOption refreshes offer-level option units and item-level option
	// translations, display names and display values both.
	KindOption ReferenceKind = "option"
	// KindAttribute refreshes offer-level detail translations.
	KindAttribute ReferenceKind = "attribute"
	// KindSKUAttribute refreshes item-level detail translations.
	KindSKUAttribute ReferenceKind = "skuAttribute"
)

// ApplyOfferReferenceUpdate merges a reference entity's current translations
// into every embedded copy inside the offer that references code. Languages
// with no fresh value keep their existing text; an offer that embeds no
// reference to code comes back unchanged with changed=false. The input is
// never mutated.
func ApplyOfferReferenceUpdate(offer Offer, kind ReferenceKind, code string, fresh ReferenceTranslations) (Offer, bool) {
	out := offer.Clone()
	changed := false

	switch kind {
	case KindBrand:
		for i := range out.Translations {
			tr := &out.Translations[i]
			if tr.Brand == nil || tr.Brand.Code != code {
				continue
			}
			if name, ok := fresh.Names[tr.Language]; ok && tr.Brand.DisplayName != name {
				tr.Brand.DisplayName = name
				changed = true
			}
		}

	case KindOption:
		for i := range out.Translations {
			tr := &out.Translations[i]
			name, ok := fresh.Names[tr.Language]
			if !ok {
				continue
			}
			for j := range tr.Options {
				if tr.Options[j].Code == code && tr.Options[j].DisplayName != name {
					tr.Options[j].DisplayName = name
					changed = true
				}
			}
		}
		if updateItemOptions(out.Items, code, fresh) {
			changed = true
		}

	case KindAttribute:
		for i := range out.Translations {
			tr := &out.Translations[i]
			if updateDetails(tr.Details, tr.Language, code, fresh) {
				changed = true
			}
		}

	case KindSKUAttribute:
		for i := range out.Items {
			for t := range out.Items[i].Translations {
				itr := &out.Items[i].Translations[t]
				if updateDetails(itr.Details, itr.Language, code, fresh) {
					changed = true
				}
			}
		}
	}

	if !changed {
		return offer, false
	}
	return out, true
}

// ApplyCategoryReferenceUpdate is the category counterpart: it refreshes the
// detail translations embedding the given attribute code.
func ApplyCategoryReferenceUpdate(category Category, code string, fresh ReferenceTranslations) (Category, bool) {
	out := category.Clone()
	changed := false
	for i := range out.Translations {
		tr := &out.Translations[i]
		if updateDetails(tr.Details, tr.Language, code, fresh) {
			changed = true
		}
	}
	if !changed {
		return category, false
	}
	return out, true
}

func updateDetails(details []DetailsTranslation, language, code string, fresh ReferenceTranslations) bool {
	name, ok := fresh.Names[language]
	if !ok {
		return false
	}
	changed := false
	for i := range details {
		if details[i].Code == code && details[i].DisplayName != name {
			details[i].DisplayName = name
			changed = true
		}
	}
	return changed
}

func updateItemOptions(items []Item, code string, fresh ReferenceTranslations) bool {
	changed := false
	for i := range items {
		for t := range items[i].Translations {
			itr := &items[i].Translations[t]
			name, hasName := fresh.Names[itr.Language]
			values := fresh.Values[itr.Language]
			for o := range itr.Options {
				opt := &itr.Options[o]
				if opt.Code != code {
					continue
				}
				if hasName && opt.DisplayName != name {
					opt.DisplayName = name
					changed = true
				}
				if displayValue, ok := values[opt.Value]; ok && opt.DisplayValue != displayValue {
					opt.DisplayValue = displayValue
					changed = true
				}
			}
		}
	}
	return changed
}
