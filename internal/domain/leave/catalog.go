package leave

// Category is the closed set of leave categories. The localized names are
// the wire and storage values.
type Category string

const (
	CategoryPersonal    Category = "事假"
	CategorySick        Category = "病假"
	CategoryMenstrual   Category = "生理假"
	CategoryAnnual      Category = "特休"
	CategoryOfficial    Category = "公假"
	CategoryBereavement Category = "喪假"
)

// QuotaType identifies one of the four tracked annual allotments.
type QuotaType string

const (
	QuotaAnnual    QuotaType = "annualLeave"
	QuotaSick      QuotaType = "sickLeave"
	QuotaMenstrual QuotaType = "menstrualLeave"
	QuotaPersonal  QuotaType = "personalLeave"
)

// categoryQuota is the single source of the category to quota-type mapping.
// A zero value marks an unlimited category: no balance is tracked and the
// ledger never rejects it.
var categoryQuota = map[Category]QuotaType{
	CategoryPersonal:    QuotaPersonal,
	CategorySick:        QuotaSick,
	CategoryMenstrual:   QuotaMenstrual,
	CategoryAnnual:      QuotaAnnual,
	CategoryOfficial:    "",
	CategoryBereavement: "",
}

// Categories returns every leave category in display order.
func Categories() []Category {
	return []Category{
		CategoryPersonal,
		CategorySick,
		CategoryMenstrual,
		CategoryAnnual,
		CategoryOfficial,
		CategoryBereavement,
	}
}

// QuotaTypes returns the tracked quota types in display order.
func QuotaTypes() []QuotaType {
	return []QuotaType{QuotaAnnual, QuotaSick, QuotaMenstrual, QuotaPersonal}
}

func ValidCategory(c Category) bool {
	_, ok := categoryQuota[c]
	return ok
}

// QuotaTypeFor maps a category to its quota type. limited is false for
// unlimited categories (official and bereavement leave).
func QuotaTypeFor(c Category) (qt QuotaType, limited bool) {
	qt, ok := categoryQuota[c]
	if !ok || qt == "" {
		return "", false
	}
	return qt, true
}
