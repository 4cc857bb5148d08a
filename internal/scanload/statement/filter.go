package statement

// FilterKind is the clustering key bound applied to a reversed partition scan.
type FilterKind string

const (
	LessThan           FilterKind = "lt"
	GreaterThan        FilterKind = "gt"
	LessAndGreaterThan FilterKind = "lt_and_gt"
	NoFilter           FilterKind = "no_filter"
)

var FilterKinds = []FilterKind{LessThan, GreaterThan, LessAndGreaterThan, NoFilter}
