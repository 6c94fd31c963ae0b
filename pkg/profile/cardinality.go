package profile

// Cardinality describes the distribution shape of a column's values.
type Cardinality string

// Cardinality classes.
const (
	CardinalityUnique          Cardinality = "unique"
	CardinalityNearUnique      Cardinality = "near_unique"
	CardinalityEnumLike        Cardinality = "enum_like"
	CardinalityLowCardinality  Cardinality = "low_cardinality"
	CardinalityHighCardinality Cardinality = "high_cardinality"
)

// Thresholds for ClassifyCardinality.
const (
	nearUniqueRatio = 0.9
	enumLikeMax     = 20
	lowCardMax      = 200
)

// ClassifyCardinality classifies a column from its distinct and observed
// value counts. A column with nothing observed is enum-like.
func ClassifyCardinality(distinct, observed int) Cardinality {
	if observed > 0 && distinct == observed {
		return CardinalityUnique
	}

	if observed > 0 && float64(distinct)/float64(observed) >= nearUniqueRatio {
		return CardinalityNearUnique
	}

	switch {
	case distinct <= enumLikeMax:
		return CardinalityEnumLike
	case distinct <= lowCardMax:
		return CardinalityLowCardinality
	default:
		return CardinalityHighCardinality
	}
}
