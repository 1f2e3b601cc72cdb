package camelot

// Quality grades a key transition from best to worst
type Quality string

const (
	QualityPerfect     Quality = "perfect"
	QualityExcellent   Quality = "excellent"
	QualityGood        Quality = "good"
	QualityModerate    Quality = "moderate"
	QualityChallenging Quality = "challenging"
	QualityUnknown     Quality = "unknown"
)

// Relation describes moving from one code to another
type Relation struct {
	Quality     Quality `json:"quality"`
	Description string  `json:"description"`
}

// Relationship classifies the transition from one code to the next.
// Either code being unknown or malformed yields QualityUnknown.
func Relationship(from, to string) Relation {
	a, errA := ParseCode(from)
	b, errB := ParseCode(to)
	if errA != nil || errB != nil {
		return Relation{QualityUnknown, "Unknown key"}
	}

	if a == b {
		return Relation{QualityPerfect, "Perfect match (same key)"}
	}

	if a.Letter == b.Letter {
		switch (b.Number - a.Number + 12) % 12 {
		case 1:
			return Relation{QualityExcellent, "Energy boost (+1 on the Camelot wheel)"}
		case 11:
			return Relation{QualityExcellent, "Energy decrease (-1 on the Camelot wheel)"}
		case 2, 10:
			return Relation{QualityModerate, "Dramatic shift (±2 on the Camelot wheel)"}
		}
	} else if a.Number == b.Number {
		return Relation{QualityGood, "Major/minor switch (mood change)"}
	}

	return Relation{QualityChallenging, "Challenging transition"}
}
