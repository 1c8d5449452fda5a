package entity

// UnresolvedEvent reports org ids of one conversion that fell back to UnknownOrgName.
type UnresolvedEvent struct {
	EventID      string
	ConversionID string
	OrgIDs       []string
	Rows         int64
}
