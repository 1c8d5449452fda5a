package entity

// ConversionMeta is the bookkeeping kept for one conversion request.
//
// It never holds file contents or mapping entries.
type ConversionMeta struct {
	ID         string
	Status     ConversionStatus
	Err        string
	ScanSource string
	OutputName string
	Format     Format
	StartedAt  int64 // unix millis
	EndedAt    int64 // unix millis

	// Stats help observability without storing everything
	MappingEntries int64
	Rows           int64
	Unresolved     int64
	Bytes          int64
}
