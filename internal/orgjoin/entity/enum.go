package entity

// ConversionStatus is a state of the conversion request lifecycle.
//
// AWAITING_INPUTS -> VALIDATING -> RESOLVING -> SERIALIZED -> DELIVERED, with
// FAILED reachable from AWAITING_INPUTS, VALIDATING and RESOLVING.
type ConversionStatus string

const (
	ConversionStatusAwaitingInputs ConversionStatus = "AWAITING_INPUTS"
	ConversionStatusValidating     ConversionStatus = "VALIDATING"
	ConversionStatusResolving      ConversionStatus = "RESOLVING"
	ConversionStatusSerialized     ConversionStatus = "SERIALIZED"
	ConversionStatusDelivered      ConversionStatus = "DELIVERED"
	ConversionStatusFailed         ConversionStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed.
func (s ConversionStatus) Terminal() bool {
	return s == ConversionStatusDelivered || s == ConversionStatusFailed
}

// CanTransition reports whether moving from s to next is a legal step.
func (s ConversionStatus) CanTransition(next ConversionStatus) bool {
	switch s {
	case ConversionStatusAwaitingInputs:
		return next == ConversionStatusValidating || next == ConversionStatusFailed
	case ConversionStatusValidating:
		return next == ConversionStatusResolving || next == ConversionStatusFailed
	case ConversionStatusResolving:
		return next == ConversionStatusSerialized || next == ConversionStatusFailed
	case ConversionStatusSerialized:
		return next == ConversionStatusDelivered
	default:
		return false
	}
}

// Format is the encoding of the augmented report.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	if f == FormatXLSX {
		return ".xlsx"
	}
	return ".csv"
}

// ContentType returns the MIME type used when delivering the report.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
