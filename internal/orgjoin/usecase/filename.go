package usecase

import (
	"strings"
	"unicode"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
)

// FallbackOutputName is used when the caller leaves the output name blank.
const FallbackOutputName = "converted_output"

// OutputFilename builds the download name: the trimmed base name (or
// FallbackOutputName) with the format extension appended. Path separators and
// control characters are replaced so the name is safe in a header.
func OutputFilename(base string, format entity.Format) string {
	base = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '"' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(base))

	if base == "" {
		base = FallbackOutputName
	}

	return base + format.Extension()
}
