package usecase

import (
	"io"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
)

// ConvertInput carries the raw inputs of one conversion request.
//
// Scan may be left nil when UseLatest is set; the scan report is then read from
// the newest matching file in DownloadDir.
type ConvertInput struct {
	Orgs        io.Reader
	Scan        io.Reader
	ScanName    string
	UseLatest   bool
	DownloadDir string
	OutputName  string
	Format      entity.Format
}

type ConvertResult struct {
	ConversionID string
	Filename     string
	ContentType  string
	ScanSource   string
	Message      string
	Content      []byte
	Rows         int
	Unresolved   int
}

type LatestResult struct {
	Dir     string
	Pattern string
	Path    string
	Name    string
	Found   bool
}

// Options are the tunables read from configuration.
type Options struct {
	ScanPattern string
	DownloadDir string
}
