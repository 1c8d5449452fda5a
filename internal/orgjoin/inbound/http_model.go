package inbound

import (
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
)

type LatestScanResponse struct {
	Dir     string `json:"dir"`
	Pattern string `json:"pattern"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Name    string `json:"name,omitempty"`
}

func (r LatestScanResponse) Message() string {
	if !r.Found {
		return "no matching scan report found"
	}
	return "latest scan report found"
}

type ConversionResponse struct {
	ID             string                  `json:"id"`
	Status         entity.ConversionStatus `json:"status"`
	Error          string                  `json:"error,omitempty"`
	ScanSource     string                  `json:"scan_source,omitempty"`
	OutputName     string                  `json:"output_name"`
	Format         entity.Format           `json:"format"`
	StartedAt      int64                   `json:"started_at"`
	EndedAt        int64                   `json:"ended_at,omitempty"`
	MappingEntries int64                   `json:"mapping_entries"`
	Rows           int64                   `json:"rows"`
	Unresolved     int64                   `json:"unresolved"`
	Bytes          int64                   `json:"bytes"`
}

type ConversionsResponse struct {
	Conversions []ConversionResponse `json:"conversions"`
	limit       int
}

func (r ConversionsResponse) Meta() map[string]any {
	return map[string]any{
		"limit": r.limit,
		"total": len(r.Conversions),
	}
}

func toConversionResponse(meta entity.ConversionMeta) ConversionResponse {
	return ConversionResponse{
		ID:             meta.ID,
		Status:         meta.Status,
		Error:          meta.Err,
		ScanSource:     meta.ScanSource,
		OutputName:     meta.OutputName,
		Format:         meta.Format,
		StartedAt:      meta.StartedAt,
		EndedAt:        meta.EndedAt,
		MappingEntries: meta.MappingEntries,
		Rows:           meta.Rows,
		Unresolved:     meta.Unresolved,
		Bytes:          meta.Bytes,
	}
}
