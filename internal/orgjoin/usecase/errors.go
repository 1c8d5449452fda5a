package usecase

import (
	"errors"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/join"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgerror"
)

// User-facing messages, one per failure class.
const (
	MsgMissingInput  = "Please upload both the Org Mapping and Scan Report CSV files."
	MsgNoLatestScan  = "No matching Scan Report file found in the specified Downloads folder."
	MsgSchema        = "Files must contain correct columns: '$distinct_id', '$name' in orgs, 'org_id' in scan report."
	MsgConvertFailed = "An error occurred while converting: "
)

func mapConvertErr(err error) error {
	var (
		perr     *pkgerror.Error
		missing  *join.MissingInputError
		schema   *join.SchemaError
		parseErr *join.ParseError
	)

	switch {
	case errors.As(err, &perr):
		return perr
	case errors.As(err, &missing):
		return pkgerror.NewValidation(MsgMissingInput, pkgerror.CodeInvalidInput, err)
	case errors.As(err, &schema):
		if schema.Conflict != "" {
			return pkgerror.NewValidation(MsgConvertFailed+err.Error(), pkgerror.CodeInvalidInput, err)
		}
		return pkgerror.NewValidation(MsgSchema, pkgerror.CodeInvalidInput, err)
	case errors.As(err, &parseErr):
		return pkgerror.NewValidation(MsgConvertFailed+err.Error(), pkgerror.CodeInvalidFormat, err)
	default:
		return pkgerror.NewServer(err)
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("conversion not found", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
