package importer

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
)

// ImportExcel ingests an .xlsx address book export. The first sheet is
// read and fed through the same header resolution as delimited text.
func (im *Importer) ImportExcel(ownerID uint, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to open spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read spreadsheet rows")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "spreadsheet is empty")
	}

	records, total := parseRows(rows)
	im.purgeUnclaimed(ownerID, models.ContactTypeOutlook, records)

	result := &Result{Total: total}
	im.persist(ownerID, models.ContactTypeOutlook, records, result)
	return result, nil
}
