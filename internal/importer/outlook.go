package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
	"github.com/mroshb/friends/pkg/utils"
)

// Synonyms accepted for each logical contact field. Exports from
// different Outlook versions and locales disagree on header wording,
// so every synonym is also tried with work/business/home prefixes and
// numbered duplicates.
var fieldSynonyms = map[string][]string{
	"email":      {"email", "e-mail", "e-mail address", "email address"},
	"first_name": {"first_name", "first name", "first"},
	"last_name":  {"last_name", "last name", "last"},
	"name":       {"name", "full name", "display name"},
	"address":    {"address"},
	"street":     {"street address", "street", "street_address"},
	"city":       {"city"},
	"state":      {"state", "province"},
	"zip":        {"zip", "zip code", "zipcode", "postal code", "postal_code"},
	"country":    {"country", "country/region"},
	"phone":      {"phone", "phone number"},
	"fax":        {"fax", "fax number"},
	"mobile":     {"mobile", "mobile phone"},
	"website":    {"web page", "url", "website", "home page", "homepage"},
}

var headerPrefixes = []string{"", "work", "business", "home"}

// number of data rows scanned for embedded addresses when no email
// header can be resolved
const emailScanRows = 10

// ImportDelimited ingests an Outlook-style CSV or TSV export. The
// delimiter is detected from the first line, headers are matched
// against the synonym table, and rows without a resolvable email are
// counted but skipped.
func (im *Importer) ImportDelimited(ownerID uint, r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read import stream")
	}

	rows, err := splitDelimited(string(raw))
	if err != nil {
		return nil, err
	}

	records, total := parseRows(rows)
	im.purgeUnclaimed(ownerID, models.ContactTypeOutlook, records)

	result := &Result{Total: total}
	im.persist(ownerID, models.ContactTypeOutlook, records, result)
	return result, nil
}

// splitDelimited detects the delimiter by comparing field counts on the
// first line and tokenizes the whole stream with it.
func splitDelimited(data string) ([][]string, error) {
	data = strings.TrimLeft(data, "\uFEFF\r\n")
	firstLine := data
	if idx := strings.IndexAny(data, "\r\n"); idx >= 0 {
		firstLine = data[:idx]
	}

	delimiter := ','
	if len(strings.Split(firstLine, "\t")) > len(strings.Split(firstLine, ",")) {
		delimiter = '\t'
	}

	reader := csv.NewReader(strings.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "malformed delimited data")
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty import stream")
	}
	return rows, nil
}

// parseRows resolves columns from the header row when one matches the
// synonym table; otherwise every row is data and emails are scraped by
// pattern from the leading rows.
func parseRows(rows [][]string) ([]ContactData, int) {
	columns := resolveColumns(rows[0])

	data := rows
	if hasEmailColumn(columns) {
		data = rows[1:]
	} else {
		columns["email"] = scanForEmailColumns(rows)
	}

	var records []ContactData
	total := 0
	for _, row := range data {
		if isBlankRow(row) {
			continue
		}
		total++

		values := extractValues(columns, row)
		if values["email"] == "" {
			// last resort: any embedded address in the row
			for _, cell := range row {
				if email := utils.ExtractEmail(cell); email != "" {
					values["email"] = email
					break
				}
			}
		}
		if values["email"] == "" {
			continue
		}

		records = append(records, valuesToRecord(values))
	}

	return records, total
}

// resolveColumns maps logical field keys (optionally prefixed, e.g.
// "work_phone") to the header indexes that feed them.
func resolveColumns(headers []string) map[string][]int {
	index := make(map[string][]int, len(headers))
	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))
		index[name] = append(index[name], i)
	}

	columns := make(map[string][]int)
	for field, synonyms := range fieldSynonyms {
		for _, prefix := range headerPrefixes {
			key := field
			if prefix != "" {
				key = prefix + "_" + field
			}
			for _, synonym := range synonyms {
				header := synonym
				if prefix != "" {
					header = prefix + " " + synonym
				}
				if idxs, ok := index[header]; ok {
					columns[key] = append(columns[key], idxs...)
				}
				for n := 1; n <= 4; n++ {
					if idxs, ok := index[fmt.Sprintf("%s %d", header, n)]; ok {
						columns[key] = append(columns[key], idxs...)
					}
				}
			}
		}
	}
	return columns
}

func hasEmailColumn(columns map[string][]int) bool {
	if len(columns) == 0 {
		return false
	}
	for _, prefix := range headerPrefixes {
		key := "email"
		if prefix != "" {
			key = prefix + "_email"
		}
		if len(columns[key]) > 0 {
			return true
		}
	}
	return false
}

// scanForEmailColumns samples the leading data rows for cells matching
// an email pattern and treats those columns as the email source.
func scanForEmailColumns(rows [][]string) []int {
	seen := make(map[int]bool)
	var cols []int
	for i, row := range rows {
		if i >= emailScanRows {
			break
		}
		for col, cell := range row {
			if seen[col] {
				continue
			}
			if utils.IsEmail(cell) {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	return cols
}

// extractValues picks the first non-empty cell per column key; street
// fragments are concatenated instead since an address may span several
// street columns.
func extractValues(columns map[string][]int, row []string) map[string]string {
	values := make(map[string]string)
	for key, idxs := range columns {
		for _, idx := range idxs {
			if idx >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[idx])
			if cell == "" {
				continue
			}
			if strings.Contains(key, "street") {
				if values[key] != "" {
					values[key] = values[key] + ", " + cell
					continue
				}
				values[key] = cell
				continue
			}
			values[key] = cell
			break
		}
	}
	return values
}

// valuesToRecord applies the merge policy: the unprefixed value wins
// only when not already set, and street/city/state/zip fragments are
// folded into a single address when no explicit address was exported.
func valuesToRecord(values map[string]string) ContactData {
	for _, prefix := range []string{"", "work_", "business_", "home_"} {
		promote(values, prefix, "email")
		promote(values, prefix, "address")
		promote(values, prefix, "phone")
		promote(values, prefix, "fax")
		promote(values, prefix, "mobile")
		promote(values, prefix, "website")
		promote(values, prefix, "country")

		street := values[prefix+"street"]
		city := values[prefix+"city"]
		state := values[prefix+"state"]
		zip := values[prefix+"zip"]
		if (street != "" || city != "" || state != "") && values["address"] == "" {
			address := ""
			for _, part := range []string{street, city, state} {
				if part == "" {
					continue
				}
				if address != "" {
					address += ", "
				}
				address += part
			}
			if zip != "" && address != "" {
				address += " " + zip
			}
			values["address"] = address
		}
	}

	email := strings.ToLower(utils.ExtractEmail(values["email"]))

	return ContactData{
		Name:      values["name"],
		FirstName: values["first_name"],
		LastName:  values["last_name"],
		Address:   values["address"],
		Country:   values["country"],
		Email:     email,
		Phone:     values["phone"],
		Fax:       values["fax"],
		Mobile:    values["mobile"],
		Website:   values["website"],
	}
}

// promote moves a prefixed value into the generic slot when the generic
// slot is empty.
func promote(values map[string]string, prefix, field string) {
	if prefix == "" {
		return
	}
	if v := values[prefix+field]; v != "" && values[field] == "" {
		values[field] = v
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
