package importer

import (
	"io"
	"strings"

	"github.com/emersion/go-vcard"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
	"github.com/mroshb/friends/pkg/utils"
)

// ImportVCards ingests a vCard stream. Cards without both a formatted
// name and an email address are counted but skipped.
func (im *Importer) ImportVCards(ownerID uint, r io.Reader) (*Result, error) {
	decoder := vcard.NewDecoder(r)

	var records []ContactData
	total := 0
	for {
		card, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "malformed vcard data")
		}
		total++

		record, ok := cardToRecord(card)
		if !ok {
			continue
		}
		records = append(records, record)
	}

	im.purgeUnclaimed(ownerID, models.ContactTypeVCard, records)

	result := &Result{Total: total}
	im.persist(ownerID, models.ContactTypeVCard, records, result)
	return result, nil
}

func cardToRecord(card vcard.Card) (ContactData, bool) {
	name := strings.TrimSpace(card.PreferredValue(vcard.FieldFormattedName))
	email := utils.ExtractEmail(card.PreferredValue(vcard.FieldEmail))
	if name == "" || email == "" {
		return ContactData{}, false
	}

	record := ContactData{
		Name:  name,
		Email: strings.ToLower(email),
	}

	if n := card.Name(); n != nil {
		record.FirstName = strings.TrimSpace(n.GivenName)
		record.LastName = strings.TrimSpace(n.FamilyName)
	}

	for _, field := range card[vcard.FieldTelephone] {
		number := strings.TrimSpace(field.Value)
		if number == "" {
			continue
		}
		switch telType(field) {
		case "mobile":
			if record.Mobile == "" {
				record.Mobile = number
			}
		case "fax":
			if record.Fax == "" {
				record.Fax = number
			}
		default:
			if record.Phone == "" || preferred(field) {
				record.Phone = number
			}
		}
	}

	if addr := card.Address(); addr != nil {
		parts := make([]string, 0, 3)
		for _, part := range []string{addr.StreetAddress, addr.Locality, addr.Region} {
			if strings.TrimSpace(part) != "" {
				parts = append(parts, strings.TrimSpace(part))
			}
		}
		record.Address = strings.Join(parts, ", ")
		if code := strings.TrimSpace(addr.PostalCode); code != "" && record.Address != "" {
			record.Address += " " + code
		}
		record.Country = strings.TrimSpace(addr.Country)
	}

	if url := card.PreferredValue(vcard.FieldURL); url != "" {
		record.Website = strings.TrimSpace(url)
	}

	return record, true
}

// telType classifies a TEL field by its TYPE parameters.
func telType(field *vcard.Field) string {
	for _, t := range field.Params[vcard.ParamType] {
		switch strings.ToLower(t) {
		case "cell", "mobile":
			return "mobile"
		case "fax":
			return "fax"
		}
	}
	return "voice"
}

func preferred(field *vcard.Field) bool {
	for _, t := range field.Params[vcard.ParamType] {
		if strings.EqualFold(t, "pref") {
			return true
		}
	}
	return field.Params.Get(vcard.ParamPreferred) != ""
}
