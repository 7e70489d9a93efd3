package importer

import (
	"io"

	"github.com/emersion/go-vcard"

	"github.com/mroshb/friends/pkg/errors"
)

// ExportVCards writes the owner's address book to w as a vCard 4.0
// stream, one card per contact.
func (im *Importer) ExportVCards(ownerID uint, w io.Writer) (int, error) {
	contacts, err := im.contacts.ListForOwner(ownerID)
	if err != nil {
		return 0, err
	}

	encoder := vcard.NewEncoder(w)
	written := 0
	for _, contact := range contacts {
		card := make(vcard.Card)
		card.SetValue(vcard.FieldFormattedName, contact.Label())
		card.SetValue(vcard.FieldEmail, contact.Email)
		if contact.FirstName != "" || contact.LastName != "" {
			card.AddName(&vcard.Name{
				GivenName:  contact.FirstName,
				FamilyName: contact.LastName,
			})
		}
		if contact.Phone != "" {
			card.SetValue(vcard.FieldTelephone, contact.Phone)
		}
		vcard.ToV4(card)

		if err := encoder.Encode(card); err != nil {
			return written, errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode vcard")
		}
		written++
	}
	return written, nil
}
