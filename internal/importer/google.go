package importer

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	people "google.golang.org/api/people/v1"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
)

const googlePageSize = 200

// ImportGoogle ingests the authenticated user's Google contacts. The
// client must already carry OAuth credentials granting contacts
// read scope.
func (im *Importer) ImportGoogle(ctx context.Context, ownerID uint, client *http.Client) (*Result, error) {
	svc, err := people.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to build people client")
	}

	result := &Result{}
	var records []ContactData
	seen := make(map[string]bool)
	pageToken := ""
	for {
		call := svc.People.Connections.List("people/me").
			PersonFields("names,emailAddresses").
			PageSize(googlePageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == http.StatusUnauthorized {
				return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "google credentials rejected")
			}
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list google contacts")
		}

		for _, person := range resp.Connections {
			result.Total++

			record, ok := personToRecord(person)
			if !ok || seen[record.Email] {
				continue
			}
			seen[record.Email] = true
			records = append(records, record)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	im.purgeUnclaimed(ownerID, models.ContactTypeGoogle, records)
	im.persist(ownerID, models.ContactTypeGoogle, records, result)
	return result, nil
}

func personToRecord(person *people.Person) (ContactData, bool) {
	email := primaryEmail(person.EmailAddresses)
	if email == "" {
		return ContactData{}, false
	}

	record := ContactData{Email: strings.ToLower(email)}
	if len(person.Names) > 0 {
		n := person.Names[0]
		record.Name = strings.TrimSpace(n.DisplayName)
		record.FirstName = strings.TrimSpace(n.GivenName)
		record.LastName = strings.TrimSpace(n.FamilyName)
	}
	return record, true
}

// primaryEmail prefers the address Google flags as primary, falling
// back to the first listed one.
func primaryEmail(addresses []*people.EmailAddress) string {
	for _, addr := range addresses {
		if addr.Metadata != nil && addr.Metadata.Primary {
			return strings.TrimSpace(addr.Value)
		}
	}
	for _, addr := range addresses {
		if v := strings.TrimSpace(addr.Value); v != "" {
			return v
		}
	}
	return ""
}
