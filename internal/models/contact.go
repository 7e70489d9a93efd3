package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mroshb/friends/pkg/utils"
)

// Contact source types
const (
	ContactTypeFriendship = "friendship"
	ContactTypeInvited    = "invited"
	ContactTypeManual     = "manual"
	ContactTypeVCard      = "vcard"
	ContactTypeGoogle     = "google"
	ContactTypeOutlook    = "outlook"
)

// Contact is an address-book entry: a person known to the owner who may
// or may not be a platform user. One row per (owner, email); rows are
// soft-deleted and revived rather than re-created.
type Contact struct {
	ID      uint `gorm:"primaryKey"`
	OwnerID uint `gorm:"not null;index:idx_contact_owner_email,unique"`
	Owner   User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`

	Name      string `gorm:"type:varchar(100)"`
	FirstName string `gorm:"type:varchar(50)"`
	LastName  string `gorm:"type:varchar(50)"`
	Address   string `gorm:"type:varchar(500)"`
	Country   string `gorm:"type:varchar(50)"`
	Email     string `gorm:"type:varchar(254);not null;index:idx_contact_owner_email,unique;index"`
	Phone     string `gorm:"type:varchar(50)"`
	Fax       string `gorm:"type:varchar(50)"`
	Mobile    string `gorm:"type:varchar(50)"`
	Website   string `gorm:"type:varchar(250)"`
	Birthday  *time.Time

	Type string `gorm:"type:varchar(20);not null"`

	// The user this contact corresponds to, backfilled once someone
	// registers with a matching email.
	UserID *uint
	User   *User `gorm:"foreignKey:UserID"`

	Added   time.Time      `gorm:"autoCreateTime"`
	Edited  time.Time      `gorm:"autoUpdateTime"`
	Deleted gorm.DeletedAt `gorm:"index"`
}

func (Contact) TableName() string {
	return "contacts"
}

// BeforeSave derives a display name when none was provided. The rule is
// idempotent: once Name is set it is never re-derived.
func (c *Contact) BeforeSave(tx *gorm.DB) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	if c.Name == "" {
		first := strings.TrimSpace(c.FirstName)
		last := strings.TrimSpace(c.LastName)
		switch {
		case first != "" || last != "":
			c.Name = strings.TrimSpace(first + " " + last)
		case c.Email != "":
			c.Name = utils.NameFromEmail(c.Email)
		}
	}

	return nil
}

// Label resolves the display label: linked user's full name, then the
// contact name, then first+last, then the raw email.
func (c *Contact) Label() string {
	if c.User != nil {
		if name := c.User.FullName(); name != "" {
			return name
		}
	}
	if c.Name != "" {
		return c.Name
	}
	if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
		return name
	}
	return c.Email
}
