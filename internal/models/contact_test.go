package models

import (
	"testing"
)

func TestContact_BeforeSave_DerivesNameFromEmail(t *testing.T) {
	tests := []struct {
		name     string
		contact  Contact
		wantName string
	}{
		{
			name:     "Dotted local part",
			contact:  Contact{Email: "john.smith@x.com"},
			wantName: "John Smith",
		},
		{
			name:     "Local part with digits",
			contact:  Contact{Email: "jane.doe83@x.com"},
			wantName: "Jane Doe83",
		},
		{
			name:     "Underscore separator",
			contact:  Contact{Email: "mary_jones@example.org"},
			wantName: "Mary Jones",
		},
		{
			name:     "Single token",
			contact:  Contact{Email: "bob@example.org"},
			wantName: "Bob",
		},
		{
			name:     "First and last set, no combined name",
			contact:  Contact{Email: "a@b.com", FirstName: "Ada", LastName: "Lovelace"},
			wantName: "Ada Lovelace",
		},
		{
			name:     "Only last name set",
			contact:  Contact{Email: "a@b.com", LastName: "Lovelace"},
			wantName: "Lovelace",
		},
		{
			name:     "Explicit name wins",
			contact:  Contact{Email: "a@b.com", Name: "Custom Label"},
			wantName: "Custom Label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.contact.BeforeSave(nil); err != nil {
				t.Fatalf("BeforeSave() error = %v", err)
			}
			if tt.contact.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", tt.contact.Name, tt.wantName)
			}
		})
	}
}

func TestContact_BeforeSave_Idempotent(t *testing.T) {
	contact := Contact{Email: "john.smith@x.com"}

	if err := contact.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave() error = %v", err)
	}
	first := contact.Name

	// A second save must not re-derive or drift
	if err := contact.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave() error = %v", err)
	}

	if contact.Name != first {
		t.Errorf("Name changed on re-save: %q -> %q", first, contact.Name)
	}
	if first != "John Smith" {
		t.Errorf("Name = %q, want %q", first, "John Smith")
	}
}

func TestContact_BeforeSave_NormalizesEmail(t *testing.T) {
	contact := Contact{Email: "  Jane.Doe@X.COM ", Name: "Jane"}

	if err := contact.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave() error = %v", err)
	}

	if contact.Email != "jane.doe@x.com" {
		t.Errorf("Email = %q, want %q", contact.Email, "jane.doe@x.com")
	}
}

func TestContact_Label(t *testing.T) {
	linked := &User{Username: "jdoe", FirstName: "Jane", LastName: "Doe"}

	tests := []struct {
		name    string
		contact Contact
		want    string
	}{
		{
			name:    "Linked user full name wins",
			contact: Contact{User: linked, Name: "Old Label", Email: "j@x.com"},
			want:    "Jane Doe",
		},
		{
			name:    "Contact name",
			contact: Contact{Name: "My Friend", Email: "j@x.com"},
			want:    "My Friend",
		},
		{
			name:    "First and last",
			contact: Contact{FirstName: "Jane", LastName: "Doe", Email: "j@x.com"},
			want:    "Jane Doe",
		},
		{
			name:    "Raw email fallback",
			contact: Contact{Email: "j@x.com"},
			want:    "j@x.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.contact.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContact_TableName(t *testing.T) {
	if got := (Contact{}).TableName(); got != "contacts" {
		t.Errorf("TableName() = %q, want %q", got, "contacts")
	}
}
