package identity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrNoEmailColumn indicates a roster CSV without a recognizable email column.
var ErrNoEmailColumn = errors.New("identity: roster has no email column")

// Header aliases for the roster columns. HR exports rename these regularly.
var (
	rosterEmailAliases   = []string{"email", "user_email"}
	rosterChapterAliases = []string{"chapter", "team"}
	rosterSquadAliases   = []string{"current squad", "squad", "group"}
	rosterManagerAliases = []string{"manager", "line manager"}
)

// Member is one rostered user with organizational metadata that the feeds
// themselves never carry.
type Member struct {
	Email   string
	Chapter string
	Squad   string
	Manager string
}

// Roster is the allow-list of canonical identities plus their metadata.
type Roster struct {
	members map[string]Member
}

// LoadRoster reads a roster CSV. The first row is a header; column lookup is
// alias-tolerant and a UTF-8 BOM on the first cell is stripped. Rows without
// an email are skipped.
func LoadRoster(r io.Reader) (*Roster, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster csv: %w", err)
	}

	if len(rows) == 0 {
		return &Roster{members: map[string]Member{}}, nil
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	emailIdx := columnIndex(header, rosterEmailAliases)
	if emailIdx < 0 {
		return nil, ErrNoEmailColumn
	}

	chapterIdx := columnIndex(header, rosterChapterAliases)
	squadIdx := columnIndex(header, rosterSquadAliases)
	managerIdx := columnIndex(header, rosterManagerAliases)

	members := make(map[string]Member, len(rows)-1)

	for _, row := range rows[1:] {
		email := strings.ToLower(strings.TrimSpace(cell(row, emailIdx)))
		if email == "" {
			continue
		}

		members[email] = Member{
			Email:   email,
			Chapter: strings.TrimSpace(cell(row, chapterIdx)),
			Squad:   strings.TrimSpace(cell(row, squadIdx)),
			Manager: strings.TrimSpace(cell(row, managerIdx)),
		}
	}

	return &Roster{members: members}, nil
}

// Contains reports whether email is rostered.
func (r *Roster) Contains(email string) bool {
	_, ok := r.members[email]

	return ok
}

// Member returns the metadata for email.
func (r *Roster) Member(email string) (Member, bool) {
	member, ok := r.members[email]

	return member, ok
}

// Emails returns all rostered emails in sorted order.
func (r *Roster) Emails() []string {
	emails := make([]string, 0, len(r.members))
	for email := range r.members {
		emails = append(emails, email)
	}

	sort.Strings(emails)

	return emails
}

// Len returns the roster size.
func (r *Roster) Len() int {
	return len(r.members)
}

// columnIndex finds the first header column matching any alias,
// case-insensitively.
func columnIndex(header, aliases []string) int {
	for i, name := range header {
		for _, alias := range aliases {
			if strings.EqualFold(strings.TrimSpace(name), alias) {
				return i
			}
		}
	}

	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return row[idx]
}
