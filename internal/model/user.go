package model

import (
	"strconv"
	"strings"
	"time"
)

// JWT claim keys, doubled as gin context keys by the auth middleware.
const (
	UserIDKey      = "uid"
	UserCodeKey    = "userCode"
	UserNameKey    = "userName"
	UserAdminKey   = "isAdmin"
	UserSubeIDsKey = "subeIds"
)

// User is the operator account that connects to the hub. SubeIDs holds
// the comma-separated branch scopes exactly as the legacy table stores
// them; parse with ParseSubeIDs.
type User struct {
	ID             int64     `db:"id" json:"id"`
	UserCode       string    `db:"user_code" json:"userCode"`
	Description    string    `db:"description" json:"description"`
	HashedPassword []byte    `db:"password" json:"-"`
	Admin          bool      `db:"admin" json:"isAdmin"`
	Aktif          bool      `db:"aktif" json:"-"`
	SubeIDs        string    `db:"sube_ids" json:"subeIds"`
	Telefon        string    `db:"telefon" json:"telefon"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// ParseSubeIDs parses a comma-separated branch scope list. Blank and
// non-positive entries are discarded rather than treated as errors.
func ParseSubeIDs(subeIDs string) []int64 {
	parts := strings.Split(subeIDs, ",")

	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}

		ids = append(ids, id)
	}

	return ids
}
