package utils

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/aziz-turgunoff/kitob-tg-bot/database"
	"github.com/spf13/viper"
)

// Auth answers admin checks against the ADMIN_IDS config list and the
// admins table.
type Auth struct {
	seeded map[int64]bool
	admins *database.AdminStore
}

// NewAuth parses the comma-separated ADMIN_IDS setting and keeps the admin
// store for dynamically added admins.
func NewAuth(admins *database.AdminStore) *Auth {
	seeded := make(map[int64]bool)
	for _, raw := range strings.Split(viper.GetString("ADMIN_IDS"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Printf("Ignoring invalid admin id %q in ADMIN_IDS", raw)
			continue
		}
		seeded[id] = true
	}
	return &Auth{seeded: seeded, admins: admins}
}

// IsAdmin checks the config list first, then the admins table. A store
// failure denies access rather than failing open.
func (a *Auth) IsAdmin(ctx context.Context, userID int64) bool {
	if a.seeded[userID] {
		return true
	}
	ok, err := a.admins.IsAdmin(ctx, userID)
	if err != nil {
		log.Printf("Admin check failed for user %d: %v", userID, err)
		return false
	}
	return ok
}
