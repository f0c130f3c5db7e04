package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserIDPrefix marks client generated user identifiers
const UserIDPrefix = "user_"

// NewUserID generates a client user identifier of the form user_<unix-ms>_<9 chars>
func NewUserID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s%d_%s", UserIDPrefix, now.UnixMilli(), suffix)
}

// MaskEmail hides the local part of an email address for logs
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 1 {
		return email
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}
