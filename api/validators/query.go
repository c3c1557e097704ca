package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
)

// RequireQueryString returns the trimmed query parameter or a validation
// error naming the missing key.
func RequireQueryString(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "missing "+key+" parameter")
	}
	return raw, nil
}
