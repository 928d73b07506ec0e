package subserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const adminQueryLimit = 100

// handleAdminQuery implements SPEC_FULL.md §4.6: a bearer-protected
// lookup over the label log by subject uri and/or value, capped at
// adminQueryLimit rows, newest first.
func (s *Server) handleAdminQuery(c echo.Context) error {
	if s.AdminToken == "" || !s.authorized(c.Request().Header.Get("Authorization")) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
	}

	uri := c.QueryParam("uri")
	val := c.QueryParam("val")

	rows, err := s.Store.Query(c.Request().Context(), uri, val, adminQueryLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "InternalError"})
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"seq": row.Seq,
			"uri": row.URI,
			"val": row.Val,
			"neg": row.Neg,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"labels": out})
}

func (s *Server) authorized(header string) bool {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimPrefix(header, prefix)
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminToken)) == 1
}
