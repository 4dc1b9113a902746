package httpapi

import (
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/dayplan/pkg/types"
)

const maxBodySize = 64 << 10

// decodeBody reads a JSON request body into v, rejecting unknown fields.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

func parseTaskFilter(c echo.Context) (types.TaskFilter, error) {
	var filter types.TaskFilter

	if search := strings.TrimSpace(c.QueryParam("search")); search != "" {
		filter.Search = &search
	}
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		date, err := types.ParseDate("date", raw)
		if err != nil {
			return types.TaskFilter{}, err
		}
		filter.Date = &date
	}
	if raw := strings.TrimSpace(c.QueryParam("is_completed")); raw != "" {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			return types.TaskFilter{}, types.Invalid("is_completed", types.ErrInvalidFlag)
		}
		filter.IsCompleted = &done
	}
	return filter, nil
}

// parseLimit reads the dates limit. Absent means zero, which selects the
// default.
func parseLimit(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.Invalid("limit", types.ErrInvalidLimit)
	}
	return n, nil
}
