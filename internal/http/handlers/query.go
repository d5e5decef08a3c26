package handlers

import (
	"strconv"
	"strings"

	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// queryBool reads an optional boolean filter. Absent means no filter.
func queryBool(ctx *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return nil, nil
	}

	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		v := true
		return &v, nil
	case "0", "false", "no":
		v := false
		return &v, nil
	}
	return nil, apperr.Field(key, "must be true or false")
}

func queryInt(ctx *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Field(key, "must be an integer")
	}
	return &n, nil
}
