package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/middleware"
	"github.com/campus-osa/care-desk-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func caseQueryFromContext(c *gin.Context) dto.CaseQuery {
	query := dto.CaseQuery{
		Search:    strings.TrimSpace(c.Query("search")),
		Course:    strings.TrimSpace(c.Query("course")),
		YearLevel: strings.TrimSpace(c.Query("year_level")),
		Section:   strings.TrimSpace(c.Query("section")),
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				query.Status = append(query.Status, part)
			}
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			query.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			query.Offset = offset
		}
	}
	return query
}
