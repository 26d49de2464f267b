package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/services"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

func userIDFromCtx(c *gin.Context) (uint, bool) {
	return uintFromCtx(c, "userID")
}

func orgIDFromCtx(c *gin.Context) (uint, bool) {
	return uintFromCtx(c, "orgID")
}

func uintFromCtx(c *gin.Context, key string) (uint, bool) {
	v, ok := c.Get(key) // set by middlewares.AuthMiddleware
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case uint:
		return id, id != 0
	case int:
		return uint(id), id > 0
	case int64:
		return uint(id), id > 0
	default:
		return 0, false
	}
}

// uintParam reads a positive numeric path parameter, answering 400 itself
// when it is malformed.
func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "field": name})
		return 0, false
	}
	return uint(n), true
}

// parseDate parses an optional YYYY-MM-DD query value in loc.
func parseDate(c *gin.Context, name string, loc *time.Location) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ", expected YYYY-MM-DD", "field": name})
		return nil, false
	}
	return &t, true
}

// respondError maps the service error taxonomy onto HTTP.
func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	switch services.KindOf(err) {
	case services.KindInvalidArgument:
		if f := services.FieldOf(err); f != "" {
			body["field"] = f
		}
		c.JSON(http.StatusBadRequest, body)
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, body)
	case services.KindConflict:
		c.JSON(http.StatusConflict, body)
	case services.KindDependency:
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream dependency failed"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// scope resolves the caller's organization, answering 401 when the token
// carries none.
func scope(c *gin.Context) (uint, bool) {
	orgID, ok := orgIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return orgID, ok
}
