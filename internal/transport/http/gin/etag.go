package httpgin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// writeJSONWithCache writes a JSON response with ETag/Cache-Control.
// If If-None-Match matches the current ETag it answers 304.
func writeJSONWithCache(
	c *gin.Context,
	status int,
	v any,
	cacheControl string,
	weak bool,
) {
	b, err := json.Marshal(v)
	if err != nil {
		respondErr(c, err)
		return
	}
	sum := sha256.Sum256(b)
	tag := `"` + hex.EncodeToString(sum[:16]) + `"`
	if weak {
		tag = "W/" + tag
	}
	c.Header("ETag", tag)
	if cacheControl != "" {
		c.Header("Cache-Control", cacheControl)
	}
	if etagMatches(c.GetHeader("If-None-Match"), tag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}

// etagMatches applies the weak comparison of If-None-Match.
func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	opaque := trimWeak(tag)
	for _, part := range strings.Split(header, ",") {
		if trimWeak(part) == opaque {
			return true
		}
	}
	return false
}

func trimWeak(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "W/")
}
