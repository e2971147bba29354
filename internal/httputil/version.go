package httputil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseExpectedVersion extracts the caller's expected version from the If-Match
// header. The value may be quoted like an ETag. Returns present=false when the
// header is absent, which write handlers treat as a create request.
func ParseExpectedVersion(c *gin.Context) (version uint, present bool, err error) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" {
		return 0, false, nil
	}

	raw = strings.Trim(raw, `"`)
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, true, fmt.Errorf("invalid If-Match header: must be a version number")
	}

	return uint(parsed), true, nil
}

// SetVersionETag sets the ETag response header to the entity's version so a
// caller can echo it back via If-Match on the next write.
func SetVersionETag(c *gin.Context, version uint) {
	c.Header("ETag", fmt.Sprintf("%q", strconv.FormatUint(uint64(version), 10)))
}
