package server

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/shared/server/respond"
	"letterhead-backend/internal/shared/telemetry"
)

const (
	identitySuffixLen = 9
	base36            = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// registerIdentityRoutes attaches the endpoint that mints per-browser ids.
// The client stores the id and sends it back in the X-User-Id header.
func registerIdentityRoutes(rg *gin.RouterGroup, now func() time.Time) {
	rg.POST("/identity", func(c *gin.Context) {
		id, err := newUserID(now())
		if err != nil {
			telemetry.Error("identity.mint_failed", map[string]any{"err": err})
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to create identity", nil)
			return
		}
		respond.Created(c, gin.H{"userId": id})
	})
}

// newUserID returns user_<unix millis>_<9 random base36 chars>.
func newUserID(now time.Time) (string, error) {
	suffix := make([]byte, identitySuffixLen)
	limit := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		suffix[i] = base36[n.Int64()]
	}
	return "user_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix), nil
}
