package middleware

import (
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/pkg/security"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	AuthCookie = "auth_token"
	accountKey = "account"
)

// Account returns the account a request was authenticated as, or nil for
// guests
func Account(c *gin.Context) *model.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}

	acc, _ := v.(*model.Account)
	return acc
}

type authFailure struct {
	status int
	msg    string
}

// authenticate resolves the auth cookie to an active account. A nil failure
// with a nil account means no cookie was sent.
func authenticate(c *gin.Context, db *gorm.DB, secret []byte) (*model.Account, *authFailure) {
	requestID := c.GetString("requestID")

	tokenStr, err := c.Cookie(AuthCookie)
	if err != nil || tokenStr == "" {
		return nil, nil
	}

	userID, err := security.ParseSession(secret, tokenStr)
	if err != nil {
		zap.L().Debug("Rejected auth token", zap.Error(err), zap.String("requestID", requestID))
		return nil, &authFailure{http.StatusUnauthorized, "Authorization token invalid"}
	}

	// The account may have been deleted or deactivated since the token was issued
	var acc model.Account
	err = db.WithContext(c.Request.Context()).Where("id = ?", userID).First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &authFailure{http.StatusUnauthorized, "User not found"}
		}

		zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
		return nil, &authFailure{http.StatusInternalServerError, "Internal server error"}
	}

	if !acc.IsActive {
		return nil, &authFailure{http.StatusForbidden, "Please activate your account before using the service"}
	}

	return &acc, nil
}

// NewJWTMiddleware rejects requests that don't carry a valid session of an
// active account
func NewJWTMiddleware(db *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		acc, fail := authenticate(c, db, secret)
		if fail == nil && acc == nil {
			fail = &authFailure{http.StatusUnauthorized, "No auth_token cookie"}
		}

		if fail != nil {
			c.AbortWithStatusJSON(fail.status, gin.H{
				"error":     fail.msg,
				"requestID": requestID,
			})
			return
		}

		c.Set("userID", acc.ID)
		c.Set(accountKey, acc)
		c.Next()
	}
}

// NewOptionalJWTMiddleware lets guests through but still rejects broken
// sessions so a stale cookie doesn't silently turn an account into a guest
func NewOptionalJWTMiddleware(db *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, fail := authenticate(c, db, secret)
		if fail != nil {
			c.AbortWithStatusJSON(fail.status, gin.H{
				"error":     fail.msg,
				"requestID": c.GetString("requestID"),
			})
			return
		}

		if acc != nil {
			c.Set("userID", acc.ID)
			c.Set(accountKey, acc)
		}

		c.Next()
	}
}
