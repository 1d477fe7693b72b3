package middleware

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stokhub/internal/model"
	"stokhub/pkg/jwt"
)

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return key
}

// claimsCapture records what JWTAuth placed into the gin context.
type claimsCapture struct {
	hit     bool
	userID  any
	code    any
	admin   any
	subeIDs any
}

func newAuthRouter(key *ecdsa.PrivateKey, capture *claimsCapture) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/claims", JWTAuth(&key.PublicKey), func(c *gin.Context) {
		capture.hit = true
		capture.userID, _ = c.Get(model.UserIDKey)
		capture.code, _ = c.Get(model.UserCodeKey)
		capture.admin, _ = c.Get(model.UserAdminKey)
		capture.subeIDs, _ = c.Get(model.UserSubeIDsKey)

		c.Status(http.StatusOK)
	})

	return r
}

func TestJWTAuth_MissingTokenIsRejected(t *testing.T) {
	capture := &claimsCapture{}
	r := newAuthRouter(testKey(t), capture)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/claims", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, capture.hit)
}

func TestJWTAuth_BearerTokenSetsTypedClaims(t *testing.T) {
	key := testKey(t)

	token, err := jwt.NewToken(key, time.Minute,
		jwt.WithClaim(model.UserIDKey, "42"),
		jwt.WithClaim(model.UserCodeKey, "kasa1"),
		jwt.WithClaim(model.UserAdminKey, true),
		jwt.WithClaim(model.UserSubeIDsKey, "5,7"),
	)
	require.NoError(t, err)

	capture := &claimsCapture{}
	r := newAuthRouter(key, capture)

	req := httptest.NewRequest(http.MethodGet, "/claims", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", capture.userID)
	assert.Equal(t, "kasa1", capture.code)
	assert.Equal(t, true, capture.admin)
	assert.Equal(t, "5,7", capture.subeIDs)
}

// A token without the optional claims still yields typed zero values in
// the context, never an untyped nil.
func TestJWTAuth_AbsentClaimsDegradeToZeroValues(t *testing.T) {
	key := testKey(t)

	token, err := jwt.NewToken(key, time.Minute,
		jwt.WithClaim(model.UserIDKey, "42"),
	)
	require.NoError(t, err)

	capture := &claimsCapture{}
	r := newAuthRouter(key, capture)

	req := httptest.NewRequest(http.MethodGet, "/claims", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", capture.code)
	assert.Equal(t, false, capture.admin)
	assert.Equal(t, "", capture.subeIDs)
}

func TestJWTAuth_QueryParamTokenIsAccepted(t *testing.T) {
	key := testKey(t)

	token, err := jwt.NewToken(key, time.Minute,
		jwt.WithClaim(model.UserIDKey, "42"),
		jwt.WithClaim(model.UserCodeKey, "kasa1"),
	)
	require.NoError(t, err)

	capture := &claimsCapture{}
	r := newAuthRouter(key, capture)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/claims?access_token="+token, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kasa1", capture.code)
}
