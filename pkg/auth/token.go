package auth

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the subset of the access token the API relies on
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Verifier checks access tokens. HS256 tokens are verified with the shared
// secret, RS256 tokens against the JWKS provider. Either may be unset, in which
// case tokens signed that way are rejected.
type Verifier struct {
	secret []byte
	jwks   *Provider
}

func NewVerifier(secret string, jwks *Provider) *Verifier {
	v := &Verifier{jwks: jwks}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret == nil {
			return nil, errors.New("HS256 token received but JWT_ACCESS_SECRET is not configured")
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.jwks == nil {
			return nil, errors.New("RS256 token received but JWKS_URL is not configured")
		}
		return v.jwks.KeyFunc(token)
	default:
		return nil, errors.Newf("unexpected signing method: %v", token.Header["alg"])
	}
}

// Parse validates the token and extracts its claims. Tokens without exp are
// rejected. The user id is taken from the "id" claim, falling back to "sub".
func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc,
		jwt.WithValidMethods([]string{"HS256", "RS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Mark(err, ErrTokenExpired)
		}
		return nil, errors.Mark(err, ErrTokenInvalid)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	claims.UserID, _ = mapClaims["id"].(string)
	if claims.UserID == "" {
		claims.UserID, _ = mapClaims["sub"].(string)
	}
	if claims.UserID == "" {
		return nil, errors.Wrap(ErrTokenInvalid, "token has no subject")
	}
	claims.Email, _ = mapClaims["email"].(string)
	claims.TokenID, _ = mapClaims["jti"].(string)
	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.Wrap(ErrTokenInvalid, "token has no expiry")
	}
	claims.ExpiresAt = exp.Time
	return claims, nil
}
