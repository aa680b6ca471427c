package api

import (
	"context"
	"net/http"
	"regexp"

	jwt "github.com/golang-jwt/jwt/v4"
)

var bearerRegexp = regexp.MustCompile(`^(?:B|b)earer (\S+$)`)

// OperatorClaims are carried by tokens allowed to manage invitations.
type OperatorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

type contextKey string

const operatorKey = contextKey("operator")

func (a *API) requireOperator(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	ctx := r.Context()
	secret := a.config.JWT.Secret
	if secret == "" {
		return nil, forbiddenError("Operator endpoints are disabled")
	}

	matches := bearerRegexp.FindStringSubmatch(r.Header.Get("Authorization"))
	if len(matches) != 2 {
		return nil, unauthorizedError("This endpoint requires a Bearer token")
	}

	claims := &OperatorClaims{}
	p := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Name}}
	_, err := p.ParseWithClaims(matches[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, unauthorizedError("Invalid token: %v", err)
	}
	if aud := a.requestAud(r); aud != "" && !claims.VerifyAudience(aud, true) {
		return nil, unauthorizedError("Invalid token: audience mismatch")
	}

	logEntrySetField(r, "operator", claims.Subject)
	return context.WithValue(ctx, operatorKey, claims), nil
}

// requestAud is the audience operator tokens must carry. The X-JWT-AUD header
// overrides the configured one.
func (a *API) requestAud(r *http.Request) string {
	if aud := r.Header.Get(audHeaderName); aud != "" {
		return aud
	}
	return a.config.JWT.Aud
}

func getOperator(ctx context.Context) *OperatorClaims {
	claims, _ := ctx.Value(operatorKey).(*OperatorClaims)
	return claims
}
