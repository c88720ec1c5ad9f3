package credential

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"tasker/internal/service"
)

// SessionFromJWT builds a session from a bearer JWT handed back on the OAuth
// redirect. The signature is not verified; the API does that on every call.
func SessionFromJWT(token string) (service.Session, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return service.Session{}, fmt.Errorf("%w: invalid JWT token format", service.ErrMalformedToken)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return service.Session{}, fmt.Errorf("%w: %v", service.ErrMalformedToken, err)
	}

	sub, _ := claims["sub"].(string)
	username := sub
	if username == "" {
		username = "User"
	}

	return service.Session{
		AccessToken: token,
		TokenType:   "Bearer",
		Profile: service.Profile{
			Username: username,
			Email:    sub,
			Roles:    rolesFromClaims(claims),
		},
	}, nil
}

// rolesFromClaims prefers an explicit roles claim, then the upper-cased
// scope list, then USER.
func rolesFromClaims(claims jwt.MapClaims) []string {
	switch v := claims["roles"].(type) {
	case []any:
		roles := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
		if len(roles) > 0 {
			return roles
		}
	case string:
		if v != "" {
			return []string{v}
		}
	}

	if scope, ok := claims["scope"].(string); ok && strings.TrimSpace(scope) != "" {
		var roles []string
		for _, s := range strings.Fields(scope) {
			roles = append(roles, strings.ToUpper(s))
		}
		return roles
	}

	return []string{"USER"}
}
