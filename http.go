package accounts

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// Cookie names for the session token pair.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// SetSessionCookies writes the token pair as httpOnly, secure cookies.
// Action tokens never travel this way; they ride emailed links and come
// back in request bodies.
func SetSessionCookies(c *fiber.Ctx, pair TokenPair, accessTTL, refreshTTL time.Duration) {
	setTokenCookie(c, AccessTokenCookie, pair.Access, accessTTL)
	setTokenCookie(c, RefreshTokenCookie, pair.Refresh, refreshTTL)
}

// ClearSessionCookies expires both session cookies. This is the whole
// of logout: there is no server-side session to tear down.
func ClearSessionCookies(c *fiber.Ctx) {
	expireCookie(c, AccessTokenCookie)
	expireCookie(c, RefreshTokenCookie)
}

// AccessTokenFromCookie reads the access token off the request.
func AccessTokenFromCookie(c *fiber.Ctx) (string, error) {
	return cookieValue(c, AccessTokenCookie)
}

// RefreshTokenFromCookie reads the refresh token off the request.
func RefreshTokenFromCookie(c *fiber.Ctx) (string, error) {
	return cookieValue(c, RefreshTokenCookie)
}

func cookieValue(c *fiber.Ctx, name string) (string, error) {
	v := c.Cookies(name)
	if v == "" {
		return "", ErrMissingSession
	}
	return v, nil
}

func setTokenCookie(c *fiber.Ctx, name, val string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

func expireCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

// StatusFromError maps the error taxonomy to transport status codes:
// validation 400, auth 401, forbidden precondition 403, not found 404,
// conflict 409, everything else 500.
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
