package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"hostingbot/internal/model"
	"hostingbot/internal/service"
)

// authCookie is the cookie carrying the panel session token.
const authCookie = "admin_token"

// Claims is the JWT payload for a panel session.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// issueToken creates a signed session token for an authenticated admin.
func (s *Server) issueToken(user *model.User, now time.Time) (string, error) {
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "hostingbot-panel",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// verifyToken parses and validates a session token.
func (s *Server) verifyToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// requireAuth redirects unauthenticated requests to the login page. A
// cookie that fails verification is cleared so the browser stops sending it.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(authCookie)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		claims, err := s.verifyToken(tokenStr)
		if err != nil {
			s.clearSession(c)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set("admin_id", claims.UserID)
		c.Set("admin_username", claims.Username)
		c.Next()
	}
}

// requireGuest sends already-authenticated admins from the login page to
// the dashboard.
func (s *Server) requireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(authCookie)
		if err == nil {
			if _, err := s.verifyToken(tokenStr); err == nil {
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func (s *Server) setSession(c *gin.Context, token string) {
	c.SetCookie(authCookie, token, int(s.sessionTTL.Seconds()), "/", "", s.cookieSecure, true)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetCookie(authCookie, "", -1, "/", "", s.cookieSecure, true)
}

func (s *Server) handleLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.tmpl", gin.H{
		"Title": "Masuk",
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := s.accounts.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			log.Error().Err(err).Str("username", username).Msg("login failed")
		}
		c.HTML(http.StatusUnauthorized, "login.tmpl", gin.H{
			"Title": "Masuk",
			"Error": "Username atau password salah",
		})
		return
	}

	token, err := s.issueToken(user, time.Now())
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue session token")
		c.HTML(http.StatusInternalServerError, "login.tmpl", gin.H{
			"Title": "Masuk",
			"Error": "Terjadi kesalahan, coba lagi",
		})
		return
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("admin logged in")
	s.setSession(c, token)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleLogout(c *gin.Context) {
	s.clearSession(c)
	c.Redirect(http.StatusFound, "/login")
}
