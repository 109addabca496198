package controllers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
	"github.com/ManuelReschke/PixelProof/internal/pkg/flash"
	"github.com/ManuelReschke/PixelProof/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/PixelProof/internal/pkg/oauth"
	"github.com/ManuelReschke/PixelProof/internal/pkg/session"
	"github.com/ManuelReschke/PixelProof/internal/pkg/usercontext"
)

const (
	pathAdminLogin = "/admin/login"
	pathAdmin      = "/admin"
	loginFailed    = "There is a problem with the login process"
)

// CheckAdminCredentials compares against ADMIN_USERNAME and the bcrypt hash
// in ADMIN_PASSWORD_HASH. Without a hash nobody can log in with a password.
func CheckAdminCredentials(username, password string) bool {
	wantUser := env.GetEnv("ADMIN_USERNAME", "admin")
	hash := env.GetEnv("ADMIN_PASSWORD_HASH", "")
	if hash == "" || username == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(wantUser)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	return userOK && passOK
}

func startAdminSession(c *fiber.Ctx, name, email string) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(usercontext.KeyAdminName, name)
	sess.Set(usercontext.KeyAdminEmail, email)
	sess.Set(usercontext.KeyIsAdmin, true)
	return sess.Save()
}

// HandleAdminLogin shows and processes the photographer login form.
func HandleAdminLogin(c *fiber.Ctx) error {
	if usercontext.IsAdmin(c) {
		return c.Redirect(pathAdmin, fiber.StatusSeeOther)
	}

	if c.Method() == fiber.MethodPost {
		if hcaptcha.Enabled() {
			if err := hcaptcha.Verify(c.UserContext(), c.FormValue("h-captcha-response"), clientIP(c)); err != nil {
				log.Warnf("[Auth] Captcha rejected: %v", err)
				return flash.Error(c, pathAdminLogin, "Please solve the captcha")
			}
		}

		username := c.FormValue("username")
		if !CheckAdminCredentials(username, c.FormValue("password")) {
			log.Warnf("[Auth] Failed admin login for %q from %s", username, clientIP(c))
			return flash.Error(c, pathAdminLogin, loginFailed)
		}
		if err := startAdminSession(c, username, ""); err != nil {
			log.Errorf("[Auth] Could not save session: %v", err)
			return flash.Error(c, pathAdminLogin, loginFailed)
		}
		return flash.Success(c, pathAdmin, "Welcome back, "+username)
	}

	return render(c, "admin/login", "Login", layoutPublic, fiber.Map{
		"GoogleEnabled":  oauth.Enabled(),
		"CaptchaEnabled": hcaptcha.Enabled(),
		"CaptchaSiteKey": hcaptcha.SiteKey(),
	})
}

// HandleAdminLogout ends the photographer session.
func HandleAdminLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		sess.Delete(usercontext.KeyAdminName)
		sess.Delete(usercontext.KeyAdminEmail)
		sess.Delete(usercontext.KeyIsAdmin)
		if err := sess.Save(); err != nil {
			log.Warnf("[Auth] Could not save session on logout: %v", err)
		}
	}
	return flash.Success(c, pathAdminLogin, "Logged out")
}

// HandleOAuthCallback completes Google sign-in for addresses in ADMIN_EMAILS.
func HandleOAuthCallback(c *fiber.Ctx) error {
	user, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnf("[Auth] OAuth callback failed: %v", err)
		return flash.Error(c, pathAdminLogin, loginFailed)
	}
	if !oauth.IsAdminEmail(user.Email) {
		log.Warnf("[Auth] Rejected OAuth login for %s", user.Email)
		return flash.Error(c, pathAdminLogin, "This account has no access to the admin area")
	}
	name := user.Name
	if name == "" {
		name = user.Email
	}
	if err := startAdminSession(c, name, user.Email); err != nil {
		log.Errorf("[Auth] Could not save session: %v", err)
		return flash.Error(c, pathAdminLogin, loginFailed)
	}
	return flash.Success(c, pathAdmin, "Welcome back, "+name)
}
