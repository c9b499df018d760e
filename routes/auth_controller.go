package routes

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ajg/form"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/formie/app"
	"github.com/mbolis/formie/httpx"
	"github.com/mbolis/formie/log"
)

const (
	maxUsernameLen = 32
	maxPasswordLen = 256
)

type registration struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg registration
		err := form.NewDecoder(r.Body).Decode(&reg)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "register.parse_body")
			return
		}

		switch {
		case reg.Username == "":
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "register.username", "An username is required.")
			return
		case len(reg.Username) > maxUsernameLen:
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "register.username", "Username cannot be longer than %d characters.", maxUsernameLen)
			return
		case reg.Password == "":
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "register.password", "A password is required.")
			return
		case len(reg.Password) > maxPasswordLen:
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "register.password", "Password cannot be longer than %d characters.", maxPasswordLen)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, "register.hash", err)
			return
		}

		_, err = app.ExecContext(r.Context(),
			"INSERT INTO user (username, password_hash) VALUES (?, ?)",
			reg.Username,
			string(hash),
		)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
				httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "register.username", "Username is already in use.")
				return
			}
			httpx.LogInternalError(w, "db.insert_user", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))
		app.UserCredentials(w, r)
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("authorization")
		match := regexp.MustCompile(`(?i)^refresh\s+(.*)`).FindStringSubmatch(auth)
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}
		token := match[1]

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		}

		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogStatus(w, http.StatusInternalServerError, log.DebugLevel, "refresh.new_request")
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}
