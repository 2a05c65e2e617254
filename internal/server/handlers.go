package server

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"htadmin/internal/account"
	"htadmin/internal/fsutil"
	"htadmin/internal/htfile"
	"htadmin/internal/logger"
)

const msgMustAuthenticate = "Sorry, you must be authenticated upstream to access this page."

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// ensureAuthFiles creates empty credential/group files on first run so a
// fresh deployment works without manual touch(1).
func (a *App) ensureAuthFiles() {
	_ = fsutil.EnsureFile(a.cfg.PasswdFile, 0644)
	_ = fsutil.EnsureFile(a.cfg.GroupFile, 0644)
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	a.ensureAuthFiles()
	identity := identityFrom(r)
	if identity == "" {
		http.Redirect(w, r, a.cfg.RoutePrefix+"/list_users", http.StatusSeeOther)
		return
	}
	dest := a.cfg.RoutePrefix + "/user/" + url.PathEscape(identity)
	if returnTo := r.URL.Query().Get("return_to"); returnTo != "" {
		dest += "?return_to=" + url.QueryEscape(returnTo)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (a *App) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	a.ensureAuthFiles()
	users, err := htfile.LoadPasswd(a.cfg.PasswdFile)
	if err != nil {
		logger.Error("load %s: %v", a.cfg.PasswdFile, err)
		a.renderMessage(w, r, "Cannot read the user list.", false)
		return
	}
	data := a.baseData(r)
	data.Users = users.Users()
	sort.Strings(data.Users)
	a.renderPage(w, "list", data)
}

func (a *App) handleUser(w http.ResponseWriter, r *http.Request) {
	a.ensureAuthFiles()
	username := r.PathValue("username")
	identity := identityFrom(r)

	users, err := htfile.LoadPasswd(a.cfg.PasswdFile)
	if err != nil {
		logger.Error("load %s: %v", a.cfg.PasswdFile, err)
		a.renderMessage(w, r, "Cannot read the credential file.", false)
		return
	}
	groups, err := htfile.LoadGroup(a.cfg.GroupFile)
	if err != nil {
		logger.Error("load %s: %v", a.cfg.GroupFile, err)
		a.renderMessage(w, r, "Cannot read the group file.", false)
		return
	}
	newUser := !users.Exists(username)

	if a.cfg.RequireRemoteUser {
		if identity == "" {
			a.renderMessage(w, r, msgMustAuthenticate, false)
			return
		}
		if identity != username || newUser {
			if ok, reason := a.pol.CanActOnTarget(groups, identity, username, newUser); !ok {
				a.renderMessage(w, r, reason, false)
				return
			}
		}
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		data := a.baseData(r)
		data.Target = username
		data.NewUser = newUser
		data.AskOldPassword = a.accounts.AskOldPassword(groups, identity, username, newUser)
		data.PasswordPattern = a.cfg.PasswordPattern
		data.PatternHelp = a.cfg.PasswordPatternHelp
		data.ReturnTo = r.URL.Query().Get("return_to")
		a.renderPage(w, "user", data)

	case http.MethodPost:
		_ = r.ParseForm()
		out, err := a.accounts.ChangePassword(account.PasswordRequest{
			Identity: identity,
			Target:   username,
			New:      r.Form.Get("new_password"),
			Repeat:   r.Form.Get("repeat_password"),
			Old:      r.Form.Get("old_password"),
		})
		if err != nil {
			if rej, ok := account.AsRejection(err); ok {
				logger.Info("Rejected password request by %q for %q from %s: %s", identity, username, remoteIP(r), rej.Message)
				a.renderMessage(w, r, rej.Message, false)
				return
			}
			logger.Error("Password request by %q for %q failed: %v", identity, username, err)
			a.renderMessage(w, r, "Internal error, please contact support.", false)
			return
		}
		if out.Created {
			logger.Info("User %s created by %s from %s", username, identity, remoteIP(r))
		} else {
			logger.Info("Password changed for %s by %s from %s", username, identity, remoteIP(r))
		}
		if returnTo := r.URL.Query().Get("return_to"); returnTo != "" {
			http.Redirect(w, r, returnTo, http.StatusSeeOther)
			return
		}
		a.renderMessage(w, r, out.Message, true)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *App) handleUserGroups(w http.ResponseWriter, r *http.Request) {
	a.ensureAuthFiles()
	username := r.PathValue("username")
	identity := identityFrom(r)

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		memberships, err := a.accounts.Memberships(identity, username)
		if err != nil {
			if rej, ok := account.AsRejection(err); ok {
				a.renderMessage(w, r, rej.Message, false)
				return
			}
			logger.Error("load memberships for %q: %v", username, err)
			a.renderMessage(w, r, "Cannot read the group file.", false)
			return
		}
		data := a.baseData(r)
		data.Target = username
		for name, member := range memberships {
			data.Groups = append(data.Groups, GroupRow{Name: name, Member: member})
		}
		sort.Slice(data.Groups, func(i, j int) bool { return data.Groups[i].Name < data.Groups[j].Name })
		a.renderPage(w, "groups", data)

	case http.MethodPost:
		_ = r.ParseForm()
		desired := map[string]bool{}
		for key := range r.Form {
			if name, ok := strings.CutPrefix(key, "group_"); ok && name != "" {
				desired[name] = true
			}
		}
		out, err := a.accounts.SetMemberships(identity, username, desired)
		if err != nil {
			if rej, ok := account.AsRejection(err); ok {
				logger.Info("Rejected group change by %q for %q from %s: %s", identity, username, remoteIP(r), rej.Message)
				a.renderMessage(w, r, rej.Message, false)
				return
			}
			logger.Error("Group change by %q for %q failed: %v", identity, username, err)
			a.renderMessage(w, r, "Internal error, please contact support.", false)
			return
		}
		logger.Info("Groups updated for %s by %s from %s", username, identity, remoteIP(r))
		a.renderMessage(w, r, out.Message, true)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
