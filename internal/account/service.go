// Package account implements the credential update and group membership
// workflows on top of the htpasswd/htgroup files, the authorization policy
// and the change-log store.
package account

import (
	"htadmin/internal/auth"
	"htadmin/internal/changelog"
	"htadmin/internal/config"
	"htadmin/internal/htfile"
	"htadmin/internal/logger"
	"htadmin/internal/policy"
)

type Service struct {
	cfg     config.Config
	pol     *policy.Policy
	pattern *PasswordPattern
	changes *changelog.Store // nil when the change log is disabled
}

func NewService(cfg config.Config, pol *policy.Policy, changes *changelog.Store) (*Service, error) {
	pattern, err := CompilePattern(cfg.PasswordPattern, cfg.PasswordPatternHelp)
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, pol: pol, pattern: pattern, changes: changes}, nil
}

func (s *Service) Pattern() *PasswordPattern { return s.pattern }

// PasswordRequest is one password-change or account-creation submission.
// Identity is the upstream-asserted acting user; Target the account being
// changed or created.
type PasswordRequest struct {
	Identity string
	Target   string
	New      string
	Repeat   string
	Old      string
}

type Outcome struct {
	Created bool
	Message string
}

// ChangePassword validates and applies one password change or account
// creation. Refusals come back as *Rejection with nothing mutated; any
// other error is an internal failure.
func (s *Service) ChangePassword(req PasswordRequest) (Outcome, error) {
	if s.cfg.RequireRemoteUser && req.Identity == "" {
		return Outcome{}, reject(msgNotAuthenticated)
	}

	users, err := htfile.LoadPasswd(s.cfg.PasswdFile)
	if err != nil {
		return Outcome{}, err
	}
	groups, err := htfile.LoadGroup(s.cfg.GroupFile)
	if err != nil {
		return Outcome{}, err
	}

	newAccount := !users.Exists(req.Target)

	if s.cfg.RequireRemoteUser {
		if ok, reason := s.pol.CanActOnTarget(groups, req.Identity, req.Target, newAccount); !ok {
			return Outcome{}, reject("%s", reason)
		}
	}

	if newAccount && !htfile.ValidUsername(req.Target) {
		return Outcome{}, reject(msgInvalidUsername)
	}
	if req.New != req.Repeat {
		return Outcome{}, reject(msgPasswordsDiffer)
	}
	if s.AskOldPassword(groups, req.Identity, req.Target, newAccount) {
		hash, _ := users.Hash(req.Target)
		ok, err := auth.VerifyPassword(hash, req.Old)
		if err != nil || !ok {
			return Outcome{}, reject(msgOldPasswordMismatch)
		}
	}
	if !s.pattern.Match(req.New) {
		return Outcome{}, reject("New password does not match requirements (%s).", s.pattern.Help)
	}

	if newAccount && s.cfg.CreateHome {
		if err := provisionHomes(s.cfg.HomePaths, req.Target); err != nil {
			return Outcome{}, err
		}
	}

	message := msgPasswordChanged
	if newAccount {
		if err := users.Add(req.Target, req.New); err != nil {
			return Outcome{}, err
		}
		message = msgUserCreated
	} else {
		if err := users.SetPassword(req.Target, req.New); err != nil {
			return Outcome{}, err
		}
	}
	if err := users.Save(); err != nil {
		return Outcome{}, err
	}

	s.recordChange(req.Target)
	return Outcome{Created: newAccount, Message: message}, nil
}

// AskOldPassword reports whether this edit must confirm the old password.
// Never for new accounts; an admin editing someone else's password skips
// the confirmation.
func (s *Service) AskOldPassword(groups policy.GroupDirectory, identity, target string, newAccount bool) bool {
	if !s.cfg.AskOldPassword || newAccount {
		return false
	}
	if identity != target {
		if admin, _ := s.pol.IsAdmin(groups, identity); admin {
			return false
		}
	}
	return true
}

// Memberships returns target's membership flag for every group in the
// directory. Admin only.
func (s *Service) Memberships(identity, target string) (map[string]bool, error) {
	groups, err := htfile.LoadGroup(s.cfg.GroupFile)
	if err != nil {
		return nil, err
	}
	if ok, reason := s.pol.IsAdmin(groups, identity); !ok {
		return nil, reject("%s", reason)
	}
	out := make(map[string]bool)
	for _, g := range groups.Groups() {
		out[g] = groups.IsMember(target, g)
	}
	return out, nil
}

// SetMemberships reconciles target's memberships against the desired set:
// every group present in the directory is added or removed to match, and
// desired groups that do not exist are silently ignored. Admin only, with
// no self-service exception. Applying the same set twice is a no-op.
func (s *Service) SetMemberships(identity, target string, desired map[string]bool) (Outcome, error) {
	groups, err := htfile.LoadGroup(s.cfg.GroupFile)
	if err != nil {
		return Outcome{}, err
	}
	if ok, reason := s.pol.IsAdmin(groups, identity); !ok {
		return Outcome{}, reject("%s", reason)
	}
	for _, g := range groups.Groups() {
		if desired[g] {
			if !groups.IsMember(target, g) {
				if err := groups.AddMember(target, g); err != nil {
					return Outcome{}, err
				}
			}
		} else if groups.IsMember(target, g) {
			groups.RemoveMember(target, g)
		}
	}
	if err := groups.Save(); err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: msgGroupsChanged}, nil
}

// recordChange stamps the change log. Failures are logged and swallowed:
// the password change already happened and must be reported as successful.
func (s *Service) recordChange(username string) {
	if s.changes == nil {
		return
	}
	if err := s.changes.RecordChange(username); err != nil {
		logger.Warn("change-log update failed for %s: %v", username, err)
	}
}
