package server

import (
	"embed"
	"html/template"
	"net/http"

	"htadmin/internal/account"
	"htadmin/internal/auth"
	"htadmin/internal/config"
	"htadmin/internal/policy"
)

//go:embed templates/*.html
var templatesFS embed.FS

type App struct {
	cfg      config.Config
	pages    map[string]*template.Template
	ids      *auth.IdentitySource
	pol      *policy.Policy
	accounts *account.Service
	notice   template.HTML
}

// ViewData carries everything the page templates may show.
type ViewData struct {
	Prefix   string
	Identity string

	// list
	Users []string

	// user form
	Target          string
	NewUser         bool
	AskOldPassword  bool
	PasswordPattern string
	PatternHelp     string
	ReturnTo        string

	// groups form
	Groups []GroupRow

	// message page
	Message string
	Success bool

	NoticeHTML template.HTML
}

type GroupRow struct {
	Name   string
	Member bool
}

func newApp(cfg config.Config, pol *policy.Policy, accounts *account.Service) (*App, error) {
	base := template.New("layout.html")

	pages := map[string]*template.Template{}
	for _, page := range []string{"list", "user", "groups", "message"} {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		// Each page file overrides the layout's title/content blocks.
		if _, err := t.ParseFS(templatesFS, "templates/layout.html", "templates/"+page+".html"); err != nil {
			return nil, err
		}
		pages[page] = t
	}

	return &App{
		cfg:   cfg,
		pages: pages,
		ids: &auth.IdentitySource{
			Header: cfg.RemoteUserHeader,
			Secret: []byte(cfg.TrustedJWTSecret),
		},
		pol:      pol,
		accounts: accounts,
		notice:   RenderMarkdown(cfg.Notice),
	}, nil
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	p := a.cfg.RoutePrefix

	mux.HandleFunc(p+"/{$}", a.handleHome)
	mux.HandleFunc(p+"/list_users", a.handleListUsers)
	mux.HandleFunc(p+"/user/{username}", a.handleUser)
	mux.HandleFunc(p+"/user_groups/{username}", a.handleUserGroups)

	mux.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{\"ok\":true}\n"))
	})

	return a.withIdentity(mux)
}

func (a *App) baseData(r *http.Request) *ViewData {
	return &ViewData{
		Prefix:     a.cfg.RoutePrefix,
		Identity:   identityFrom(r),
		NoticeHTML: a.notice,
	}
}

func (a *App) renderPage(w http.ResponseWriter, page string, data *ViewData) {
	t := a.pages[page]
	if t == nil {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = t.ExecuteTemplate(w, "layout.html", data)
}

func (a *App) renderMessage(w http.ResponseWriter, r *http.Request, message string, success bool) {
	data := a.baseData(r)
	data.Message = message
	data.Success = success
	a.renderPage(w, "message", data)
}
