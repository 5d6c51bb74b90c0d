// Package handlers exposes the stage controller, the playback bridge and the
// theme toggle over HTTP. The home page renders the current stage as HTML
// while the /api routes form a small JSON API driven by the front end.

package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/filyy5040/yeti-radio-streams/pkg/music"
	"github.com/filyy5040/yeti-radio-streams/pkg/player"
	"github.com/filyy5040/yeti-radio-streams/pkg/stage"
	"github.com/filyy5040/yeti-radio-streams/pkg/theme"
)

// Application bundles the dependencies used by the HTTP handlers.
type Application struct {
	Stage  *stage.Controller
	Player *player.Bridge
	Theme  *theme.Toggle
	Log    logrus.FieldLogger
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Routes registers every route on a new mux and wraps it with
// SecurityHeaders.
func (app *Application) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", app.Home)
	mux.HandleFunc("POST /api/credential", app.SubmitCredential)
	mux.HandleFunc("POST /api/start", app.Start)
	mux.HandleFunc("POST /api/home", app.GoHome)
	mux.HandleFunc("GET /api/stage", app.StageJSON)
	mux.HandleFunc("GET /api/search", app.SearchJSON)
	mux.HandleFunc("GET /api/results", app.ResultsJSON)
	mux.HandleFunc("POST /api/select", app.Select)
	mux.HandleFunc("GET /api/player", app.PlayerJSON)
	mux.HandleFunc("POST /api/player/toggle", app.TogglePlayPause)
	mux.HandleFunc("POST /api/player/seek", app.Seek)
	mux.HandleFunc("POST /api/player/skip", app.Skip)
	mux.HandleFunc("POST /api/player/volume", app.SetVolume)
	mux.HandleFunc("POST /api/player/mute", app.ToggleMute)
	mux.HandleFunc("POST /api/player/details", app.SetDetails)
	mux.HandleFunc("POST /api/theme", app.ToggleTheme)
	mux.HandleFunc("GET /api/notifications", app.Notifications)
	if app.Metrics != nil {
		mux.Handle("GET /metrics", app.Metrics)
	}
	return SecurityHeaders(mux)
}

func (app *Application) logger() logrus.FieldLogger {
	if app.Log == nil {
		return logrus.StandardLogger()
	}
	return app.Log
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html{{if .ThemeClass}} class="{{.ThemeClass}}"{{end}}>
<head><meta charset="utf-8"><title>Yeti Radio</title></head>
<body data-stage="{{.Stage}}">
{{- if eq .Stage "credential"}}
<h1>Configure your API key</h1>
<p>Submit your YouTube Data API key to POST /api/credential.</p>
{{- else if eq .Stage "landing"}}
<h1>Welcome to Yeti Radio</h1>
<p>Search and stream music from YouTube. POST /api/start to begin listening.</p>
{{- else}}
<h1>Player</h1>
{{- if .Searching}}<p class="searching">Searching...</p>{{end}}
<ul class="results">
{{- range .Results}}
<li data-id="{{.ExternalID}}"><img src="{{.ThumbnailURL}}" alt=""><strong>{{.Title}}</strong> <span>{{.Author}}</span></li>
{{- end}}
</ul>
{{- if .Playing}}
<section class="now-playing">
<h2>{{.Item.Title}}</h2>
<p>{{.Item.Author}}</p>
<p class="time">{{.Position}} / {{.Duration}}</p>
<p class="volume">{{if .State.Muted}}muted{{else}}{{.State.Volume}}%{{end}}</p>
</section>
{{- end}}
{{- end}}
</body>
</html>
`))

type homeData struct {
	Stage      stage.Stage
	ThemeClass string
	Searching  bool
	Results    music.List
	Playing    bool
	Item       music.Item
	State      player.PlaybackState
	Position   string
	Duration   string
}

// Home renders the page for the current stage.
func (app *Application) Home(w http.ResponseWriter, r *http.Request) {
	data := homeData{
		Stage:      app.Stage.Stage(),
		ThemeClass: app.Theme.Mode().Class(),
		Searching:  app.Stage.Searching(),
		Results:    app.Stage.Results(),
	}
	if item, ok := app.Player.Item(); ok {
		st := app.Player.State()
		data.Playing = true
		data.Item = item
		data.State = st
		data.Position = player.FormatTime(st.Position)
		data.Duration = player.FormatTime(st.Duration)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, data); err != nil {
		app.logger().WithError(err).Error("render home")
	}
}

type stageResponse struct {
	Stage     stage.Stage `json:"stage"`
	Theme     theme.Mode  `json:"theme"`
	Searching bool        `json:"searching"`
	Selected  *music.Item `json:"selected,omitempty"`
}

// StageJSON reports the current stage, theme and selection.
func (app *Application) StageJSON(w http.ResponseWriter, r *http.Request) {
	resp := stageResponse{
		Stage:     app.Stage.Stage(),
		Theme:     app.Theme.Mode(),
		Searching: app.Stage.Searching(),
	}
	if item, ok := app.Stage.Selected(); ok {
		resp.Selected = &item
	}
	respondJSON(w, http.StatusOK, resp)
}

// SubmitCredential stores the API key sent as {"key": "..."}.
func (app *Application) SubmitCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := app.Stage.SubmitCredential(r.Context(), req.Key); err != nil {
		if errors.Is(err, stage.ErrEmptyCredential) {
			app.stageError(w, err)
			return
		}
		app.logger().WithError(err).Error("save credential")
		respondJSONError(w, http.StatusInternalServerError, "failed to save credential")
		return
	}
	app.StageJSON(w, r)
}

// Start moves from the landing page to the player.
func (app *Application) Start(w http.ResponseWriter, r *http.Request) {
	if err := app.Stage.StartListening(); err != nil {
		app.stageError(w, err)
		return
	}
	app.StageJSON(w, r)
}

// GoHome returns from the player to the landing page.
func (app *Application) GoHome(w http.ResponseWriter, r *http.Request) {
	if err := app.Stage.GoHome(); err != nil {
		app.stageError(w, err)
		return
	}
	app.StageJSON(w, r)
}

// SearchJSON runs the search given by the q parameter and returns the
// resulting items. A blank query is ignored and answers with the list
// already displayed.
func (app *Application) SearchJSON(w http.ResponseWriter, r *http.Request) {
	items, err := app.Stage.Search(r.Context(), r.URL.Query().Get("q"))
	if errors.Is(err, music.ErrEmptyQuery) {
		app.ResultsJSON(w, r)
		return
	}
	if err != nil {
		app.stageError(w, err)
		return
	}
	if items == nil {
		items = music.List{}
	}
	respondJSON(w, http.StatusOK, items)
}

// ResultsJSON returns the displayed result list.
func (app *Application) ResultsJSON(w http.ResponseWriter, r *http.Request) {
	items := app.Stage.Results()
	if items == nil {
		items = music.List{}
	}
	respondJSON(w, http.StatusOK, items)
}

// Select binds the result identified by {"id": "..."} to the player.
func (app *Application) Select(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := app.Stage.Select(req.ID)
	if err != nil {
		app.stageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// ToggleTheme switches between the dark and light themes.
func (app *Application) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]theme.Mode{"theme": app.Theme.Toggle()})
}

// Notifications returns and clears the pending notifications.
func (app *Application) Notifications(w http.ResponseWriter, r *http.Request) {
	n := app.Stage.Drain()
	if n == nil {
		n = []stage.Notification{}
	}
	respondJSON(w, http.StatusOK, n)
}

// stageError maps controller errors to HTTP statuses.
func (app *Application) stageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stage.ErrInvalidTransition):
		respondJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, stage.ErrUnknownItem):
		respondJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, stage.ErrEmptyCredential), errors.Is(err, stage.ErrNoCredential):
		respondJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		respondJSONError(w, http.StatusRequestTimeout, err.Error())
	default:
		app.logger().WithError(err).Warn("request failed")
		respondJSONError(w, http.StatusBadGateway, "upstream request failed")
	}
}
