// This file exposes the playback bridge's command surface. Every command
// responds with the resulting PlaybackState so the front end can render it
// without a second request.

package handlers

import (
	"net/http"

	"github.com/filyy5040/yeti-radio-streams/pkg/music"
	"github.com/filyy5040/yeti-radio-streams/pkg/player"
)

type playerResponse struct {
	player.PlaybackState
	Item          *music.Item `json:"item,omitempty"`
	PositionLabel string      `json:"position_label"`
	DurationLabel string      `json:"duration_label"`
	Polling       bool        `json:"polling"`
}

// PlayerJSON returns the mirrored playback state.
func (app *Application) PlayerJSON(w http.ResponseWriter, r *http.Request) {
	st := app.Player.State()
	resp := playerResponse{
		PlaybackState: st,
		PositionLabel: player.FormatTime(st.Position),
		DurationLabel: player.FormatTime(st.Duration),
		Polling:       app.Player.Polling(),
	}
	if item, ok := app.Player.Item(); ok {
		resp.Item = &item
	}
	respondJSON(w, http.StatusOK, resp)
}

// TogglePlayPause plays or pauses the bound item.
func (app *Application) TogglePlayPause(w http.ResponseWriter, r *http.Request) {
	app.Player.TogglePlayPause()
	app.PlayerJSON(w, r)
}

// Seek moves playback to {"position": seconds}.
func (app *Application) Seek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position *float64 `json:"position"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Position == nil || *req.Position < 0 {
		respondJSONError(w, http.StatusBadRequest, "position must be a non-negative number")
		return
	}
	app.Player.Seek(*req.Position)
	app.PlayerJSON(w, r)
}

// Skip moves playback by {"delta": seconds}, backwards when negative.
func (app *Application) Skip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta float64 `json:"delta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	app.Player.Skip(req.Delta)
	app.PlayerJSON(w, r)
}

// SetVolume sets {"percent": 0-100}.
func (app *Application) SetVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percent *int `json:"percent"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Percent == nil || *req.Percent < 0 || *req.Percent > 100 {
		respondJSONError(w, http.StatusBadRequest, "percent must be between 0 and 100")
		return
	}
	app.Player.SetVolume(*req.Percent)
	app.PlayerJSON(w, r)
}

// ToggleMute mutes or unmutes the bound item.
func (app *Application) ToggleMute(w http.ResponseWriter, r *http.Request) {
	app.Player.ToggleMute()
	app.PlayerJSON(w, r)
}

// SetDetails reports {"visible": bool} for the detailed transport view,
// which starts or stops state polling.
func (app *Application) SetDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	app.Player.SetDetailVisible(req.Visible)
	app.PlayerJSON(w, r)
}
