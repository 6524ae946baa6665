package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/signalsfoundry/burial-clock/internal/export"
	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/timectrl"
)

// PlaybackStatus describes the playback cursor.
type PlaybackStatus struct {
	ScenarioID string         `json:"scenario_id"`
	Index      int            `json:"index"`
	Frames     int            `json:"frames"`
	Playing    bool           `json:"playing"`
	Speed      float64        `json:"speed"`
	FrameDelay int            `json:"frame_delay_ticks"`
	Frame      *export.Record `json:"frame,omitempty"`
}

type playbackHandlers struct {
	*HTTPHandlers
	playback *timectrl.Playback
}

// MountPlayback adds playback control routes under /api/v1/playback.
func MountPlayback(router *mux.Router, p *timectrl.Playback, log logging.Logger) {
	if log == nil {
		log = logging.Noop()
	}
	h := &playbackHandlers{HTTPHandlers: &HTTPHandlers{log: log}, playback: p}

	api := router.PathPrefix("/api/v1/playback").Subrouter()
	api.HandleFunc("", h.status).Methods("GET").Name("playback")
	api.HandleFunc("/seek", h.seek).Methods("POST").Name("playback_seek")
	api.HandleFunc("/speed", h.speed).Methods("PUT", "POST").Name("playback_speed")
	api.HandleFunc("/{action:play|pause|toggle|restart|step}", h.action).Methods("POST").Name("playback_action")
}

func (h *playbackHandlers) status(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, h.snapshot())
}

func (h *playbackHandlers) action(w http.ResponseWriter, r *http.Request) {
	switch mux.Vars(r)["action"] {
	case "play":
		h.playback.Play()
	case "pause":
		h.playback.Pause()
	case "toggle":
		h.playback.Toggle()
	case "restart":
		h.playback.Restart()
	case "step":
		h.playback.Step()
	}
	h.sendJSON(w, http.StatusOK, h.snapshot())
}

// seek accepts either ?fraction= in [0,1] or ?index=.
func (h *playbackHandlers) seek(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Has("index"):
		i, err := strconv.Atoi(q.Get("index"))
		if err != nil {
			h.sendError(w, r, fmt.Errorf("%w: index must be an integer", ErrInvalidArgument))
			return
		}
		h.playback.SeekIndex(i)
	case q.Has("fraction"):
		f, err := strconv.ParseFloat(q.Get("fraction"), 64)
		if err != nil {
			h.sendError(w, r, fmt.Errorf("%w: fraction must be a number", ErrInvalidArgument))
			return
		}
		h.playback.Seek(f)
	default:
		h.sendError(w, r, fmt.Errorf("%w: index or fraction is required", ErrInvalidArgument))
		return
	}
	h.sendJSON(w, http.StatusOK, h.snapshot())
}

func (h *playbackHandlers) speed(w http.ResponseWriter, r *http.Request) {
	v, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		h.sendError(w, r, fmt.Errorf("%w: value must be a number", ErrInvalidArgument))
		return
	}
	h.playback.SetSpeed(v)
	h.sendJSON(w, http.StatusOK, h.snapshot())
}

func (h *playbackHandlers) snapshot() PlaybackStatus {
	sc := h.playback.Scenario()
	speed := h.playback.Speed()
	st := PlaybackStatus{
		ScenarioID: sc.ID(),
		Index:      h.playback.Index(),
		Frames:     sc.Len(),
		Playing:    h.playback.Playing(),
		Speed:      speed,
		FrameDelay: timectrl.FrameDelay(speed),
	}
	if f, ok := h.playback.Current(); ok {
		rec := export.NewRecord(f)
		st.Frame = &rec
	}
	return st
}
