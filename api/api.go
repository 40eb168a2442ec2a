package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-watch/api/model"
	"github.com/a-bouts/nav-watch/engine"
	"github.com/a-bouts/nav-watch/route"
)

type server struct {
	e *engine.Engine
}

func InitServer(e *engine.Engine) *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	s := server{e: e}

	api := router.PathPrefix("/").Subrouter()

	api.HandleFunc("/nav/-/healthz", s.healthz).Methods(http.MethodGet)

	apiV1 := router.PathPrefix("/nav/api/v1").Subrouter()
	apiV1.HandleFunc("/state", s.state).Methods(http.MethodGet)
	apiV1.HandleFunc("/fix", s.fix).Methods(http.MethodPost)
	apiV1.HandleFunc("/navigate", s.navigate).Methods(http.MethodPost)
	apiV1.HandleFunc("/navigate", s.cancel).Methods(http.MethodDelete)
	apiV1.HandleFunc("/navigate/dismiss", s.dismiss).Methods(http.MethodPost)
	apiV1.HandleFunc("/autopilot", s.autopilot).Methods(http.MethodPost)
	apiV1.HandleFunc("/anchor", s.placeAnchor).Methods(http.MethodPost)
	apiV1.HandleFunc("/anchor/activate", s.activateAnchor).Methods(http.MethodPost)
	apiV1.HandleFunc("/anchor/deactivate", s.deactivateAnchor).Methods(http.MethodPost)
	apiV1.HandleFunc("/scope/{depth}", s.scope).Methods(http.MethodGet)
	apiV1.HandleFunc("/vessel", s.vessel).Methods(http.MethodGet)
	apiV1.HandleFunc("/vessel", s.setVessel).Methods(http.MethodPut)

	return router
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status string `json:"status"`
	}

	json.NewEncoder(w).Encode(health{Status: "Ok"})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.Error{Error: err.Error()})
}

// done answers a command with the resulting state.
func (s *server) done(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrNoPosition):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.state(w, r)
}

func (s *server) state(w http.ResponseWriter, r *http.Request) {
	snap, err := s.e.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *server) fix(w http.ResponseWriter, r *http.Request) {
	var fix route.Fix
	if err := json.NewDecoder(r.Body).Decode(&fix); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.e.HandleFix(r.Context(), fix); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) navigate(w http.ResponseWriter, r *http.Request) {
	fields := log.Fields{
		"action": "navigate",
	}
	if ip, err := getIp(r); err == nil {
		fields["IP"] = ip
	}
	requestLogger := log.WithFields(fields)

	var n model.Navigate
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	requestLogger.Infof("Navigate to '%s' (%f,%f)", n.Name, n.To.Lat, n.To.Lon)

	_, err := s.e.Navigate(r.Context(), n.Name, n.To)
	s.done(w, r, err)
}

func (s *server) cancel(w http.ResponseWriter, r *http.Request) {
	s.done(w, r, s.e.CancelNavigation(r.Context()))
}

func (s *server) dismiss(w http.ResponseWriter, r *http.Request) {
	s.done(w, r, s.e.DismissError(r.Context()))
}

func (s *server) autopilot(w http.ResponseWriter, r *http.Request) {
	var a model.Autopilot
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	var err error
	if a.Active != nil {
		err = s.e.SetAutopilot(ctx, *a.Active)
	}
	if err == nil && a.Heading != nil {
		err = s.e.SetHeading(ctx, *a.Heading)
	}
	if err == nil && a.FollowRoute != nil {
		err = s.e.SetFollowRoute(ctx, *a.FollowRoute)
	}
	if err == nil && a.DismissWarning {
		err = s.e.DismissWarning(ctx)
	}
	s.done(w, r, err)
}

func (s *server) placeAnchor(w http.ResponseWriter, r *http.Request) {
	var a model.Anchor
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if a.ChainLength <= 0 || a.Depth < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid chain length %.1f or depth %.1f", a.ChainLength, a.Depth))
		return
	}

	s.done(w, r, s.e.PlaceAnchor(r.Context(), a.ChainLength, a.Depth))
}

func (s *server) activateAnchor(w http.ResponseWriter, r *http.Request) {
	s.done(w, r, s.e.ActivateAnchor(r.Context()))
}

func (s *server) deactivateAnchor(w http.ResponseWriter, r *http.Request) {
	s.done(w, r, s.e.DeactivateAnchor(r.Context()))
}

func (s *server) scope(w http.ResponseWriter, r *http.Request) {
	depth, err := strconv.ParseFloat(mux.Vars(r)["depth"], 64)
	if err != nil || depth < 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rec, err := s.e.Recommend(r.Context(), depth)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *server) vessel(w http.ResponseWriter, r *http.Request) {
	v, err := s.e.Vessel(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *server) setVessel(w http.ResponseWriter, r *http.Request) {
	v, err := s.e.Vessel(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if v.LengthM <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid vessel length %.1f", v.LengthM))
		return
	}

	log.WithField("length", v.LengthM).Info("Vessel updated")

	if err := s.e.SetVessel(r.Context(), v); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.vessel(w, r)
}

func getIp(r *http.Request) (string, error) {
	//Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}

	//Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP := net.ParseIP(ip)
		if netIP != nil {
			return ip, nil
		}
	}

	//Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}
	return "", fmt.Errorf("No valid ip found")
}
