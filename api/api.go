package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/route-planner/api/model"
	"github.com/a-bouts/route-planner/plan"
	"github.com/gorilla/mux"
	"github.com/pkg/profile"
)

//go:generate mockgen -destination mock/planner.go -package mock github.com/a-bouts/route-planner/api Planner

// Planner is the route pipeline behind the front door.
type Planner interface {
	Routes(ctx context.Context, req model.RouteRequest) (*model.RoutesResponse, error)
}

type server struct {
	cpuprofile bool
	planner    Planner
}

func InitServer(cpuprofile bool, planner Planner) *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	s := server{
		cpuprofile: cpuprofile,
		planner:    planner,
	}

	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.HandleFunc("/calculate-routes", s.calculateRoutes).Methods(http.MethodPost)

	return router
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status string `json:"status"`
	}

	json.NewEncoder(w).Encode(health{Status: "Ok"})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch plan.KindOf(err) {
	case plan.KindBadRequest:
		return http.StatusBadRequest
	case plan.KindProviderUnavailable:
		return http.StatusBadGateway
	case plan.KindProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) calculateRoutes(w http.ResponseWriter, req *http.Request) {
	if s.cpuprofile {
		defer profile.Start().Stop()
	}

	fields := log.Fields{
		"action": "calculate-routes",
	}
	if ip, err := clientIP(req); err == nil {
		fields["IP"] = ip
	}
	requestLogger := log.WithFields(fields)

	var r model.RouteRequest
	if err := json.NewDecoder(req.Body).Decode(&r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	requestLogger.Infof("Routes (%.3f,%.3f) -> (%.3f,%.3f) %s from %s",
		r.Start.Lat, r.Start.Lon, r.End.Lat, r.End.Lon, r.BoatType, r.Departure)

	start := time.Now()

	res, err := s.planner.Routes(req.Context(), r)
	if err != nil {
		status := statusFor(err)
		requestLogger.WithError(err).Warnf("Routes failed (%d)", status)

		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "Internal server error"
		}
		writeError(w, status, msg)
		return
	}

	delta := time.Now().Sub(start)
	requestLogger.Infof("Routes took %s (%d candidates)", delta.String(), len(res.Routes))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// clientIP resolves the caller address, trusting the reverse proxy headers
// before RemoteAddr.
func clientIP(r *http.Request) (string, error) {
	if ip := r.Header.Get("X-REAL-IP"); net.ParseIP(ip) != nil {
		return ip, nil
	}

	for _, ip := range strings.Split(r.Header.Get("X-FORWARDED-FOR"), ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip, nil
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("no client ip in request")
	}
	return ip, nil
}
