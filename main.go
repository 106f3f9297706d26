package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/peterbourgon/ff"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/route-planner/api"
	"github.com/a-bouts/route-planner/plan"
	"github.com/a-bouts/route-planner/route"
	"github.com/a-bouts/route-planner/weather"

	_ "net/http/pprof"
)

func main() {

	fs := flag.NewFlagSet("route-planner", flag.ExitOnError)
	var (
		port            = fs.Int("port", 8888, "listen port")
		logLevel        = fs.String("log-level", "info", "debug, info, warn or error")
		cpuprofile      = fs.Bool("cpuprofile", false, "profile route calculation")
		requestTimeout  = fs.Int("request-timeout", 60, "request deadline in seconds")
		searchTimeout   = fs.Int("search-timeout", 30, "isochrone deadline in seconds")
		providerTimeout = fs.Int("provider-timeout", 10, "weather API timeout in seconds")
	)
	ff.Parse(fs, os.Args[1:], ff.WithEnvVarNoPrefix())

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	provider := weather.NewOpenMeteo(time.Duration(*providerTimeout) * time.Second)

	cfg := plan.DefaultConfig()
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.Search = route.DefaultConfig()
	cfg.Search.Timeout = time.Duration(*searchTimeout) * time.Second

	planner := plan.NewWithConfig(provider, cfg)

	log.Info("Start server")

	router := api.InitServer(*cpuprofile, planner)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", *port), cors(router)))
}
