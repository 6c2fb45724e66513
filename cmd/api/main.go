// The arena content service. Serves combatant and weapon templates from a
// content directory, plus the duel stats endpoints the game server reports
// into.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/holotable/arena/internal/content"
)

func loadConfig() {
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("content_dir", "./content")
	viper.SetDefault("log_level", "info")

	viper.SetConfigName("arena-api")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/arena")
	viper.SetEnvPrefix("ARENA")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatal().Err(err).Msg("read config")
		}
	}
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

type server struct {
	catalog *content.Catalog
}

func main() {
	loadConfig()
	setupLogging()

	dir := viper.GetString("content_dir")
	cat, err := content.Load(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("load content")
	}
	log.Info().Int("combatants", len(cat.Combatants(""))).Int("weapons", len(cat.Weapons())).Msg("content loaded")

	s := &server{catalog: cat}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/combatants", s.handleCombatants).Methods("GET")
	r.HandleFunc("/api/characters", s.handleKind("character")).Methods("GET")
	r.HandleFunc("/api/droids", s.handleKind("droid")).Methods("GET")
	r.HandleFunc("/api/vehicles", s.handleKind("vehicle")).Methods("GET")
	r.HandleFunc("/api/combatants/{id}", s.handleCombatant).Methods("GET")
	r.HandleFunc("/api/combatants/{id}/weapons", s.handleCombatantWeapons).Methods("GET")
	r.HandleFunc("/api/weapons", s.handleWeapons).Methods("GET")
	r.HandleFunc("/api/stats/record", handleStatsRecord).Methods("POST")
	r.HandleFunc("/api/stats/best-today", handleBestToday).Methods("GET")
	r.HandleFunc("/api/stats/{player}", handleStatsGet).Methods("GET")

	addr := viper.GetString("listen")
	log.Info().Str("addr", addr).Msg("content api listening")
	log.Fatal().Err(http.ListenAndServe(addr, r)).Msg("server stopped")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCombatants(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	writeJSON(w, http.StatusOK, s.catalog.Combatants(kind))
}

// handleKind serves the per-kind convenience routes.
func (s *server) handleKind(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.catalog.Combatants(kind))
	}
}

func (s *server) handleCombatant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, c := range s.catalog.Combatants("") {
		if c.ID == id {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	http.Error(w, "unknown combatant", http.StatusNotFound)
}

func (s *server) handleCombatantWeapons(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ids, err := s.catalog.WeaponIDs(id)
	if err != nil {
		http.Error(w, "unknown combatant", http.StatusNotFound)
		return
	}
	out := make([]content.WeaponTemplate, 0, len(ids))
	for _, t := range s.catalog.Weapons() {
		for _, wid := range ids {
			if t.ID == wid {
				out = append(out, t)
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleWeapons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Weapons())
}
