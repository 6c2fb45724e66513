// The arena duel server. Players connect over websocket, pick a combatant
// and weapon from the content catalog, and fight through the resolution
// pipeline. Results are persisted to SQLite and folded into the in-memory
// leaderboard.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/holotable/arena/internal/api"
	"github.com/holotable/arena/internal/content"
	"github.com/holotable/arena/internal/engine"
	"github.com/holotable/arena/internal/game"
	"github.com/holotable/arena/internal/models"
	"github.com/holotable/arena/internal/stats"
	"github.com/holotable/arena/internal/store"
)

// contentSource abstracts where templates come from: the local content
// directory or the content api service.
type contentSource interface {
	Instantiate(id string) (*models.Combatant, error)
	Weapon(id string) (*models.Weapon, error)
}

type Player struct {
	ID      string
	Conn    *websocket.Conn
	Name    string
	Ready   bool
	Unit    *models.Combatant
	Weapon  *models.Weapon
	Queued  bool
	RoomID  string
	writeMu sync.Mutex
}

type Room struct {
	ID       string
	P1, P2   *Player
	Turn     string
	Started  bool
	Finished bool
	Winner   string
	Mu       sync.Mutex
	Resolver *game.Resolver
}

type LobbyEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Unit   string `json:"unit,omitempty"`
	Queued bool   `json:"queued"`
	Since  int64  `json:"since"`
}

var (
	matchQueue = make(chan *Player, 32)
	roomsMu    sync.Mutex
	rooms      = map[string]*Room{}
	lobbyMu    sync.Mutex
	lobby      = map[string]LobbyEntry{}

	upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	source contentSource
	db     *store.Store
	roller engine.Roller
)

func loadConfig() {
	viper.SetDefault("listen", ":8090")
	viper.SetDefault("content_dir", "./content")
	viper.SetDefault("content_api", "")
	viper.SetDefault("db_path", "arena.db")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("seed", 0)

	viper.SetConfigName("arena")
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

func main() {
	loadConfig()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if level, err := zerolog.ParseLevel(viper.GetString("log_level")); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var err error
	db, err = store.Open(viper.GetString("db_path"))
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}

	if base := viper.GetString("content_api"); base != "" {
		source = api.NewClient(base)
		log.Info().Str("base", base).Msg("using content api")
	} else {
		cat, err := content.Load(viper.GetString("content_dir"))
		if err != nil {
			log.Fatal().Err(err).Msg("load content")
		}
		source = cat
	}

	if seed := viper.GetInt64("seed"); seed != 0 {
		roller = engine.NewSeeded(seed)
		log.Warn().Int64("seed", seed).Msg("running with a fixed dice seed")
	} else {
		roller = engine.NewRandom()
	}

	http.HandleFunc("/ws", handleWS)
	http.HandleFunc("/lobby", handleLobby)
	http.HandleFunc("/leaderboard", handleLeaderboard)
	http.HandleFunc("/leaderboard/daily", handleLeaderboardDaily)
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	go matchmaker()

	addr := viper.GetString("listen")
	log.Info().Str("addr", addr).Msg("arena duel server listening")
	log.Fatal().Err(http.ListenAndServe(addr, nil)).Msg("server stopped")
}

// ========================= Lobby and matchmaking =========================

func handleLobby(w http.ResponseWriter, r *http.Request) {
	lobbyMu.Lock()
	out := make([]LobbyEntry, 0, len(lobby))
	for _, e := range lobby {
		out = append(out, e)
	}
	lobbyMu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats.All())
}

func handleLeaderboardDaily(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	best, ok := stats.BestToday()
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{})
		return
	}
	_ = json.NewEncoder(w).Encode(best)
}

func lobbySet(p *Player) {
	lobbyMu.Lock()
	e, ok := lobby[p.ID]
	if !ok {
		e = LobbyEntry{ID: p.ID, Name: p.Name, Since: time.Now().Unix()}
	}
	if p.Unit != nil {
		e.Unit = p.Unit.Name
	}
	e.Queued = p.Queued
	lobby[p.ID] = e
	lobbyMu.Unlock()
}

func lobbyDelete(id string) {
	lobbyMu.Lock()
	delete(lobby, id)
	lobbyMu.Unlock()
}

func matchmaker() {
	var waiting *Player
	for p := range matchQueue {
		if waiting == nil || waiting.Conn == nil {
			waiting = p
			continue
		}
		if waiting.ID == p.ID {
			continue
		}
		createRoom(waiting, p)
		waiting = nil
	}
}

func createRoom(p1, p2 *Player) {
	r := &Room{
		ID: uuid.NewString(),
		P1: p1, P2: p2,
		Resolver: game.NewResolver(roller, db).WithLogger(log.Logger),
	}
	p1.RoomID, p2.RoomID = r.ID, r.ID
	roomsMu.Lock()
	rooms[r.ID] = r
	roomsMu.Unlock()
	lobbyDelete(p1.ID)
	lobbyDelete(p2.ID)
	log.Info().Str("room", r.ID).Str("p1", p1.Name).Str("p2", p2.Name).Msg("room created")
	go roomLoop(r)
}

func getRoom(id string) *Room {
	roomsMu.Lock()
	defer roomsMu.Unlock()
	return rooms[id]
}

func closeRoom(r *Room) {
	roomsMu.Lock()
	delete(rooms, r.ID)
	roomsMu.Unlock()
}

// ========================= Websocket =========================

type wsMsg struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type clientIn struct {
	Type      string `json:"type"`
	Combatant string `json:"combatant,omitempty"`
	Weapon    string `json:"weapon,omitempty"`
	Zone      string `json:"zone,omitempty"`
	Range     int    `json:"range,omitempty"`
	Mutual    bool   `json:"mutual,omitempty"`
}

func handleWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "pilot-" + uuid.NewString()[:8]
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p := &Player{ID: uuid.NewString(), Conn: conn, Name: name}
	log.Info().Str("id", p.ID).Str("name", name).Str("from", r.RemoteAddr).Msg("ws connect")
	sendTo(p, wsMsg{Type: "you", Data: map[string]string{"id": p.ID}})
	lobbySet(p)
	go wsReader(p)
}

func sendTo(p *Player, m wsMsg) {
	if p == nil || p.Conn == nil {
		return
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.Conn.WriteJSON(m); err != nil {
		log.Warn().Err(err).Str("id", p.ID).Msg("ws write")
	}
}

func sendError(p *Player, msg string) {
	sendTo(p, wsMsg{Type: "error", Data: msg})
}

func wsReader(p *Player) {
	defer func() {
		p.Conn.Close()
		lobbyDelete(p.ID)
		if room := getRoom(p.RoomID); room != nil {
			room.Mu.Lock()
			if !room.Finished {
				room.Finished = true
				room.Winner = room.opponent(p).ID
				sendTo(room.opponent(p), wsMsg{Type: "status", Data: "opponent disconnected, you win"})
			}
			room.Mu.Unlock()
			closeRoom(room)
		}
		log.Info().Str("id", p.ID).Msg("ws disconnect")
	}()

	for {
		_, data, err := p.Conn.ReadMessage()
		if err != nil {
			return
		}
		var in clientIn
		if err := json.Unmarshal(data, &in); err != nil {
			sendError(p, "bad message")
			continue
		}
		switch in.Type {
		case "pick":
			handlePick(p, in)
		case "queue":
			if p.Unit == nil || p.Weapon == nil {
				sendError(p, "pick a combatant and weapon first")
				continue
			}
			p.Queued = true
			lobbySet(p)
			matchQueue <- p
		case "ready":
			p.Ready = true
			if room := getRoom(p.RoomID); room != nil {
				broadcastState(room)
			}
		case "attack":
			roomAct(p, func(r *Room) { doAttack(r, p, in.Zone) })
		case "dogfight":
			roomAct(p, func(r *Room) { doDogfight(r, p, in.Range) })
		case "ram":
			roomAct(p, func(r *Room) { doRam(r, p, in.Mutual) })
		default:
			sendError(p, "unknown message type "+in.Type)
		}
	}
}

func handlePick(p *Player, in clientIn) {
	unit, err := source.Instantiate(in.Combatant)
	if err != nil {
		sendError(p, fmt.Sprintf("unknown combatant %q", in.Combatant))
		return
	}
	weapon, err := source.Weapon(in.Weapon)
	if err != nil {
		sendError(p, fmt.Sprintf("unknown weapon %q", in.Weapon))
		return
	}
	// Give each instance a unique id so field updates audit per duel.
	unit.ID = unit.ID + "-" + uuid.NewString()[:8]
	p.Unit, p.Weapon = unit, weapon
	if err := db.SaveCombatant(unit); err != nil {
		log.Warn().Err(err).Str("id", unit.ID).Msg("save combatant")
	}
	lobbySet(p)
	sendTo(p, wsMsg{Type: "picked", Data: unit.Snap()})
}

// roomAct runs one player action under the room lock, enforcing turn order.
func roomAct(p *Player, fn func(r *Room)) {
	room := getRoom(p.RoomID)
	if room == nil {
		sendError(p, "not in a room")
		return
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if !room.Started || room.Finished {
		sendError(p, "match not in progress")
		return
	}
	if room.Turn != p.ID {
		sendError(p, "not your turn")
		return
	}
	fn(room)
}

func (r *Room) opponent(p *Player) *Player {
	if r.P1.ID == p.ID {
		return r.P2
	}
	return r.P1
}

func broadcast(r *Room, m wsMsg) {
	sendTo(r.P1, m)
	sendTo(r.P2, m)
}

func broadcastState(r *Room) {
	state := map[string]any{
		"room":    r.ID,
		"turn":    r.Turn,
		"started": r.Started,
		"winner":  r.Winner,
		"p1":      summarizePlayer(r.P1),
		"p2":      summarizePlayer(r.P2),
	}
	broadcast(r, wsMsg{Type: "state", Data: state})
}

func summarizePlayer(p *Player) map[string]any {
	out := map[string]any{
		"id":    p.ID,
		"name":  p.Name,
		"ready": p.Ready,
	}
	if p.Unit != nil {
		out["unit"] = p.Unit.Name
		out["snap"] = p.Unit.Snap()
	}
	if p.Weapon != nil {
		out["weapon"] = p.Weapon.Name
	}
	return out
}

// ========================= Match flow =========================

func roomLoop(r *Room) {
	broadcast(r, wsMsg{Type: "status", Data: map[string]any{"room": r.ID, "message": "match found, send ready"}})

	for {
		time.Sleep(50 * time.Millisecond)
		r.Mu.Lock()
		if r.Finished {
			r.Mu.Unlock()
			return
		}
		if r.P1.Ready && r.P2.Ready {
			break
		}
		r.Mu.Unlock()
	}
	defer r.Mu.Unlock()

	// Roll-off for initiative, rerolling ties.
	roll1, roll2 := roller.Roll(20), roller.Roll(20)
	for roll1 == roll2 {
		roll1, roll2 = roller.Roll(20), roller.Roll(20)
	}
	first := r.P1
	if roll2 > roll1 {
		first = r.P2
	}
	r.Turn = first.ID
	r.Started = true
	broadcast(r, wsMsg{Type: "log", Data: fmt.Sprintf("roll-off %d vs %d, %s goes first", roll1, roll2, first.Name)})
	broadcastState(r)
}

// modeFor picks the attack sequence for the attacker.
func modeFor(attacker *models.Combatant) game.Mode {
	if attacker.Kind == models.KindVehicle {
		return game.ModeVehicleAttack
	}
	return game.ModeCharacterAttack
}

func doAttack(r *Room, p *Player, zone string) {
	opp := r.opponent(p)
	ctx := &models.AttackContext{
		Attacker: p.Unit,
		Target:   opp.Unit,
		Weapon:   p.Weapon,
		Zone:     zone,
	}
	finishAction(r, p, modeFor(p.Unit), ctx)
}

func doDogfight(r *Room, p *Player, rangeBand int) {
	opp := r.opponent(p)
	ctx := &models.AttackContext{
		Attacker:  p.Unit,
		Target:    opp.Unit,
		RangeBand: rangeBand,
	}
	finishAction(r, p, game.ModeDogfight, ctx)
}

func doRam(r *Room, p *Player, mutual bool) {
	opp := r.opponent(p)
	ctx := &models.AttackContext{
		Attacker: p.Unit,
		Target:   opp.Unit,
		Collision: &models.CollisionContext{
			AttackerSpeed: p.Unit.Speed,
			TargetSpeed:   opp.Unit.Speed,
			MutualDamage:  mutual,
		},
	}
	finishAction(r, p, game.ModeCollision, ctx)
}

func finishAction(r *Room, p *Player, mode game.Mode, ctx *models.AttackContext) {
	opp := r.opponent(p)
	res, err := r.Resolver.Resolve(mode, ctx)
	if err != nil {
		log.Warn().Err(err).Str("room", r.ID).Str("mode", string(mode)).Msg("resolution failed")
		sendError(p, err.Error())
		if res != nil {
			sendTo(p, wsMsg{Type: "result", Data: res})
		}
		return
	}

	stats.Record(p.Name, res)
	for _, u := range []*models.Combatant{p.Unit, opp.Unit} {
		if err := db.SaveCombatant(u); err != nil {
			log.Warn().Err(err).Str("id", u.ID).Msg("save combatant")
		}
	}

	broadcast(r, wsMsg{Type: "result", Data: res})
	for _, line := range res.Logs {
		broadcast(r, wsMsg{Type: "log", Data: line})
	}

	switch {
	case opp.Unit.Destroyed || opp.Unit.HP <= opp.Unit.Floor():
		r.Finished = true
		r.Winner = p.ID
		broadcast(r, wsMsg{Type: "log", Data: fmt.Sprintf("%s wins the duel", p.Name)})
	case p.Unit.Destroyed:
		// A mutual ram can take the attacker down too.
		r.Finished = true
		r.Winner = opp.ID
		broadcast(r, wsMsg{Type: "log", Data: fmt.Sprintf("%s wins the duel", opp.Name)})
	default:
		r.Turn = opp.ID
	}
	broadcastState(r)
}
