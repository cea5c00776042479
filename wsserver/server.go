// Package wsserver is a background-worker adapter that streams
// per-catchment, per-stage progress beacons to a browser client over a
// websocket, mirroring the "reading/computing/writing" granularity of
// spec.md §5's suspension-points note.
package wsserver

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"hydroterrain/config"
	"hydroterrain/engine"
	"hydroterrain/export"
	"hydroterrain/raster"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Beacon is one progress update pushed to connected clients.
type Beacon struct {
	Catchment string `json:"catchment"`
	Stage     string `json:"stage"`
	Message   string `json:"message"`
}

// Server holds the set of connected clients and the config used to drive
// the engine for each requested catchment.
type Server struct {
	Config config.Config

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// New returns a Server ready to register its handlers.
func New(cfg config.Config) *Server {
	return &Server{Config: cfg, clients: make(map[*websocket.Conn]*sync.Mutex)}
}

// Handler returns the "/ws" handler: it upgrades the connection, registers
// the client, and waits for a {"path": "..."} request naming a GeoTIFF to
// process, streaming a Beacon at every pipeline stage boundary.
func (s *Server) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("wsserver: upgrade error:", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = connMutex
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	for {
		var req struct {
			Path string `json:"path"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			log.Println("wsserver: read error:", err)
			return
		}
		s.processAndStream(conn, connMutex, req.Path)
	}
}

func (s *Server) send(conn *websocket.Conn, mu *sync.Mutex, beacon Beacon) {
	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteJSON(beacon); err != nil {
		log.Println("wsserver: write error:", err)
	}
}

func (s *Server) processAndStream(conn *websocket.Conn, mu *sync.Mutex, path string) {
	id := path
	beacon := func(stage, message string) { s.send(conn, mu, Beacon{Catchment: id, Stage: stage, Message: message}) }

	beacon("reading", "decoding GeoTIFF")
	dem, err := raster.ReadGeoTIFF(path)
	if err != nil {
		beacon("failed", err.Error())
		return
	}

	eng := engine.New(id, s.Config)
	beacon("computing", "loading DEM")
	if err := eng.LoadDEM(dem.Width, dem.Height, dem.CellSize, dem.Elevations); err != nil {
		beacon("failed", err.Error())
		return
	}

	beacon("computing", "conditioning")
	if err := eng.Condition("fill", s.Config.SinkFillEpsilon); err != nil {
		beacon("failed", err.Error())
		return
	}

	beacon("computing", "routing and accumulating")
	if err := eng.ComputeFlow(); err != nil {
		beacon("failed", err.Error())
		return
	}

	beacon("computing", "extracting streams and visualization data")
	bundle, err := export.BuildBundle(eng, s.Config, 0)
	if err != nil {
		beacon("failed", err.Error())
		return
	}

	beacon("writing", "sending bundle")
	mu.Lock()
	err = conn.WriteJSON(bundle)
	mu.Unlock()
	if err != nil {
		log.Println("wsserver: write bundle error:", err)
		return
	}

	beacon("done", "")
}
