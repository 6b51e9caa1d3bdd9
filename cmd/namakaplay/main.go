package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	flag "github.com/spf13/pflag"

	"github.com/lanikai/namaka"
	"github.com/lanikai/namaka/internal/session"
)

// Populated via -ldflags="-X ...". See Makefile.
var GitRevisionId string
var GitTag string

var (
	flagAutoplay bool
	flagPort     int
	flagHelp     bool
	flagVersion  bool
)

func init() {
	flag.BoolVarP(&flagAutoplay, "autoplay", "a", true, "Start playback immediately")
	flag.IntVarP(&flagPort, "port", "p", 8000, "HTTP port for the control interface")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

// version displays information and exits successfully (GNU convention)
func version() {
	fmt.Println("namakaplay", GitRevisionId)
	fmt.Println("Copyright 2019 Lanikai Labs LLC. All rights reserved.")
	fmt.Println("Visit https://lanikailabs.com for more information")
}

func main() {
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}

	if flagVersion {
		version()
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		help()
		os.Exit(1)
	}
	url := flag.Arg(0)

	// Configure logging
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds)

	hub := newEventHub()

	player := namaka.NewPlayer(namaka.Config{
		OnSessionEvent: func(e session.Event) {
			hub.broadcast(map[string]string{
				"type":  "event",
				"event": e.Type.String(),
			})
		},
	})
	defer player.Shutdown()

	if err := player.Open(url); err != nil {
		log.Fatal(err)
	}
	// Playback starts when the session reports the topology ready; with
	// autoplay off, pause as soon as it does.
	if !flagAutoplay {
		go func() {
			for player.State() != namaka.StateStarted {
				time.Sleep(10 * time.Millisecond)
			}
			player.Pause()
		}()
	}

	router := http.NewServeMux()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebsocket(w, r, player, hub)
	})

	fmt.Printf("Control interface on ws://localhost:%d/ws\n", flagPort)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", flagPort), router))
}

// eventHub fans player events out to all connected control sockets.
type eventHub struct {
	sync.Mutex
	conns map[*websocket.Conn]bool
}

func newEventHub() *eventHub {
	return &eventHub{conns: make(map[*websocket.Conn]bool)}
}

func (h *eventHub) add(ws *websocket.Conn) {
	h.Lock()
	defer h.Unlock()
	h.conns[ws] = true
}

func (h *eventHub) remove(ws *websocket.Conn) {
	h.Lock()
	defer h.Unlock()
	delete(h.conns, ws)
}

func (h *eventHub) broadcast(msg map[string]string) {
	h.Lock()
	defer h.Unlock()
	for ws := range h.conns {
		if err := ws.WriteJSON(msg); err != nil {
			delete(h.conns, ws)
		}
	}
}

// handleWebsocket serves one control connection. We expect JSON messages of
// the following form:
//   { "type": "play" }
//   { "type": "pause" }
//   { "type": "stop" }
//   { "type": "resize", "width": 1280, "height": 720 }
// Every command is answered with the player's resulting state:
//   { "type": "state", "state": "Started", "error": "..." }
func handleWebsocket(w http.ResponseWriter, r *http.Request, player *namaka.Player, hub *eventHub) {
	ws, err := new(websocket.Upgrader).Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer ws.Close()

	hub.add(ws)
	defer hub.remove(ws)

	for {
		msg := struct {
			Type   string `json:"type"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		}{}
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}

		var cmdErr error
		switch msg.Type {
		case "play":
			cmdErr = player.Play()
		case "pause":
			cmdErr = player.Pause()
		case "stop":
			cmdErr = player.Stop()
		case "resize":
			cmdErr = player.Resize(msg.Width, msg.Height)
		case "repaint":
			cmdErr = player.Repaint()
		default:
			cmdErr = namaka.ErrNotSupported
		}

		reply := map[string]string{
			"type":  "state",
			"state": player.State().String(),
		}
		if cmdErr != nil {
			reply["error"] = cmdErr.Error()
		}
		if err := ws.WriteJSON(reply); err != nil {
			return
		}
	}
}
