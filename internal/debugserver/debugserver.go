// Package debugserver exposes a running risc.Machine over a WebSocket,
// the -debug-addr CLI flag's backing implementation. It mirrors the
// teacher's internal/debugger (breakpoint/state bookkeeping) and
// internal/network websocket server (accept loop, broadcast-to-clients),
// adapted from Sentra's bytecode VM to this module's RISC interpreter.
package debugserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"oberon/internal/risc"
)

// State mirrors the teacher debugger's Running/Paused/Terminated enum.
type State int

const (
	Running State = iota
	Paused
	Terminated
)

// Server attaches to one compiled program and serves its execution state
// to any number of connected WebSocket clients.
type Server struct {
	mach    *risc.Machine
	sb      int32
	upgrade websocket.Upgrader

	mu          sync.Mutex
	state       State
	breakpoints map[int32]bool
	clients     map[*websocket.Conn]bool
	resume      chan struct{}
}

// StepEvent is the JSON frame broadcast to clients after every paused
// instruction.
type StepEvent struct {
	PC    int32    `json:"pc"`
	State string   `json:"state"`
	R     [16]int32 `json:"registers"`
}

// New returns a debug server for mach, which must already hold compiled
// code; sb is the static-base boundary Interpret needs.
func New(mach *risc.Machine, sb int32) *Server {
	s := &Server{
		mach:        mach,
		sb:          sb,
		breakpoints: make(map[int32]bool),
		clients:     make(map[*websocket.Conn]bool),
		resume:      make(chan struct{}),
	}
	mach.OnStep = s.onStep
	return s
}

// onStep is risc.Machine's OnStep hook: it pauses at a breakpoint and
// blocks until a client sends "continue", mirroring the teacher's
// VMDebugHook.OnInstruction Paused case.
func (s *Server) onStep(m *risc.Machine) bool {
	s.mu.Lock()
	_, stop := s.breakpoints[m.PC]
	s.mu.Unlock()
	if !stop {
		return true
	}
	s.setState(Paused)
	s.broadcast(StepEvent{PC: m.PC, State: "paused", R: m.R})
	<-s.resume
	s.setState(Running)
	return true
}

func (s *Server) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// SetBreakpoint marks pc as a pause point.
func (s *Server) SetBreakpoint(pc int32) {
	s.mu.Lock()
	s.breakpoints[pc] = true
	s.mu.Unlock()
}

// ClearBreakpoint removes a previously set pause point.
func (s *Server) ClearBreakpoint(pc int32) {
	s.mu.Lock()
	delete(s.breakpoints, pc)
	s.mu.Unlock()
}

func (s *Server) broadcast(ev StepEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.dropClient(c)
		}
	}
}

func (s *Server) dropClient(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.Close()
}

// command is a client-to-server control message: {"cmd": "continue"}.
type command struct {
	Cmd string `json:"cmd"`
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("debugserver: upgrade: %v", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	defer s.dropClient(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		switch cmd.Cmd {
		case "continue":
			select {
			case s.resume <- struct{}{}:
			default:
			}
		}
	}
}

// ListenAndServe runs the debug server's HTTP+WebSocket endpoint at addr,
// blocking until the listener fails or the process is interrupted.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug", s.handleConn)
	fmt.Printf("debug server listening on ws://%s/debug\n", addr)
	return http.ListenAndServe(addr, mux)
}

// Run interprets the attached program to completion, pausing at each
// breakpoint inside the OnStep hook until a client sends "continue", and
// returns the final result once the program halts, traps, or aborts.
func (s *Server) Run(entry int32) risc.Result {
	res := s.mach.Interpret(s.sb, entry)
	s.setState(Terminated)
	return res
}
