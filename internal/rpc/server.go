//go:build !windows

package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Handler dispatches the non-Exec request types the host understands; the
// Server runs Exec requests itself through os/exec. The CLI's host-side
// handler implements this to route SetStatus into the state store, Merge
// into git, and Notify into the host's sound player.
type Handler interface {
	HandleSetStatus(req SetStatusRequest) (OutputResponse, error)
	HandleMerge(req MergeRequest) (OutputResponse, error)
	HandleNotify(req NotifyRequest) (OutputResponse, error)
}

// Server accepts guest connections on a loopback TCP listener and
// dispatches authenticated requests to a Handler.
type Server struct {
	token   string
	handler Handler
	ln      net.Listener

	mu      sync.Mutex
	execing map[net.Conn]*exec.Cmd
}

// NewServer constructs a Server bound to addr (use "127.0.0.1:0" to let
// the OS pick a free port) authenticating connections with token.
func NewServer(addr, token string, handler Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding rpc listener: %w", err)
	}
	return &Server{token: token, handler: handler, ln: ln, execing: make(map[net.Conn]*exec.Cmd)}, nil
}

// Addr returns the bound address, including the OS-assigned port when
// the server was created with port 0.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error { return s.ln.Close() }

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)

	tokenFrame, err := ReadFrame(reader)
	if err != nil {
		slog.Warn("rpc: reading auth frame failed", "error", err)
		return
	}
	if string(tokenFrame) != s.token {
		_ = WriteJSON(conn, Envelope{Type: TypeError})
		slog.Warn("rpc: auth token mismatch, closing connection", "remote", conn.RemoteAddr())
		return
	}

	for {
		var env Envelope
		if err := ReadJSON(reader, &env); err != nil {
			return // client closed, or transport error: nothing more to do
		}
		s.dispatch(conn, reader, env)
	}
}

func (s *Server) dispatch(conn net.Conn, reader *bufio.Reader, env Envelope) {
	switch env.Type {
	case TypeExec:
		var req ExecRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			s.writeError(conn, err)
			return
		}
		s.runExec(conn, reader, req)
	case TypeSetStatus:
		var req SetStatusRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			s.writeError(conn, err)
			return
		}
		resp, err := s.handler.HandleSetStatus(req)
		s.writeResultOrError(conn, resp, err)
	case TypeMerge:
		var req MergeRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			s.writeError(conn, err)
			return
		}
		resp, err := s.handler.HandleMerge(req)
		s.writeResultOrError(conn, resp, err)
	case TypeNotify:
		var req NotifyRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			s.writeError(conn, err)
			return
		}
		resp, err := s.handler.HandleNotify(req)
		s.writeResultOrError(conn, resp, err)
	default:
		s.writeError(conn, fmt.Errorf("unknown request type %q", env.Type))
	}
}

func (s *Server) writeError(conn net.Conn, err error) {
	_ = WriteJSON(conn, envelopeFor(TypeError, ErrorResponse{Message: err.Error()}))
}

func (s *Server) writeResultOrError(conn net.Conn, resp OutputResponse, err error) {
	if err != nil {
		s.writeError(conn, err)
		return
	}
	_ = WriteJSON(conn, envelopeFor(TypeOutput, resp))
}

func envelopeFor(typ string, v interface{}) Envelope {
	data, _ := json.Marshal(v)
	return Envelope{Type: typ, Payload: data}
}

// runExec spawns cmd.Args in its own process group so that a guest
// disconnect can be translated into killing the whole group rather than
// leaking an orphaned child, then streams stdout/stderr frames until the
// process exits.
func (s *Server) runExec(conn net.Conn, reader *bufio.Reader, req ExecRequest) {
	cmd := exec.Command(req.Cmd, req.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.writeError(conn, err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.writeError(conn, err)
		return
	}
	if err := cmd.Start(); err != nil {
		s.writeError(conn, err)
		return
	}

	s.mu.Lock()
	s.execing[conn] = cmd
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.execing, conn)
		s.mu.Unlock()
	}()

	// The client sends nothing further on this connection until the exec
	// finishes, so the connection closing here (EOF) means the guest went
	// away — e.g. ^C closing the socket — and the process should be
	// cancelled rather than left running unobserved. Polled with a short
	// read deadline, not a single blocking Read, so this goroutine is
	// guaranteed to have released the shared reader before the exec
	// dispatch returns and the main handleConn loop reads from it again.
	watchDone := make(chan struct{})
	watcherExited := make(chan struct{})
	go func() {
		defer close(watcherExited)
		buf := make([]byte, 1)
		for {
			select {
			case <-watchDone:
				return
			default:
			}
			_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
			if _, err := reader.Read(buf); err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				s.CancelExec(conn)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go s.streamTo(conn, stdout, TypeExecOut, &wg)
	go s.streamTo(conn, stderr, TypeExecErr, &wg)
	wg.Wait()
	close(watchDone)
	<-watcherExited
	_ = conn.SetReadDeadline(time.Time{})

	code := 1
	if err := cmd.Wait(); err == nil {
		code = 0
	} else if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	}
	_ = WriteJSON(conn, envelopeFor(TypeExecExit, ExecExitResponse{Code: code}))
}

// streamTo relays an Exec pipe to conn as output frames. A write failure
// means the guest end of conn is gone (the client closed the socket on
// ^C); rather than keep reading from the child until it exits on its own,
// that's the signal to cancel the in-flight process.
func (s *Server) streamTo(conn net.Conn, r interface{ Read([]byte) (int, error) }, typ string, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if werr := WriteJSON(conn, envelopeFor(typ, ExecOutputResponse{Data: chunk})); werr != nil {
				s.CancelExec(conn)
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// CancelExec kills the process group associated with conn's in-flight
// Exec, if any. Called when the server detects the guest has disconnected
// (client ^C closing the socket).
func (s *Server) CancelExec(conn net.Conn) {
	s.mu.Lock()
	cmd, ok := s.execing[conn]
	s.mu.Unlock()
	if !ok || cmd.Process == nil {
		return
	}
	if err := unix.Kill(-cmd.Process.Pid, unix.SIGTERM); err != nil {
		slog.Warn("rpc: failed to signal exec process group", "pid", cmd.Process.Pid, "error", err)
	}
}
