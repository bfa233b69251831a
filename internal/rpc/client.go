package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// Client is the guest-side connection to the sandbox supervisor's RPC
// server, used by workmux commands running with WM_SANDBOX_GUEST=1.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to host:port and authenticates with token.
func Dial(host string, port int, token string) (*Client, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("dialing rpc host: %w", err)
	}
	if err := WriteFrame(conn, []byte(token)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending auth token: %w", err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// DialFromEnv builds a Client from the WM_RPC_HOST/WM_RPC_PORT/WM_RPC_TOKEN
// environment variables the supervisor injects into the guest.
func DialFromEnv() (*Client, error) {
	host := os.Getenv("WM_RPC_HOST")
	portStr := os.Getenv("WM_RPC_PORT")
	token := os.Getenv("WM_RPC_TOKEN")
	if host == "" || portStr == "" || token == "" {
		return nil, fmt.Errorf("WM_RPC_HOST/WM_RPC_PORT/WM_RPC_TOKEN not set: not running inside a sandbox guest")
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return nil, fmt.Errorf("parsing WM_RPC_PORT %q: %w", portStr, err)
	}
	return Dial(host, port, token)
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) send(typ string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return WriteJSON(c.conn, Envelope{Type: typ, Payload: data})
}

func (c *Client) recv() (Envelope, error) {
	var env Envelope
	err := ReadJSON(c.reader, &env)
	return env, err
}

// SetStatus reports a lifecycle transition to the host.
func (c *Client) SetStatus(status string) error {
	if err := c.send(TypeSetStatus, SetStatusRequest{Status: status}); err != nil {
		return err
	}
	return c.expectOk()
}

// Merge asks the host to perform a merge.
func (c *Client) Merge(req MergeRequest) (string, error) {
	if err := c.send(TypeMerge, req); err != nil {
		return "", err
	}
	env, err := c.recv()
	if err != nil {
		return "", err
	}
	return decodeOutputOrError(env)
}

// Notify asks the host to alert the user.
func (c *Client) Notify(message string) error {
	if err := c.send(TypeNotify, NotifyRequest{Message: message}); err != nil {
		return err
	}
	return c.expectOk()
}

func (c *Client) expectOk() error {
	env, err := c.recv()
	if err != nil {
		return err
	}
	_, err = decodeOutputOrError(env)
	return err
}

func decodeOutputOrError(env Envelope) (string, error) {
	switch env.Type {
	case TypeOutput:
		var resp OutputResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return "", err
		}
		return resp.Message, nil
	case TypeError:
		var resp ErrorResponse
		_ = json.Unmarshal(env.Payload, &resp)
		return "", fmt.Errorf("host error: %s", resp.Message)
	default:
		return "", fmt.Errorf("unexpected response type %q", env.Type)
	}
}

// ExecStream carries the result of a streamed Exec call: Stdout and
// Stderr receive output as it arrives, and Done receives the exit code
// once ExecExit is received. The exit code is sent on Done before Stdout
// and Stderr are closed, so the caller consumes Stdout and Stderr until
// both channels close, then reads Done.
type ExecStream struct {
	Stdout <-chan []byte
	Stderr <-chan []byte
	Done   <-chan int
	errc   <-chan error
}

// Err returns the transport error, if any, that ended the stream early.
func (e *ExecStream) Err() error {
	select {
	case err := <-e.errc:
		return err
	default:
		return nil
	}
}

// Exec asks the host to run cmd/args, returning channels that stream
// output until the remote process exits.
func (c *Client) Exec(cmd string, args []string) (*ExecStream, error) {
	if err := c.send(TypeExec, ExecRequest{Cmd: cmd, Args: args}); err != nil {
		return nil, err
	}

	stdout := make(chan []byte, 16)
	stderr := make(chan []byte, 16)
	done := make(chan int, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(stdout)
		defer close(stderr)
		defer close(done)
		for {
			env, err := c.recv()
			if err != nil {
				errc <- err
				done <- exitCodeOnTransportError
				return
			}
			switch env.Type {
			case TypeExecOut:
				var resp ExecOutputResponse
				_ = json.Unmarshal(env.Payload, &resp)
				stdout <- resp.Data
			case TypeExecErr:
				var resp ExecOutputResponse
				_ = json.Unmarshal(env.Payload, &resp)
				stderr <- resp.Data
			case TypeExecExit:
				var resp ExecExitResponse
				_ = json.Unmarshal(env.Payload, &resp)
				done <- resp.Code
				return
			case TypeError:
				var resp ErrorResponse
				_ = json.Unmarshal(env.Payload, &resp)
				errc <- fmt.Errorf("host error: %s", resp.Message)
				done <- exitCodeOnTransportError
				return
			}
		}
	}()

	return &ExecStream{Stdout: stdout, Stderr: stderr, Done: done, errc: errc}, nil
}

// exitCodeOnTransportError is returned via ExecStream.Done when the
// connection fails before the remote process's real exit code arrives.
const exitCodeOnTransportError = 1
