package rpc

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubHandler struct{}

func (stubHandler) HandleSetStatus(req SetStatusRequest) (OutputResponse, error) {
	return OutputResponse{Message: "status set to " + req.Status}, nil
}

func (stubHandler) HandleMerge(req MergeRequest) (OutputResponse, error) {
	return OutputResponse{Message: "merged " + req.Name}, nil
}

func (stubHandler) HandleNotify(req NotifyRequest) (OutputResponse, error) {
	return OutputResponse{Message: "notified"}, nil
}

func startTestServer(t *testing.T, token string) (*Server, func()) {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", token, stubHandler{})
	require.NoError(t, err)
	go srv.Serve() //nolint:errcheck
	return srv, func() { _ = srv.Close() }
}

func TestClientServerAuthAndSetStatus(t *testing.T) {
	srv, stop := startTestServer(t, "secret-token")
	defer stop()

	host, portStr, err := net.SplitHostPort(srv.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := Dial(host, port, "secret-token")
	require.NoError(t, err)
	defer client.Close()

	err = client.SetStatus("working")
	require.NoError(t, err)
}

func TestClientRejectedOnWrongToken(t *testing.T) {
	srv, stop := startTestServer(t, "right-token")
	defer stop()

	host, portStr, _ := net.SplitHostPort(srv.Addr().String())
	port, _ := strconv.Atoi(portStr)

	client, err := Dial(host, port, "wrong-token")
	require.NoError(t, err) // auth failure surfaces on first request, not dial

	err = client.SetStatus("working")
	require.Error(t, err)
}

func TestClientExecStreamsAndExits(t *testing.T) {
	srv, stop := startTestServer(t, "secret-token")
	defer stop()

	host, portStr, _ := net.SplitHostPort(srv.Addr().String())
	port, _ := strconv.Atoi(portStr)

	client, err := Dial(host, port, "secret-token")
	require.NoError(t, err)
	defer client.Close()

	stream, err := client.Exec("echo", []string{"hello"})
	require.NoError(t, err)

	var collected []byte
	timeout := time.After(5 * time.Second)
loop:
	for {
		select {
		case chunk, ok := <-stream.Stdout:
			if !ok {
				stream.Stdout = nil
				continue
			}
			collected = append(collected, chunk...)
		case code, ok := <-stream.Done:
			if ok {
				require.Equal(t, 0, code)
			}
			// Done is sent before Stdout closes; collect what is left.
			if stream.Stdout != nil {
				for chunk := range stream.Stdout {
					collected = append(collected, chunk...)
				}
			}
			break loop
		case <-timeout:
			t.Fatal("timed out waiting for exec stream to complete")
		}
	}
	require.Contains(t, string(collected), "hello")
}
