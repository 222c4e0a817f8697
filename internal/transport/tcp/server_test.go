package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/turnrelay/internal/entity"
	"github.com/rocketscienceinc/turnrelay/internal/matchmaking"
	"github.com/rocketscienceinc/turnrelay/internal/usecase"
)

const ioTimeout = 5 * time.Second

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func startServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := discardLogger()
	server := New(logger, usecase.NewGameManager(logger, matchmaking.NewStore(), nil, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Serve(ctx, listener)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(ioTimeout):
			t.Error("server did not stop")
		}
	})

	return listener.Addr().String()
}

func dial(t *testing.T, addr string) *testClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, ioTimeout)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

// get sends one request in a single write and reads its response.
func (c *testClient) get(target string) (int, []byte) {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetDeadline(time.Now().Add(ioTimeout)))

	_, err := c.conn.Write([]byte("GET " + target + " HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(c.t, err)

	resp, err := http.ReadResponse(c.reader, nil)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	assert.Equal(c.t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(c.t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(c.t, "keep-alive", resp.Header.Get("Connection"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	assert.EqualValues(c.t, len(body), resp.ContentLength)

	return resp.StatusCode, body
}

func TestServer_Scenarios(t *testing.T) {
	addr := startServer(t)
	alice := dial(t, addr)
	bob := dial(t, addr)
	carol := dial(t, addr)

	// Scenario: register
	status, body := alice.get("/register")
	require.Equal(t, http.StatusOK, status)
	assert.Regexp(t, `^\{"playerId":"user_[0-9a-f]{8}"\}$`, string(body))

	// Scenario: alice waits
	status, body = alice.get("/pairme?player=alice")
	require.Equal(t, http.StatusOK, status)

	var waiting entity.Game
	require.NoError(t, json.Unmarshal(body, &waiting))
	assert.Equal(t, entity.StatusWaiting, waiting.State)

	// Scenario: bob is matched with alice, and alice sees it
	status, body = bob.get("/pairme?player=bob")
	require.Equal(t, http.StatusOK, status)

	var paired entity.Game
	require.NoError(t, json.Unmarshal(body, &paired))
	assert.Equal(t, waiting.ID, paired.ID)
	assert.Equal(t, entity.StatusInProgress, paired.State)
	assert.Equal(t, "alice", paired.Player1)
	assert.Equal(t, "bob", paired.Player2)

	_, body = alice.get("/pairme?player=alice")
	assert.JSONEq(t, mustJSON(t, paired), string(body))

	// Moves are relayed across connections
	status, _ = alice.get("/mymove?player=alice&id=" + paired.ID + "&move=e2e4")
	require.Equal(t, http.StatusOK, status)

	status, body = bob.get("/theirmove?player=bob&id=" + paired.ID)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"move":"e2e4"}`, string(body))

	// Scenario: a stranger is forbidden
	status, _ = carol.get("/mymove?player=carol&id=" + paired.ID + "&move=x")
	assert.Equal(t, http.StatusForbidden, status)

	// Scenario: alice quits
	status, _ = alice.get("/quit?player=alice&id=" + paired.ID)
	require.Equal(t, http.StatusOK, status)

	status, body = bob.get("/theirmove?player=bob&id=" + paired.ID)
	require.Equal(t, http.StatusGone, status)
	assert.JSONEq(t, `{"message":"Game has ended.","gameEnded":true}`, string(body))

	status, _ = bob.get("/mymove?player=bob&id=" + paired.ID + "&move=x")
	assert.Equal(t, http.StatusNotFound, status)

	// Scenario: unknown endpoint
	status, body = carol.get("/unknown")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"message":"Invalid endpoint."}`, string(body))
}

func TestServer_MalformedRequestClosesOnlyThatConnection(t *testing.T) {
	addr := startServer(t)
	broken := dial(t, addr)
	healthy := dial(t, addr)

	require.NoError(t, broken.conn.SetDeadline(time.Now().Add(ioTimeout)))

	_, err := broken.conn.Write([]byte("GARBAGE\r\n"))
	require.NoError(t, err)

	// Then: the server closes the broken connection without a response
	_, err = broken.reader.ReadByte()
	require.ErrorIs(t, err, io.EOF)

	// And: other connections keep working
	status, _ := healthy.get("/register")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_RequestSplitAcrossWrites(t *testing.T) {
	addr := startServer(t)
	client := dial(t, addr)

	require.NoError(t, client.conn.SetDeadline(time.Now().Add(ioTimeout)))

	// Given: a request line delivered in two writes
	_, err := client.conn.Write([]byte("GET /regi"))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = client.conn.Write([]byte("ster HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	// Then: the server waits for the line terminator and answers once
	resp, err := http.ReadResponse(client.reader, nil)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Regexp(t, `^\{"playerId":"user_[0-9a-f]{8}"\}$`, string(body))

	// And: nothing else is buffered, the next request is answered normally
	status, body := client.get("/pairme?player=alice")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"player1":"alice"`)
}

func TestServer_BlankLineClosesOnlyThatConnection(t *testing.T) {
	addr := startServer(t)
	blank := dial(t, addr)
	healthy := dial(t, addr)

	require.NoError(t, blank.conn.SetDeadline(time.Now().Add(ioTimeout)))

	// When: a client sends only a line terminator
	_, err := blank.conn.Write([]byte("\r\n"))
	require.NoError(t, err)

	// Then: its connection is closed without a response
	_, err = blank.reader.ReadByte()
	require.ErrorIs(t, err, io.EOF)

	// And: other connections keep working
	status, _ := healthy.get("/register")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_ClientDisconnect(t *testing.T) {
	addr := startServer(t)

	// Given: a client that connects and leaves without sending anything
	quiet := dial(t, addr)
	require.NoError(t, quiet.conn.Close())

	// Then: the server keeps accepting
	status, _ := dial(t, addr).get("/register")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_StopsOnContextCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := discardLogger()
	server := New(logger, usecase.NewGameManager(logger, matchmaking.NewStore(), nil, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Serve(ctx, listener)
	}()

	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(ioTimeout):
		t.Fatal("server did not stop")
	}
}

func TestServer_StartFailsOnBusyAddress(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = listener.Close()
	})

	logger := discardLogger()
	server := New(logger, usecase.NewGameManager(logger, matchmaking.NewStore(), nil, 0))

	err = server.Start(context.Background(), listener.Addr().String())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestServeConn_KeepAliveOverPipe(t *testing.T) {
	logger := discardLogger()
	server := New(logger, usecase.NewGameManager(logger, matchmaking.NewStore(), nil, 0))

	client, peer := net.Pipe()
	done := make(chan error, 1)

	go func() {
		done <- server.serveConn(context.Background(), peer)
	}()

	reader := bufio.NewReader(client)
	for _, target := range []string{"/register", "/pairme?player=alice", "/nope"} {
		_, err := client.Write([]byte("GET " + target + " HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)

		resp, err := http.ReadResponse(reader, nil)
		require.NoError(t, err)
		_, err = io.Copy(io.Discard, resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
	}

	require.NoError(t, client.Close())
	require.NoError(t, <-done)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return string(b)
}
