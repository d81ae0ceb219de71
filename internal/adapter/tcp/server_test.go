package tcp

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*Server, context.CancelFunc, <-chan error) {
	t.Helper()
	srv := NewServer("127.0.0.1:0", newSessionLedger(t), 0, 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil },
		2*time.Second, 10*time.Millisecond, "server never bound")
	return srv, cancel, done
}

func dialFramer(t *testing.T, srv *Server) *Framer {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewFramer(conn, 0)
}

func TestServer_ServesConcurrentSessions(t *testing.T) {
	srv, cancel, done := startServer(t)
	defer cancel()

	// Several clients register distinct accounts at once; each session gets
	// its own state machine over the shared ledger.
	const clients = 4
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fr := dialFramer(t, srv)
			digit := string(rune('0' + i))

			expectMsg(t, fr, msgTopMenu)
			sendMsg(t, fr, "1")
			expectMsg(t, fr, msgPromptName)
			sendMsg(t, fr, "User"+digit)
			expectMsg(t, fr, msgPromptPPS)
			sendMsg(t, fr, "123456"+digit+"AB")
			expectMsg(t, fr, msgPromptEmail)
			sendMsg(t, fr, "user"+digit+"@bank.com")
			expectMsg(t, fr, msgPromptPassword)
			sendMsg(t, fr, "secret")
			expectMsg(t, fr, msgPromptAddress)
			sendMsg(t, fr, "1 Main Street")
			expectMsg(t, fr, msgPromptBalance)
			sendMsg(t, fr, "100")
			expectMsg(t, fr, msgRegistered)

			expectMsg(t, fr, msgGoBack)
			sendMsg(t, fr, "done")
			expectMsg(t, fr, msgLogout)
			expectClosed(t, fr)
		}(i)
	}
	wg.Wait()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ShutdownStopsAccepting(t *testing.T) {
	srv, cancel, done := startServer(t)
	addr := srv.Addr().String()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err, "listener should be closed")
}
