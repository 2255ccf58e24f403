package cmd

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/support/log"
	"github.com/stretchr/testify/require"
)

func TestServeShutsDownWithOpenStream(t *testing.T) {
	l := log.New()
	l.SetLevel(logrus.ErrorLevel)
	l.SetOutput(io.Discard)

	started := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	})

	ln, e := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, e)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := newHTTPServer(ctx, ln.Addr().String(), handler, time.Second)

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, srv, ln, l)
	}()

	go func() {
		resp, e := http.Get("http://" + ln.Addr().String() + "/market-rates/stream")
		if e == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never opened")
	}
	cancel()

	select {
	case e := <-done:
		require.NoError(t, e)
	case <-time.After(shutdownTimeout / 2):
		t.Fatal("shutdown waited on the open stream")
	}
}
