package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/manucorporat/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestStreamRatesUntilClientLeaves(t *testing.T) {
	h := newHarness(t)

	// the configured interval is seconds, so only the immediate event fits before the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/market-rates/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events, e := sse.Decode(w.Body)
	require.NoError(t, e)
	require.Len(t, events, 1)
	assert.Equal(t, ratesEvent, events[0].Event)

	data, ok := events[0].Data.(string)
	require.True(t, ok)
	rates := gjson.Get(data, "rates")
	// no order books: only XLM/TZS has a mid (the fallback), so only it gets an inverse
	assert.Equal(t, int64(4), gjson.Get(data, "rates.#").Int())
	assert.Equal(t, "1000", rates.Get(`#(pair=="XLM/TZS").mid`).String())
}
