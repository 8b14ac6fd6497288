package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(42), body["chat_id"])
		require.Equal(t, "hello", body["text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "TOKEN")
	require.NoError(t, c.SendMessage(context.Background(), 42, "hello"))
}

func TestClient_SendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "TOKEN")
	err := c.SendMessage(context.Background(), 1, "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")
}

func TestClient_GetUpdates_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botTOKEN/getUpdates", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(7), body["offset"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":[
  {"update_id":7,"message":{"message_id":1,"chat":{"id":42},"text":"/start"}},
  {"update_id":8,"message":{"message_id":2,"chat":{"id":42},"text":"https://shop.example/p1"}}
]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "TOKEN")
	ups, err := c.GetUpdates(context.Background(), 7, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, ups, 2)
	require.Equal(t, int64(7), ups[0].UpdateID)
	require.Equal(t, "/start", ups[0].Message.Text)
	require.Equal(t, int64(42), ups[1].Message.Chat.ID)
}
