package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin", body["username"])
		assert.Equal(t, "secret", body["password"])

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)
	token, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestLoginSessionHandleFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"sessionHandle": "handle-9"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)
	token, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "handle-9", token)
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]int64{"chatId": 7})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)
	c.SetToken("tok-123")
	_, err := c.CreateChat(context.Background(), 0, 0)
	require.NoError(t, err)
}

func TestCreateChatBody(t *testing.T) {
	tests := []struct {
		name       string
		incidentID int64
		objectID   int64
		wantBody   string
	}{
		{"no scope omits body", 0, 0, ""},
		{"incident scope", 42, 0, `{"incidentId":42}`},
		{"object scope", 0, 13, `{"objectId":13}`},
		{"incident wins over object", 42, 13, `{"incidentId":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, _ := io.ReadAll(r.Body)
				got = string(data)
				json.NewEncoder(w).Encode(map[string]int64{"chatId": 1})
			}))
			defer srv.Close()

			c := NewClient(srv.URL, false, nil)
			id, err := c.CreateChat(context.Background(), tt.incidentID, tt.objectID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
			if tt.wantBody == "" {
				assert.Empty(t, got)
			} else {
				assert.JSONEq(t, tt.wantBody, got)
			}
		})
	}
}

func TestSendMessageAttachesContextOnlyWhenSet(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/ai/chat/7/message", r.URL.Path)
		got = nil
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ChatResponse{Response: "hello"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)

	resp, err := c.SendMessage(context.Background(), 7, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Response)
	_, hasContext := got["context"]
	assert.False(t, hasContext)

	_, err = c.SendMessage(context.Background(), 7, "hi", map[string]int64{"objectId": 99})
	require.NoError(t, err)
	ctxField, hasContext := got["context"]
	require.True(t, hasContext)
	assert.Equal(t, map[string]interface{}{"objectId": float64(99)}, ctxField)
}

func TestSendMessagePendingQuestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "Are you sure?",
			"pendingQuestion": map[string]interface{}{
				"id":               5,
				"type":             "confirmation",
				"confirmationType": 1,
				"text":             "Restart node?",
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)
	resp, err := c.SendMessage(context.Background(), 1, "restart it", nil)
	require.NoError(t, err)
	require.NotNil(t, resp.PendingQuestion)
	assert.Equal(t, int64(5), resp.PendingQuestion.ID)
	assert.Equal(t, ConfirmYesNo, resp.PendingQuestion.ConfirmationType)
	assert.False(t, resp.PendingQuestion.IsMultipleChoice())
}

func TestPollQuestion(t *testing.T) {
	pending := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/ai/chat/2/question", r.URL.Path)
		if pending {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"question": map[string]interface{}{
					"id":      8,
					"type":    "multipleChoice",
					"text":    "Pick",
					"options": []string{"a", "b"},
				},
			})
		} else {
			json.NewEncoder(w).Encode(map[string]interface{}{})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)

	q, err := c.PollQuestion(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, q)

	pending = true
	q, err = c.PollQuestion(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, int64(8), q.ID)
	assert.True(t, q.IsMultipleChoice())
	assert.Equal(t, []string{"a", "b"}, q.Options)
}

func TestAnswerQuestionPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/ai/chat/3/answer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)
	require.NoError(t, c.AnswerQuestion(context.Background(), 3, 11, true, 2))
	assert.Equal(t, float64(11), got["questionId"])
	assert.Equal(t, true, got["positive"])
	assert.Equal(t, float64(2), got["selectedOption"])
}

func TestDeleteChat(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)
	require.NoError(t, c.DeleteChat(context.Background(), 12))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/v1/ai/chat/12", path)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		wantIs   error
		wantText string
	}{
		{http.StatusUnauthorized, `{"reason":"bad credentials"}`, ErrAuth, "bad credentials"},
		{http.StatusForbidden, `{"error":"no AI access"}`, ErrAccessDenied, "no AI access"},
		{http.StatusInternalServerError, "boom", nil, "boom"},
		{http.StatusBadGateway, "", nil, "HTTP 502"},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			io.WriteString(w, tt.body)
		}))

		c := NewClient(srv.URL, false, nil)
		_, err := c.CreateChat(context.Background(), 0, 0)
		require.Error(t, err)

		var se *ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, tt.status, se.StatusCode)
		assert.Equal(t, tt.wantText, err.Error())
		if tt.wantIs != nil {
			assert.ErrorIs(t, err, tt.wantIs)
		}
		srv.Close()
	}
}

func TestFindObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body["name"] {
		case "core-router":
			json.NewEncoder(w).Encode([]Object{{ID: 101, Name: "core-router", Class: "Node"}})
		case "wrapped":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"objects": []Object{{ID: 202, Name: "wrapped"}},
			})
		case "empty":
			json.NewEncoder(w).Encode([]Object{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)

	obj, err := c.FindObject(context.Background(), "core-router")
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, int64(101), obj.ID)

	obj, err = c.FindObject(context.Background(), "wrapped")
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, int64(202), obj.ID)

	obj, err = c.FindObject(context.Background(), "empty")
	require.NoError(t, err)
	assert.Nil(t, obj)

	obj, err = c.FindObject(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestCancellationPassesThrough(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(srv.URL, false, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.SendMessage(ctx, 1, "hi", nil)
		done <- err
	}()
	cancel()
	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
