package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "futuresend/internal/http"
	"futuresend/internal/http/handler"
	"futuresend/internal/model"
	"futuresend/internal/repository"
	"futuresend/internal/service"
)

type fakeMessageService struct {
	created     []service.CreateMessageInput
	createErr   error
	message     model.Message
	getErr      error
	pending     int
	pendingErr  error
	sent        service.SentMessagesResult
	dispatched  int
	dispatchErr error
}

func (f *fakeMessageService) CreateMessage(ctx context.Context, input service.CreateMessageInput) (model.Message, error) {
	if f.createErr != nil {
		return model.Message{}, f.createErr
	}
	f.created = append(f.created, input)
	return model.Message{ID: uuid.New()}, nil
}

func (f *fakeMessageService) GetMessage(ctx context.Context, id uuid.UUID) (model.Message, error) {
	return f.message, f.getErr
}

func (f *fakeMessageService) PendingCount(ctx context.Context) (int, error) {
	return f.pending, f.pendingErr
}

func (f *fakeMessageService) ListSentMessages(ctx context.Context, page, limit int) (service.SentMessagesResult, error) {
	return f.sent, nil
}

func (f *fakeMessageService) RunDispatchBatch(ctx context.Context) error {
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.dispatched++
	return nil
}

type fakeScheduler struct {
	running bool
}

func (f *fakeScheduler) Start(ctx context.Context) error { f.running = true; return nil }
func (f *fakeScheduler) Stop() error                     { f.running = false; return nil }
func (f *fakeScheduler) IsRunning() bool                 { return f.running }

func newTestServer(svc *fakeMessageService) *httptest.Server {
	control := handler.NewControlHandler(&fakeScheduler{})
	message := handler.NewMessageHandler(svc, nil)
	return httptest.NewServer(httpserver.NewRouter(control, message))
}

func errorKind(t *testing.T, body *http.Response) string {
	t.Helper()
	var resp struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body.Body).Decode(&resp))
	return resp.Error.Kind
}

func postMessage(t *testing.T, server *httptest.Server, userID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/messages", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

const validBody = `{"content":"hi","destinatary":"friend@example.com","sending_date":"2026-09-02T10:00:00Z"}`

func TestCreateMessageEndpoint(t *testing.T) {
	svc := &fakeMessageService{}
	server := newTestServer(svc)
	defer server.Close()

	resp := postMessage(t, server, uuid.NewString(), validBody)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, svc.created, 1)
	assert.Equal(t, "friend@example.com", svc.created[0].Destinatary)
	assert.Equal(t, time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC), svc.created[0].SendingDate.UTC())
}

func TestCreateMessageValidation(t *testing.T) {
	svc := &fakeMessageService{}
	server := newTestServer(svc)
	defer server.Close()

	cases := []struct {
		name   string
		userID string
		body   string
	}{
		{"MissingUserHeader", "", validBody},
		{"MalformedUserHeader", "not-a-uuid", validBody},
		{"MalformedBody", uuid.NewString(), `{`},
		{"MissingFields", uuid.NewString(), `{"content":"hi"}`},
		{"BadSendingDate", uuid.NewString(), `{"content":"hi","destinatary":"x","sending_date":"tomorrow"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postMessage(t, server, tc.userID, tc.body)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, handler.KindValidationFailed, errorKind(t, resp))
		})
	}

	assert.Empty(t, svc.created)
}

func TestCreateMessageQuotaExhausted(t *testing.T) {
	svc := &fakeMessageService{createErr: repository.ErrQuotaExhausted}
	server := newTestServer(svc)
	defer server.Close()

	resp := postMessage(t, server, uuid.NewString(), validBody)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, handler.KindQuotaExhausted, errorKind(t, resp))
}

func TestGetMessageEndpoint(t *testing.T) {
	id := uuid.New()
	svc := &fakeMessageService{message: model.Message{ID: id, Content: "hi", Destinatary: "friend@example.com"}}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Get(server.URL + "/messages/" + id.String())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var msg model.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, "hi", msg.Content)
}

func TestGetMessageNotFound(t *testing.T) {
	svc := &fakeMessageService{getErr: repository.ErrMessageNotFound}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Get(server.URL + "/messages/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, handler.KindNotFound, errorKind(t, resp))
}

func TestGetMessageMalformedID(t *testing.T) {
	server := newTestServer(&fakeMessageService{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/messages/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, handler.KindValidationFailed, errorKind(t, resp))
}

func TestPendingCountEndpoint(t *testing.T) {
	svc := &fakeMessageService{pending: 12}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Get(server.URL + "/messages/pending")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 12, body.Count)
}

func TestPendingCountInternalError(t *testing.T) {
	svc := &fakeMessageService{pendingErr: assert.AnError}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Get(server.URL + "/messages/pending")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, handler.KindInternal, errorKind(t, resp))
}

func TestRunDispatchEndpoint(t *testing.T) {
	svc := &fakeMessageService{}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Post(server.URL+"/dispatch/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.dispatched)
}

func TestControlEndpoints(t *testing.T) {
	server := newTestServer(&fakeMessageService{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/control/start", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(server.URL+"/control/stop", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
