package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"match-mate/auth"
	"match-mate/domain"
	"match-mate/internal"
	"match-mate/moderation"
	"match-mate/observability"
	"match-mate/projection"
	"match-mate/repositories"
	"match-mate/runtime"
	"match-mate/search"
	"match-mate/services"
	"match-mate/transport/httpapi"
	"match-mate/transport/ws"
)

type fixture struct {
	server *httptest.Server
	issuer *auth.TokenIssuer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := internal.GetLoggerFromString("error")

	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.OpenMatchIndex(filepath.Join(t.TempDir(), "index"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry()
	router := runtime.NewRouter(log, registry, metrics)

	words, err := moderation.DefaultWords()
	require.NoError(t, err)
	moderator, err := moderation.NewModerator(words, '*')
	require.NoError(t, err)

	messageRepository := repositories.NewMessageRepository(db, log)
	profileRepository := repositories.NewProfileRepository(db, log)
	chatService := services.NewChatService(
		log, messageRepository, router, &moderator, projection.NewInbox(), metrics, 50,
	)

	issuer := auth.NewTokenIssuer([]byte("integration-secret"), time.Hour)
	authService := services.NewAuthService(profileRepository, index, issuer)
	matchService := services.NewMatchService(log, profileRepository, index, 10)
	uploadService := services.NewUploadService(log, http.DefaultClient, "http://127.0.0.1:0")

	handlers := httpapi.NewHandlers(log, authService, chatService, matchService, uploadService)
	wsHandler := ws.NewHandler(log, registry, chatService)
	engine := httpapi.NewRouter(handlers, wsHandler, issuer, db, nil)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return fixture{server: server, issuer: issuer}
}

func (f fixture) signup(t *testing.T, name string) (string, string) {
	t.Helper()
	body := fmt.Sprintf(
		`{"email":%q,"password":"S3cure!passwd","name":%q,"city":"Lyon","interests":["jazz"]}`,
		name+"@example.com", name,
	)
	resp, err := http.Post(f.server.URL+"/auth/signup", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	claims, err := f.issuer.Validate(out.Token)
	require.NoError(t, err)
	return claims.UserID, out.Token
}

func (f fixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(f.server.URL, "http://", "ws://", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	f, err := domain.NewFrame(event, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(f))
}

func readFrame(t *testing.T, conn *websocket.Conn) domain.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f domain.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func Test_Scenario(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	aliceID, aliceToken := f.signup(t, "alice")
	bobID, bobToken := f.signup(t, "bob")

	aliceConn := f.dial(t, aliceToken)
	bobConn := f.dial(t, bobToken)

	// 1. Both join under their own identity
	send(t, aliceConn, domain.EventJoin, domain.JoinPayload{User: aliceID})
	send(t, bobConn, domain.EventJoin, domain.JoinPayload{User: bobID})

	// Joins are processed asynchronously; give the sessions a beat
	time.Sleep(200 * time.Millisecond)

	// 2. Alice messages Bob
	send(t, aliceConn, domain.EventMessage, domain.MessagePayload{
		From: aliceID, To: bobID, Text: "coffee this weekend?",
	})

	frame := readFrame(t, bobConn)
	req.Equal(domain.EventMessage, frame.Event)

	var msg domain.Message
	req.NoError(json.Unmarshal(frame.Payload, &msg))
	req.Equal(aliceID, msg.From)
	req.Equal("coffee this weekend?", msg.Text)
	req.False(msg.Read)

	// 3. Bob types back, Alice sees the notice
	send(t, bobConn, domain.EventTyping, domain.TypingPayload{To: aliceID})

	frame = readFrame(t, aliceConn)
	req.Equal(domain.EventTyping, frame.Event)

	var notice domain.TypingNotice
	req.NoError(json.Unmarshal(frame.Payload, &notice))
	req.Equal(bobID, notice.From)

	// 4. Bob marks Alice's messages read; the receipt lands on Alice's socket
	send(t, bobConn, domain.EventRead, domain.ReadPayload{From: aliceID, To: bobID})

	frame = readFrame(t, aliceConn)
	req.Equal(domain.EventReadReceipt, frame.Event)

	var receipt domain.ReadReceipt
	req.NoError(json.Unmarshal(frame.Payload, &receipt))
	req.Equal(aliceID, receipt.From)
	req.Equal(bobID, receipt.To)

	// 5. The history endpoint shows the stored message as read
	historyReq, err := http.NewRequest(http.MethodGet, f.server.URL+"/history/"+bobID, nil)
	req.NoError(err)
	historyReq.Header.Set("Authorization", "Bearer "+aliceToken)

	resp, err := http.DefaultClient.Do(historyReq)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var history struct {
		Messages []domain.Message `json:"messages"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&history))
	req.Len(history.Messages, 1)
	req.True(history.Messages[0].Read)
}

func Test_Match_Endpoint(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	aliceID, aliceToken := f.signup(t, "alice")
	bobID, _ := f.signup(t, "bob")

	matchReq, err := http.NewRequest(http.MethodGet, f.server.URL+"/match/"+aliceID, nil)
	req.NoError(err)
	matchReq.Header.Set("Authorization", "Bearer "+aliceToken)

	resp, err := http.DefaultClient.Do(matchReq)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Matches []domain.Profile `json:"matches"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&out))
	req.Len(out.Matches, 1)
	req.Equal(bobID, out.Matches[0].ID)
}

func Test_Unauthenticated_Request(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/match/someone")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_Offline_Recipient_Message_Still_Stored(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	aliceID, aliceToken := f.signup(t, "alice")
	bobID, bobToken := f.signup(t, "bob")

	aliceConn := f.dial(t, aliceToken)
	send(t, aliceConn, domain.EventJoin, domain.JoinPayload{User: aliceID})
	time.Sleep(200 * time.Millisecond)

	// Bob is offline; the message is persisted anyway
	send(t, aliceConn, domain.EventMessage, domain.MessagePayload{
		From: aliceID, To: bobID, Text: "are you there?",
	})
	time.Sleep(200 * time.Millisecond)

	historyReq, err := http.NewRequest(http.MethodGet, f.server.URL+"/history/"+aliceID, nil)
	req.NoError(err)
	historyReq.Header.Set("Authorization", "Bearer "+bobToken)

	resp, err := http.DefaultClient.Do(historyReq)
	req.NoError(err)
	defer resp.Body.Close()

	var history struct {
		Messages []domain.Message `json:"messages"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&history))
	req.Len(history.Messages, 1)
	req.Equal("are you there?", history.Messages[0].Text)
}
