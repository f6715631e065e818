package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"everyone-bot/internal/config"
	"everyone-bot/internal/infra/memory"
)

const testToken = "123:TEST"

// fakeAPI is a minimal Bot API server. getUpdates serves queued batches,
// then empty batches after a short wait.
type fakeAPI struct {
	mu       sync.Mutex
	requests map[string][]url.Values

	pending  []tgbotapi.Update // returned for offset=-1
	batches  [][]tgbotapi.Update
	conflict bool
	failAt   int // 1-based getUpdates poll that answers 502; 0 never fails
	polls    int
	admins   []tgbotapi.ChatMember
	reported int
	sendErr  string
	msgID    int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{requests: map[string][]url.Values{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := path.Base(r.URL.Path)

	f.mu.Lock()
	f.requests[method] = append(f.requests[method], r.PostForm)
	f.mu.Unlock()

	switch method {
	case "getMe":
		writeOK(w, tgbotapi.User{ID: 1, IsBot: true, FirstName: "Everyone", UserName: "everyone_bot"})
	case "deleteWebhook", "setWebhook":
		writeOK(w, true)
	case "getUpdates":
		f.mu.Lock()
		if f.conflict {
			f.mu.Unlock()
			writeErr(w, http.StatusConflict, "Conflict: terminated by other getUpdates request; make sure that only one bot instance is running")
			return
		}
		if r.PostForm.Get("offset") == "-1" {
			out := f.pending
			if len(out) > 1 {
				out = out[len(out)-1:]
			}
			f.mu.Unlock()
			writeOK(w, nonNil(out))
			return
		}
		f.polls++
		if f.failAt > 0 && f.polls >= f.failAt {
			f.mu.Unlock()
			writeErr(w, http.StatusBadGateway, "Bad Gateway")
			return
		}
		if len(f.batches) > 0 {
			b := f.batches[0]
			f.batches = f.batches[1:]
			f.mu.Unlock()
			writeOK(w, b)
			return
		}
		f.mu.Unlock()
		select {
		case <-r.Context().Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
		writeOK(w, []tgbotapi.Update{})
	case "sendMessage":
		f.mu.Lock()
		fail := f.sendErr
		f.msgID++
		id := f.msgID
		f.mu.Unlock()
		if fail != "" {
			writeErr(w, http.StatusBadRequest, fail)
			return
		}
		writeOK(w, map[string]any{"message_id": id, "date": 0, "chat": map[string]any{"id": 1, "type": "group"}})
	case "getChatAdministrators":
		writeOK(w, f.admins)
	case "getChatMembersCount":
		writeOK(w, f.reported)
	default:
		writeErr(w, http.StatusNotFound, "Not Found: method not found")
	}
}

func (f *fakeAPI) calls(method string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.requests[method]...)
}

func (f *fakeAPI) queue(batch ...tgbotapi.Update) {
	f.mu.Lock()
	f.batches = append(f.batches, batch)
	f.mu.Unlock()
}

func nonNil(u []tgbotapi.Update) []tgbotapi.Update {
	if u == nil {
		return []tgbotapi.Update{}
	}
	return u
}

func writeOK(w http.ResponseWriter, result any) {
	raw, _ := json.Marshal(result)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": json.RawMessage(raw)})
}

func writeErr(w http.ResponseWriter, code int, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": code, "description": desc})
}

func newTestAdapter(t *testing.T, srv *httptest.Server) (*RealTelegramBotAdapter, *memory.RosterRepo) {
	t.Helper()
	roster := memory.NewRosterRepo()
	cfg := &config.BotConfig{Token: testToken, PollTimeout: 1, Workers: 1}
	a, err := NewRealTelegramBotAdapterWithEndpoint(cfg, roster, nil, srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	t.Cleanup(a.Stop)
	return a, roster
}

func groupMessage(updateID int, chatID int64, from tgbotapi.User, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: updateID * 10,
		From:      &from,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "supergroup", Title: "test"},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, c := range text {
			if c == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{UpdateID: updateID, Message: msg}
}
