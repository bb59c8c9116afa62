// Package httpd serves the album voting page, its JSON API and a websocket
// feed of leaderboard updates.
package httpd

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nacionrock/album-votes/poll"
	"github.com/nacionrock/album-votes/session"
	"github.com/nacionrock/album-votes/store"
	"github.com/nacionrock/album-votes/vote"
)

const (
	CookieName  = "album_votes_session"
	TopN        = 5
	maxTopN     = 100
	contentJSON = "application/json"
)

//go:embed html
var html embed.FS

type Server struct {
	votes    *vote.Service
	sessions *session.Manager
	hub      *Hub
	gatherer prometheus.Gatherer
	page     *template.Template
	debug    bool
}

type card struct {
	Index int
	poll.Entry
}

type view struct {
	Cards   []card
	Top     []poll.Entry
	Total   int
	Notices []session.Notice
}

type leaderboard struct {
	Top   []poll.Entry `json:"top"`
	Total int          `json:"total"`
}

type voteResponse struct {
	Registered bool   `json:"registered"`
	Album      string `json:"album,omitempty"`
	Votes      int    `json:"votes"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewServer(votes *vote.Service, sessions *session.Manager, hub *Hub, gatherer prometheus.Gatherer, debug bool) (*Server, error) {
	functions := template.FuncMap{
		"comma": func(v int) string {
			return humanize.Comma(int64(v))
		},
	}

	page, err := template.New("index.html").Funcs(functions).ParseFS(html, "html/index.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing page template (%v)", err)
	}

	s := Server{
		votes:    votes,
		sessions: sessions,
		hub:      hub,
		gatherer: gatherer,
		page:     page,
		debug:    debug,
	}

	votes.Subscribe(s.broadcast)

	return &s, nil
}

// Handler mounts all the handlers at the appropriate routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(s.logging)

	r.MethodNotAllowedHandler = s.logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}))

	// Path is matched before method so that a known path with the wrong method
	// is reported as 405 rather than 404.
	r.Path("/").Methods("GET").Name("page").HandlerFunc(s.index)
	r.Path("/vote/{index}").Methods("POST").Name("vote").HandlerFunc(s.castVote)
	r.Path("/refresh").Methods("POST").Name("refresh").HandlerFunc(s.refresh)
	r.Path("/api/results").Methods("GET").Name("results").HandlerFunc(s.results)
	r.Path("/api/entries").Methods("GET").Name("entries").HandlerFunc(s.entries)
	r.Path("/ws").Methods("GET").Name("websocket").HandlerFunc(s.stream)
	r.Path("/health").Methods("GET").Name("health").HandlerFunc(health)
	r.Path("/metrics").Methods("GET").Name("metrics").Handler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	table := s.votes.Open(r.Context(), sess)

	v := view{
		Cards:   make([]card, 0, table.Len()),
		Top:     poll.Top(table, TopN),
		Total:   poll.Total(table),
		Notices: sess.Notices(),
	}

	for i, e := range table.Entries {
		v.Cards = append(v.Cards, card{Index: i, Entry: e})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, v); err != nil {
		warnf("error rendering page (%v)", err)
	}
}

func (s *Server) castVote(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		if wantsJSON(r) {
			jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid album index '%v'", mux.Vars(r)["index"]))
		} else {
			http.Error(w, "invalid album index", http.StatusBadRequest)
		}
		return
	}

	pending := sess.Pending()
	result, err := s.votes.Vote(r.Context(), sess, index)

	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// JSON clients get the outcome in the response rather than as a notice
	sess.Discard(pending)

	switch {
	case errors.Is(err, store.ErrSave):
		jsonError(w, http.StatusBadGateway, vote.MsgNotSaved)

	case err != nil:
		jsonError(w, http.StatusBadGateway, err.Error())

	default:
		response := voteResponse{
			Registered: result.Registered,
			Album:      result.Album,
		}

		if result.Registered {
			response.Votes = result.Table.Entries[index].Votes
		}

		jsonResponse(w, http.StatusOK, response)
	}
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	s.votes.Refresh(r.Context(), sess)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	n := TopN
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 || v > maxTopN {
			jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'n' - expected a number between 1 and %v", maxTopN))
			return
		}

		n = v
	}

	sess := s.sessionFor(w, r)
	table := s.votes.Open(r.Context(), sess)

	jsonResponse(w, http.StatusOK, leaderboard{
		Top:   poll.Top(table, n),
		Total: poll.Total(table),
	})
}

func (s *Server) entries(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	table := s.votes.Open(r.Context(), sess)

	jsonResponse(w, http.StatusOK, table)
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	table := s.votes.Open(r.Context(), sess)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		warnf("websocket upgrade failed (%v)", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c, ok := s.hub.join(conn)
	if !ok {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	// current standings first, then every update after registration
	if message, err := encode(table); err != nil {
		warnf("%v", err)
	} else if err := conn.Write(ctx, websocket.MessageText, message); err != nil {
		s.hub.leave(c)
		conn.Close(websocket.StatusInternalError, "")
		return
	}

	go func() {
		c.readPump(ctx)
		cancel()
	}()

	c.writePump(ctx)
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

func (s *Server) broadcast(result vote.Result) {
	message, err := encode(result.Table)
	if err != nil {
		warnf("%v", err)
		return
	}

	s.hub.Broadcast(message)
}

// sessionFor returns the caller's session, setting the session cookie if the
// caller did not have a live session.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	id := ""
	if cookie, err := r.Cookie(CookieName); err == nil {
		id = cookie.Value
	}

	sess, created := s.sessions.Get(id)
	if created {
		if s.debug {
			debugf("new session %v", sess.ID)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return sess
}

func encode(table poll.Table) ([]byte, error) {
	b, err := json.Marshal(leaderboard{
		Top:   poll.Top(table, TopN),
		Total: poll.Total(table),
	})

	if err != nil {
		return nil, fmt.Errorf("error encoding leaderboard (%v)", err)
	}

	return b, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), contentJSON)
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		warnf("error encoding JSON response (%v)", err)
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}
