// Package whisktest provides an in-memory platform behind an httptest server
// for tests of the REST bindings and the commands built on them.
package whisktest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wskops/wskctl/internal/config"
	"github.com/wskops/wskctl/internal/whisk"
)

const (
	User      = "23bc46b1-71f6-4ed5-8c54-816aa4f8c502"
	Password  = "123zO3xZCLrMN6v2BKK1dXYFpXlPkccOFqm12CdAsMgRU4VrNZ9lyGVCGuMDGIwP"
	Namespace = "guest"
)

// Request is one request seen by the server.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

type failure struct {
	status  int
	message string
	times   int
}

type Server struct {
	*httptest.Server

	// ActivationDelay is the number of lookups an activation created by an
	// invoke or a fire answers 404 before it becomes visible.
	ActivationDelay int

	mu          sync.Mutex
	rules       map[string]*whisk.Rule
	actions     map[string]*whisk.Action
	triggers    map[string]*whisk.Trigger
	activations []*whisk.Activation
	pending     map[string]int
	raw         map[string]string
	failures    map[string]*failure
	requests    []Request
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		rules:    make(map[string]*whisk.Rule),
		actions:  make(map[string]*whisk.Action),
		triggers: make(map[string]*whisk.Trigger),
		pending:  make(map[string]int),
		raw:      make(map[string]string),
		failures: make(map[string]*failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Config returns a client configuration pointing at the server.
func (s *Server) Config() config.Config {
	return config.Config{
		APIHost:    s.URL,
		APIVersion: "v1",
		Auth:       User + ":" + Password,
		Namespace:  Namespace,
	}
}

// Client returns a client for the server.
func (s *Server) Client(t testing.TB) *whisk.Client {
	t.Helper()
	c, err := whisk.NewClient(s.Config())
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return c
}

func (s *Server) PutRule(r whisk.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Namespace == "" {
		r.Namespace = Namespace
	}
	s.rules[r.Name] = &r
}

func (s *Server) Rule(name string) (whisk.Rule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[name]
	if !ok {
		return whisk.Rule{}, false
	}
	return *r, true
}

func (s *Server) PutAction(a whisk.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Namespace == "" {
		a.Namespace = Namespace
	}
	s.actions[a.Name] = &a
}

func (s *Server) Action(name string) (whisk.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[name]
	if !ok {
		return whisk.Action{}, false
	}
	return *a, true
}

func (s *Server) PutTrigger(tr whisk.Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr.Namespace == "" {
		tr.Namespace = Namespace
	}
	s.triggers[tr.Name] = &tr
}

// AddActivation records a, hidden for the first hiddenFor lookups by id.
func (s *Server) AddActivation(a whisk.Activation, hiddenFor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addActivationLocked(&a, hiddenFor)
}

// SetRawActivation makes lookups of id answer 200 with body as is.
func (s *Server) SetRawActivation(id, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[id] = body
}

// Activations returns the recorded activations, newest first.
func (s *Server) Activations() []whisk.Activation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]whisk.Activation, 0, len(s.activations))
	for _, a := range s.activations {
		out = append(out, *a)
	}
	return out
}

// FailNext makes the next times requests with method to a path ending in
// suffix answer status. times < 0 fails forever.
func (s *Server) FailNext(method, suffix string, status int, message string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+suffix] = &failure{status: status, message: message, times: times}
}

// Requests returns all requests seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Lookups counts requests with method whose path ends in suffix.
func (s *Server) Lookups(method, suffix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasSuffix(r.Path, suffix) {
			n++
		}
	}
	return n
}

func (s *Server) addActivationLocked(a *whisk.Activation, hiddenFor int) {
	if a.ActivationID == "" {
		a.ActivationID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if a.Namespace == "" {
		a.Namespace = Namespace
	}
	if a.Start == 0 {
		a.Start = time.Now().UnixMilli()
	}
	// newest first
	s.activations = append([]*whisk.Activation{a}, s.activations...)
	if hiddenFor > 0 {
		s.pending[a.ActivationID] = hiddenFor
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: body})

	if user, pass, ok := r.BasicAuth(); !ok || user != User || pass != Password {
		writeError(w, http.StatusUnauthorized, "The supplied authentication is invalid.")
		return
	}

	for key, f := range s.failures {
		method, suffix, _ := strings.Cut(key, " ")
		if r.Method == method && strings.HasSuffix(r.URL.Path, suffix) && f.times != 0 {
			if f.times > 0 {
				f.times--
			}
			writeError(w, f.status, f.message)
			return
		}
	}

	prefix := "/api/v1/namespaces/" + Namespace + "/"
	rest, ok := strings.CutPrefix(r.URL.Path, prefix)
	if !ok {
		writeError(w, http.StatusNotFound, "The requested resource does not exist.")
		return
	}

	collection, name, _ := strings.Cut(rest, "/")
	switch collection {
	case "rules":
		s.handleRules(w, r, name, body)
	case "actions":
		s.handleActions(w, r, name, body)
	case "triggers":
		s.handleTriggers(w, r, name, body)
	case "activations":
		s.handleActivations(w, r, name)
	default:
		writeError(w, http.StatusNotFound, "The requested resource does not exist.")
	}
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	if name == "" {
		rules := make([]whisk.Rule, 0, len(s.rules))
		for _, rule := range s.rules {
			rules = append(rules, *rule)
		}
		writeJSON(w, http.StatusOK, page(rules, r.URL.Query()))
		return
	}

	rule, exists := s.rules[name]
	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	case http.MethodPut:
		if exists && r.URL.Query().Get("overwrite") != "true" {
			writeError(w, http.StatusConflict, "resource already exists")
			return
		}
		var in whisk.Rule
		if err := json.Unmarshal(body, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Namespace = Namespace
		in.Name = name
		in.Status = string(whisk.RuleActive)
		s.rules[name] = &in
		writeJSON(w, http.StatusOK, in)
	case http.MethodPost:
		if !exists {
			writeNotFound(w)
			return
		}
		var in struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(body, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := whisk.ParseRuleState(in.Status); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule.Status = in.Status
		writeJSON(w, http.StatusOK, rule)
	case http.MethodDelete:
		if !exists {
			writeNotFound(w)
			return
		}
		delete(s.rules, name)
		writeJSON(w, http.StatusOK, rule)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	if name == "" || strings.HasSuffix(name, "/") {
		pkg := strings.TrimSuffix(name, "/")
		actions := make([]whisk.Action, 0, len(s.actions))
		for n, a := range s.actions {
			if pkg == "" || strings.HasPrefix(n, pkg+"/") {
				actions = append(actions, *a)
			}
		}
		writeJSON(w, http.StatusOK, page(actions, r.URL.Query()))
		return
	}

	action, exists := s.actions[name]
	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusOK, action)
	case http.MethodPut:
		if exists && r.URL.Query().Get("overwrite") != "true" {
			writeError(w, http.StatusConflict, "resource already exists")
			return
		}
		var in whisk.Action
		if err := json.Unmarshal(body, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Namespace = Namespace
		in.Name = name
		s.actions[name] = &in
		writeJSON(w, http.StatusOK, in)
	case http.MethodDelete:
		if !exists {
			writeNotFound(w)
			return
		}
		delete(s.actions, name)
		writeJSON(w, http.StatusOK, action)
	case http.MethodPost:
		if !exists {
			writeNotFound(w)
			return
		}
		activation := s.activateLocked(name, body, "")
		q := r.URL.Query()
		switch {
		case q.Get("blocking") != "true":
			writeJSON(w, http.StatusAccepted, map[string]string{"activationId": activation.ActivationID})
		case q.Get("result") == "true":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(activation.Response.Result)
		default:
			writeJSON(w, http.StatusOK, activation)
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTriggers(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	trigger, exists := s.triggers[name]
	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusOK, trigger)
	case http.MethodPut:
		if exists && r.URL.Query().Get("overwrite") != "true" {
			writeError(w, http.StatusConflict, "resource already exists")
			return
		}
		var in whisk.Trigger
		if err := json.Unmarshal(body, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Namespace = Namespace
		in.Name = name
		s.triggers[name] = &in
		writeJSON(w, http.StatusOK, in)
	case http.MethodDelete:
		if !exists {
			writeNotFound(w)
			return
		}
		delete(s.triggers, name)
		writeJSON(w, http.StatusOK, trigger)
	case http.MethodPost:
		if !exists {
			writeNotFound(w)
			return
		}
		fired := s.activateLocked(name, body, "")
		for _, rule := range s.rules {
			if rule.Status != string(whisk.RuleActive) || baseName(rule.TriggerName()) != name {
				continue
			}
			if _, ok := s.actions[baseName(rule.ActionName())]; ok {
				s.activateLocked(baseName(rule.ActionName()), body, fired.ActivationID)
			}
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"activationId": fired.ActivationID})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleActivations(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		q := r.URL.Query()
		name := q.Get("name")
		var since int64
		if v := q.Get("since"); v != "" {
			since, _ = strconv.ParseInt(v, 10, 64)
		}
		out := make([]whisk.Activation, 0, len(s.activations))
		for _, a := range s.activations {
			if s.pending[a.ActivationID] > 0 {
				continue
			}
			if name != "" && a.Name != name {
				continue
			}
			if since > 0 && a.Start < since {
				continue
			}
			out = append(out, *a)
		}
		writeJSON(w, http.StatusOK, page(out, q))
		return
	}

	id, sub, _ := strings.Cut(rest, "/")

	if raw, ok := s.raw[id]; ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(raw))
		return
	}

	if s.pending[id] > 0 {
		s.pending[id]--
		writeNotFound(w)
		return
	}

	var found *whisk.Activation
	for _, a := range s.activations {
		if a.ActivationID == id {
			found = a
			break
		}
	}
	if found == nil {
		writeNotFound(w)
		return
	}

	switch sub {
	case "":
		writeJSON(w, http.StatusOK, found)
	case "result":
		writeJSON(w, http.StatusOK, found.Response)
	case "logs":
		writeJSON(w, http.StatusOK, map[string][]string{"logs": found.Logs})
	default:
		writeNotFound(w)
	}
}

// activateLocked records an activation of entity echoing the payload as result.
func (s *Server) activateLocked(entity string, payload []byte, cause string) *whisk.Activation {
	result := json.RawMessage(payload)
	if len(result) == 0 {
		result = json.RawMessage(`{}`)
	}

	now := time.Now().UnixMilli()
	a := &whisk.Activation{
		Name:       entity,
		Cause:      cause,
		Start:      now,
		End:        now + 5,
		Duration:   5,
		Response: &whisk.ActivationResponse{
			Status:  whisk.ActivationStatusSuccess,
			Success: true,
			Result:  result,
		},
		Logs: []string{fmt.Sprintf("%s stdout: invoked %s", time.UnixMilli(now).UTC().Format(time.RFC3339), entity)},
	}
	s.addActivationLocked(a, s.ActivationDelay)
	return a
}

func page[T any](items []T, q url.Values) []T {
	skip, _ := strconv.Atoi(q.Get("skip"))
	if skip > len(items) {
		skip = len(items)
	}
	items = items[skip:]
	if limit, _ := strconv.Atoi(q.Get("limit")); limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func baseName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func writeNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "The requested resource does not exist.")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": "4711"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
