// Package iconatest runs an in-memory commerce API for tests.
package iconatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/icona"
)

// Update is one PUT /orders/{id} the server received.
type Update struct {
	OrderID string
	Body    map[string]any
}

// LabelResponder answers POST /shipping/labels. A status other than 200 is
// returned as an error response.
type LabelResponder func(req icona.LabelRequest) (icona.LabelResponse, int)

type Server struct {
	*httptest.Server

	mu            sync.Mutex
	orders        map[string]*order.Order
	sequence      []string
	failUpdate    map[string]int
	failGet       map[string]int
	failList      int
	labels        LabelResponder
	updates       []Update
	labelRequests []icona.LabelRequest
	tokens        []string
	splits        int
}

func NewServer(orders ...order.Order) *Server {
	s := &Server{
		orders:     make(map[string]*order.Order),
		failUpdate: make(map[string]int),
		failGet:    make(map[string]int),
		labels:     DefaultLabels,
	}
	for _, o := range orders {
		s.Put(o)
	}

	r := chi.NewRouter()
	r.Use(s.recordToken)
	r.Get("/orders", s.listOrders)
	r.Get("/orders/{id}", s.getOrder)
	r.Put("/orders/{id}", s.updateOrder)
	r.Post("/orders/unbundle", s.unbundleItems)
	r.Post("/shipping/labels", s.purchaseLabels)

	s.Server = httptest.NewServer(r)
	return s
}

// IconaClient returns a client pointed at the fake.
func (s *Server) IconaClient() *icona.Client {
	return icona.NewClient(icona.Config{BaseURL: s.URL})
}

// DefaultLabels buys every rate and derives the tracking number from the id.
func DefaultLabels(req icona.LabelRequest) (icona.LabelResponse, int) {
	var res icona.LabelResponse
	for _, rate := range req.Rates {
		res.Labels = append(res.Labels, icona.Label{
			OrderID:        rate.OrderID,
			TrackingNumber: "TRK-" + rate.OrderID,
			LabelURL:       "https://labels.test/" + rate.OrderID + ".pdf",
			Cost:           7.5,
			Carrier:        "usps",
			Service:        req.Service,
		})
	}
	return res, http.StatusOK
}

func (s *Server) Put(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		s.sequence = append(s.sequence, o.ID)
	}
	cp := o
	s.orders[o.ID] = &cp
}

// Order returns a copy of the stored order.
func (s *Server) Order(id string) (order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, false
	}
	return *o, true
}

func (s *Server) FailUpdate(id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate[id] = status
}

func (s *Server) FailGet(id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet[id] = status
}

func (s *Server) FailList(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = status
}

// ClearFailures undoes every Fail* call.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate = make(map[string]int)
	s.failGet = make(map[string]int)
	s.failList = 0
}

func (s *Server) SetLabelResponder(fn LabelResponder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = fn
}

func (s *Server) Updates() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Update(nil), s.updates...)
}

func (s *Server) LabelRequests() []icona.LabelRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]icona.LabelRequest(nil), s.labelRequests...)
}

func (s *Server) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

func (s *Server) recordToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.tokens = append(s.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != 0 {
		writeError(w, s.failList, "list failed")
		return
	}

	q := r.URL.Query()
	var matched []order.Order
	for _, id := range s.sequence {
		o := s.orders[id]
		if v := q.Get("userId"); v != "" && o.SellerID != v {
			continue
		}
		if v := q.Get("customer"); v != "" && o.CustomerID != v {
			continue
		}
		if v := q.Get("customerId"); v != "" && o.CustomerID != v {
			continue
		}
		if v := q.Get("status"); v != "" && string(o.Status) != v {
			continue
		}
		matched = append(matched, *o)
	}

	limit := atoi(q.Get("limit"), 20)
	page := atoi(q.Get("page"), 1)
	pages := (len(matched) + limit - 1) / limit
	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))

	writeJSON(w, http.StatusOK, icona.OrderPage{
		Orders: append([]order.Order{}, matched[start:end]...),
		Total:  len(matched),
		Pages:  pages,
	})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failGet[id]; ok {
		writeError(w, status, "get failed")
		return
	}
	o, ok := s.orders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, Update{OrderID: id, Body: body})
	if status, ok := s.failUpdate[id]; ok {
		writeError(w, status, "update rejected")
		return
	}
	o, ok := s.orders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if v, ok := body["status"].(string); ok {
		o.Status = order.Status(v)
	}
	if v, ok := body["trackingNumber"].(string); ok {
		o.TrackingNumber = v
	}
	if v, ok := body["labelUrl"].(string); ok {
		o.LabelURL = v
	}
	if v, ok := body["bundleId"]; ok {
		if bid, isString := v.(string); isString {
			o.BundleID = &bid
		} else {
			o.BundleID = nil
		}
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) unbundleItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string   `json:"orderId"`
		ItemIDs []string `json:"itemIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[req.OrderID]
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	move := make(map[string]bool, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		move[id] = true
	}
	var kept []order.Item
	var created []order.Order
	for _, item := range o.Items {
		if !move[item.ItemID] {
			kept = append(kept, item)
			continue
		}
		s.splits++
		split := *o
		split.ID = fmt.Sprintf("%s-split-%d", o.ID, s.splits)
		split.Items = []order.Item{item}
		split.BundleID = nil
		s.orders[split.ID] = &split
		s.sequence = append(s.sequence, split.ID)
		created = append(created, split)
	}
	o.Items = kept

	writeJSON(w, http.StatusOK, map[string]any{"orders": created})
}

func (s *Server) purchaseLabels(w http.ResponseWriter, r *http.Request) {
	var req icona.LabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.labelRequests = append(s.labelRequests, req)
	responder := s.labels
	s.mu.Unlock()

	res, status := responder(req)
	if status != http.StatusOK {
		writeError(w, status, "label purchase failed")
		return
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
