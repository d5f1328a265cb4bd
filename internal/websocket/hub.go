package websocket

import (
	"encoding/json"
	"sync"
)

// BalanceUpdate is pushed to the owning account after any committed
// balance mutation.
type BalanceUpdate struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// PendingAlert is pushed to connected staff consoles when a new
// deposit/withdrawal/refund request lands in the queue.
type PendingAlert struct {
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
}

type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	staff   map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		staff:   make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(accountID string, isStaff bool, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[accountID] == nil {
		h.clients[accountID] = make(map[*Client]struct{})
	}
	h.clients[accountID][client] = struct{}{}
	if isStaff {
		h.staff[client] = struct{}{}
	}
}

func (h *Hub) Unregister(accountID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.staff, client)
	if h.clients[accountID] == nil {
		return
	}
	delete(h.clients[accountID], client)
	if len(h.clients[accountID]) == 0 {
		delete(h.clients, accountID)
	}
}

func (h *Hub) BroadcastBalance(accountID string, update BalanceUpdate) {
	payload, _ := json.Marshal(envelope{Event: "balance", Payload: update})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[accountID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// BroadcastPending fans a new-request alert out to every connected staff
// console.
func (h *Hub) BroadcastPending(alert PendingAlert) {
	payload, _ := json.Marshal(envelope{Event: "pending_request", Payload: alert})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.staff {
		select {
		case client.send <- payload:
		default:
		}
	}
}
