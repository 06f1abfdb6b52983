package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"swap_go/internal/infra"
)

const (
	maxRetries   = 10
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

// priceMessage represents one streamed USD quote
type priceMessage struct {
	Type      string `json:"type"` // "price"
	Token     string `json:"token"`
	Symbol    string `json:"symbol"`
	PriceUSD  string `json:"price_usd"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

type quote struct {
	price decimal.Decimal
	at    time.Time
}

// Worker handles the price feed WebSocket connection. It keeps the last
// known USD quote per token and invokes onRefresh after each applied update
// so the engine can recompute deal metrics.
type Worker struct {
	wsURL     string
	tokens    []common.Address
	onRefresh func()

	mu     sync.RWMutex
	quotes map[common.Address]quote

	connMu    sync.RWMutex
	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a price feed worker for the given tokens.
func NewWorker(wsURL string, tokens []common.Address, onRefresh func()) *Worker {
	return &Worker{
		wsURL:     wsURL,
		tokens:    tokens,
		onRefresh: onRefresh,
		quotes:    make(map[common.Address]quote),
	}
}

// Connect starts the WebSocket connection loop.
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("Price feed connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, make(http.Header))
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.connMu.Lock()
	w.conn = conn
	w.connected = true
	w.connMu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	slog.Info("Price feed connected", slog.Int("tokens", len(w.tokens)))
	return nil
}

func (w *Worker) subscribe() error {
	addrs := make([]string, len(w.tokens))
	for i, t := range w.tokens {
		addrs[i] = t.Hex()
	}

	msg := map[string]interface{}{
		"op":      "subscribe",
		"channel": "prices",
		"tokens":  addrs,
	}
	b, _ := json.Marshal(msg)
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.connMu.RLock()
	defer w.connMu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.connMu.RLock()
		conn := w.conn
		w.connMu.RUnlock()
		if conn == nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		w.handleMessage(msg)
	}
}

func (w *Worker) handleMessage(msg []byte) {
	var resp priceMessage
	if json.Unmarshal(msg, &resp) != nil || resp.Type != "price" {
		return
	}
	if !common.IsHexAddress(resp.Token) {
		return
	}

	price, err := decimal.NewFromString(resp.PriceUSD)
	if err != nil || price.IsNegative() {
		return
	}

	at := time.UnixMilli(resp.Timestamp)
	if resp.Timestamp == 0 {
		at = time.Now()
	}

	w.mu.Lock()
	w.quotes[common.HexToAddress(resp.Token)] = quote{price: price, at: at}
	w.mu.Unlock()

	if w.onRefresh != nil {
		w.onRefresh()
	}
}

// Price returns the last USD quote for token. Implements domain.PriceSource.
func (w *Worker) Price(token common.Address) (decimal.Decimal, time.Time, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	q, ok := w.quotes[token]
	if !ok {
		return decimal.Zero, time.Time{}, false
	}
	return q.price, q.at, true
}

// IsConnected reports whether the feed is currently attached.
func (w *Worker) IsConnected() bool {
	w.connMu.RLock()
	defer w.connMu.RUnlock()
	return w.connected
}

func (w *Worker) closeConnection() {
	w.connMu.Lock()
	defer w.connMu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

// Disconnect stops the worker and closes the connection.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
