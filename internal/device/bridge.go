package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

// RemoteError is an error reported by the bridge for one command.
type RemoteError struct {
	Cmd     string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Cmd, e.Message)
}

type request struct {
	ID   uint64 `json:"id"`
	Cmd  string `json:"cmd"`
	Args any    `json:"args,omitempty"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

type reply struct {
	resp response
	err  error
}

// pendingCall waits for the reply to a frame written on conn.
type pendingCall struct {
	conn *websocket.Conn
	ch   chan reply
}

type wireBinding struct {
	Action string   `json:"action"`
	Params []string `json:"params"`
}

type wireLayer struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Bindings []wireBinding `json:"bindings"`
}

type wireKeymap struct {
	Layers []wireLayer `json:"layers"`
}

// Bridge is a Client speaking JSON commands over a WebSocket to a device
// bridge process. Each request frame carries an id, a command name and
// its arguments; the bridge answers with the same id and either a result
// or an error string. The connection is dialed lazily and redialed after
// it drops.
type Bridge struct {
	url    string
	dialer *websocket.Dialer
	header http.Header

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[uint64]pendingCall
	next    uint64

	writeMu sync.Mutex
}

// NewBridge returns a Bridge for the given ws:// or wss:// URL.
func NewBridge(url string, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		header:  http.Header{},
		pending: make(map[uint64]pendingCall),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithToken sends token as a bearer credential when dialing.
func WithToken(token string) BridgeOption {
	return func(b *Bridge) {
		if token != "" {
			b.header.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithHandshakeTimeout bounds the WebSocket opening handshake.
func WithHandshakeTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.dialer.HandshakeTimeout = d
	}
}

// Close drops the connection. Calls in flight fail.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (b *Bridge) ensure(ctx context.Context) (*websocket.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return b.conn, nil
	}
	conn, resp, err := b.dialer.DialContext(ctx, b.url, b.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial device bridge (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial device bridge: %w", err)
	}
	b.conn = conn
	go b.readLoop(conn)
	return conn, nil
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			b.fail(conn, err)
			return
		}
		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			slog.Warn("dropping malformed bridge frame", "error", err)
			continue
		}
		b.mu.Lock()
		pc, ok := b.pending[resp.ID]
		if ok && pc.conn == conn {
			delete(b.pending, resp.ID)
		} else {
			ok = false
		}
		b.mu.Unlock()
		if ok {
			pc.ch <- reply{resp: resp}
		}
	}
}

// fail fails the pending calls written on conn after it stopped reading.
// Calls already sent on a redialed connection keep waiting.
func (b *Bridge) fail(conn *websocket.Conn, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == conn {
		b.conn = nil
		conn.Close()
	}
	for id, pc := range b.pending {
		if pc.conn != conn {
			continue
		}
		pc.ch <- reply{err: fmt.Errorf("device bridge connection lost: %w", err)}
		delete(b.pending, id)
	}
}

func (b *Bridge) call(ctx context.Context, cmd string, args, out any) error {
	conn, err := b.ensure(ctx)
	if err != nil {
		return err
	}

	ch := make(chan reply, 1)
	b.mu.Lock()
	if b.conn != conn {
		b.mu.Unlock()
		return fmt.Errorf("%s: device bridge connection lost", cmd)
	}
	b.next++
	id := b.next
	b.pending[id] = pendingCall{conn: conn, ch: ch}
	b.mu.Unlock()

	forget := func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}

	frame, err := json.Marshal(request{ID: id, Cmd: cmd, Args: args})
	if err != nil {
		forget()
		return fmt.Errorf("failed to encode %s: %w", cmd, err)
	}

	b.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}
	err = conn.WriteMessage(websocket.TextMessage, frame)
	b.writeMu.Unlock()
	if err != nil {
		forget()
		b.fail(conn, err)
		return fmt.Errorf("failed to send %s: %w", cmd, err)
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return r.err
		}
		if r.resp.Error != "" {
			return &RemoteError{Cmd: cmd, Message: r.resp.Error}
		}
		if out == nil || len(r.resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(r.resp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", cmd, err)
		}
		return nil
	case <-ctx.Done():
		forget()
		return fmt.Errorf("%s: %w", cmd, ctx.Err())
	}
}

func (b *Bridge) ListDevices(ctx context.Context) ([]Info, error) {
	var out []Info
	if err := b.call(ctx, "list_devices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bridge) Connect(ctx context.Context, id string, transport Transport) (ConnectedInfo, error) {
	var out ConnectedInfo
	args := map[string]any{"id": id, "transport": transport}
	if err := b.call(ctx, "connect_device", args, &out); err != nil {
		return ConnectedInfo{}, err
	}
	return out, nil
}

func (b *Bridge) Disconnect(ctx context.Context) error {
	return b.call(ctx, "disconnect_device", nil, nil)
}

func (b *Bridge) Battery(ctx context.Context) (Battery, error) {
	var out Battery
	if err := b.call(ctx, "get_battery", nil, &out); err != nil {
		return Battery{}, err
	}
	return out, nil
}

func (b *Bridge) LockState(ctx context.Context) (string, error) {
	var out string
	if err := b.call(ctx, "get_lock_state", nil, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (b *Bridge) SetLockState(ctx context.Context, lock bool) error {
	return b.call(ctx, "set_lock_state", map[string]bool{"lock": lock}, nil)
}

func (b *Bridge) DiscoverBehaviors(ctx context.Context) error {
	return b.call(ctx, "discover_behaviors", nil, nil)
}

func (b *Bridge) ResolvedKeymap(ctx context.Context) (LiveKeymap, error) {
	var wire wireKeymap
	if err := b.call(ctx, "get_resolved_keymap", nil, &wire); err != nil {
		return LiveKeymap{}, err
	}
	if len(wire.Layers) == 0 {
		return LiveKeymap{}, errors.New("get_resolved_keymap: device reported no layers")
	}
	out := LiveKeymap{Layers: make([]LiveLayer, len(wire.Layers))}
	for i, l := range wire.Layers {
		bs := make([]keymap.Binding, len(l.Bindings))
		for j, wb := range l.Bindings {
			params := wb.Params
			if params == nil {
				params = []string{}
			}
			bs[j] = keymap.Binding{Action: wb.Action, Params: params}
		}
		out.Layers[i] = LiveLayer{ID: l.ID, Name: l.Name, Bindings: bs}
	}
	return out, nil
}

func (b *Bridge) PhysicalLayouts(ctx context.Context) (PhysicalLayouts, error) {
	var out PhysicalLayouts
	if err := b.call(ctx, "get_physical_layouts", nil, &out); err != nil {
		return PhysicalLayouts{}, err
	}
	return out, nil
}

func (b *Bridge) SetLiveBinding(ctx context.Context, lb LiveBinding) error {
	return b.call(ctx, "set_live_binding", lb, nil)
}

func (b *Bridge) SaveChanges(ctx context.Context) error {
	return b.call(ctx, "save_changes_live", nil, nil)
}

func (b *Bridge) DiscardChanges(ctx context.Context) error {
	return b.call(ctx, "discard_changes_live", nil, nil)
}

func (b *Bridge) HasUnsavedChanges(ctx context.Context) (bool, error) {
	var out bool
	if err := b.call(ctx, "has_unsaved_changes", nil, &out); err != nil {
		return false, err
	}
	return out, nil
}
