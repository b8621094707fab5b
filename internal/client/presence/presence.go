package presence

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/iudanet/itemsync/internal/protocol"
)

//go:generate moq -out sender_mock.go . Sender

// Sender отправляет сообщения серверу; реализуется Connection Manager
type Sender interface {
	Send(msgType string, payload protocol.Payload) error
}

// Change состояние присутствия элемента после изменения
type Change struct {
	ItemID  string
	Editor  string // пусто, если блокировка свободна
	Viewers []string
}

// LockLost локальный пир считал себя редактором, но сервер назначил другого
type LockLost struct {
	ItemID string
	Peer   string
	Editor string
}

// LockResult результат запроса блокировки редактирования
type LockResult struct {
	Editor  string // текущий редактор при отказе
	Granted bool
}

type outgoing struct {
	payload protocol.Payload
	msgType string
}

// Coordinator отслеживает зрителей и единственного редактора каждого элемента.
// Локальные решения оптимистичны, арбитр сервер: его рассылки заменяют локальное состояние.
type Coordinator struct {
	sender Sender
	logger *slog.Logger
	self   string

	mu           sync.Mutex
	viewers      map[string]map[string]struct{}
	editors      map[string]string
	localViewing map[string]struct{}
	localEditing map[string]struct{}

	handlersMu sync.RWMutex
	onChanged  []func(Change)
	onLockLost []func(LockLost)
}

// New создает координатор для локального пира self
func New(self string, sender Sender, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		sender:       sender,
		logger:       logger,
		self:         self,
		viewers:      make(map[string]map[string]struct{}),
		editors:      make(map[string]string),
		localViewing: make(map[string]struct{}),
		localEditing: make(map[string]struct{}),
	}
}

// Self идентификатор локального пира
func (c *Coordinator) Self() string {
	return c.self
}

// OnPresenceChanged регистрирует наблюдателя изменений присутствия
func (c *Coordinator) OnPresenceChanged(fn func(Change)) {
	c.handlersMu.Lock()
	c.onChanged = append(c.onChanged, fn)
	c.handlersMu.Unlock()
}

// OnLockLost регистрирует наблюдателя потери блокировки
func (c *Coordinator) OnLockLost(fn func(LockLost)) {
	c.handlersMu.Lock()
	c.onLockLost = append(c.onLockLost, fn)
	c.handlersMu.Unlock()
}

// StartViewing добавляет пира в зрители элемента
func (c *Coordinator) StartViewing(itemID, peer string) {
	var out []outgoing

	c.mu.Lock()
	set, ok := c.viewers[itemID]
	if !ok {
		set = make(map[string]struct{})
		c.viewers[itemID] = set
	}
	set[peer] = struct{}{}
	if peer == c.self {
		c.localViewing[itemID] = struct{}{}
		out = append(out, outgoing{msgType: protocol.TypePresenceJoin, payload: protocol.PresenceIntent{ItemID: itemID, Peer: peer}})
	}
	change := c.snapshotLocked(itemID)
	c.mu.Unlock()

	c.send(out)
	c.emitChanged(change)
}

// StopViewing убирает пира из зрителей элемента
func (c *Coordinator) StopViewing(itemID, peer string) {
	var out []outgoing

	c.mu.Lock()
	if set, ok := c.viewers[itemID]; ok {
		delete(set, peer)
		if len(set) == 0 {
			delete(c.viewers, itemID)
		}
	}
	if peer == c.self {
		delete(c.localViewing, itemID)
		out = append(out, outgoing{msgType: protocol.TypePresenceLeave, payload: protocol.PresenceIntent{ItemID: itemID, Peer: peer}})
	}
	change := c.snapshotLocked(itemID)
	c.mu.Unlock()

	c.send(out)
	c.emitChanged(change)
}

// RequestEditLock выдает блокировку, если её не держит другой пир.
// Для локального пира выдача оптимистична: окончательно решает сервер.
func (c *Coordinator) RequestEditLock(itemID, peer string) LockResult {
	var out []outgoing

	c.mu.Lock()
	if holder, ok := c.editors[itemID]; ok && holder != peer {
		c.mu.Unlock()
		return LockResult{Granted: false, Editor: holder}
	}
	c.editors[itemID] = peer
	if peer == c.self {
		c.localEditing[itemID] = struct{}{}
		out = append(out, outgoing{msgType: protocol.TypeEditingRequest, payload: protocol.PresenceIntent{ItemID: itemID, Peer: peer}})
	}
	change := c.snapshotLocked(itemID)
	c.mu.Unlock()

	c.send(out)
	c.emitChanged(change)
	return LockResult{Granted: true, Editor: peer}
}

// ReleaseEditLock освобождает блокировку, если её держит peer
func (c *Coordinator) ReleaseEditLock(itemID, peer string) {
	var out []outgoing

	c.mu.Lock()
	if c.editors[itemID] != peer {
		c.mu.Unlock()
		return
	}
	delete(c.editors, itemID)
	if peer == c.self {
		delete(c.localEditing, itemID)
		out = append(out, outgoing{msgType: protocol.TypeEditingRelease, payload: protocol.PresenceIntent{ItemID: itemID, Peer: peer}})
	}
	change := c.snapshotLocked(itemID)
	c.mu.Unlock()

	c.send(out)
	c.emitChanged(change)
}

// ApplyPresenceUpdate заменяет зрителей элемента списком сервера
func (c *Coordinator) ApplyPresenceUpdate(update protocol.PresenceUpdate) {
	c.mu.Lock()
	if len(update.Viewers) == 0 {
		delete(c.viewers, update.ItemID)
	} else {
		set := make(map[string]struct{}, len(update.Viewers))
		for _, v := range update.Viewers {
			set[v] = struct{}{}
		}
		c.viewers[update.ItemID] = set
	}
	change := c.snapshotLocked(update.ItemID)
	c.mu.Unlock()

	c.emitChanged(change)
}

// ApplyEditingUpdate заменяет локальное представление о редакторе решением сервера
func (c *Coordinator) ApplyEditingUpdate(update protocol.EditingUpdate) {
	editor := update.EditorOrEmpty()
	var lost *LockLost

	c.mu.Lock()
	_, wasLocal := c.localEditing[update.ItemID]
	if editor == "" {
		delete(c.editors, update.ItemID)
	} else {
		c.editors[update.ItemID] = editor
	}

	switch {
	case editor == c.self:
		c.localEditing[update.ItemID] = struct{}{}
	case wasLocal:
		delete(c.localEditing, update.ItemID)
		if editor != "" {
			lost = &LockLost{ItemID: update.ItemID, Peer: c.self, Editor: editor}
		}
	}
	change := c.snapshotLocked(update.ItemID)
	c.mu.Unlock()

	if lost != nil {
		c.logger.Info("Edit lock lost", "item_id", lost.ItemID, "editor", lost.Editor)
		c.emitLockLost(*lost)
	}
	c.emitChanged(change)
}

// AuthorizeOperation операции принимаются только от текущего редактора
func (c *Coordinator) AuthorizeOperation(itemID, peer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	holder, ok := c.editors[itemID]
	return ok && peer != "" && holder == peer
}

// Snapshot текущее состояние присутствия элемента
func (c *Coordinator) Snapshot(itemID string) Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(itemID)
}

// IsEditing сообщает, что локальный пир считает себя редактором элемента
func (c *Coordinator) IsEditing(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.localEditing[itemID]
	return ok
}

// Reset сбрасывает зеркало серверного состояния при разрыве соединения.
// Локальные намерения сохраняются и будут отправлены заново в Resubscribe.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	affected := make(map[string]struct{})
	for id := range c.viewers {
		affected[id] = struct{}{}
	}
	for id := range c.editors {
		affected[id] = struct{}{}
	}

	c.viewers = make(map[string]map[string]struct{})
	c.editors = make(map[string]string)
	for id := range c.localViewing {
		c.viewers[id] = map[string]struct{}{c.self: {}}
		affected[id] = struct{}{}
	}
	for id := range c.localEditing {
		c.editors[id] = c.self
		affected[id] = struct{}{}
	}

	changes := make([]Change, 0, len(affected))
	for id := range affected {
		changes = append(changes, c.snapshotLocked(id))
	}
	c.mu.Unlock()

	sort.Slice(changes, func(i, j int) bool { return changes[i].ItemID < changes[j].ItemID })
	for _, ch := range changes {
		c.emitChanged(ch)
	}
}

// Resubscribe повторно отправляет локальные намерения после подключения
func (c *Coordinator) Resubscribe() {
	c.mu.Lock()
	out := make([]outgoing, 0, len(c.localViewing)+len(c.localEditing))
	for _, id := range sortedKeys(c.localViewing) {
		out = append(out, outgoing{msgType: protocol.TypePresenceJoin, payload: protocol.PresenceIntent{ItemID: id, Peer: c.self}})
	}
	for _, id := range sortedKeys(c.localEditing) {
		out = append(out, outgoing{msgType: protocol.TypeEditingRequest, payload: protocol.PresenceIntent{ItemID: id, Peer: c.self}})
	}
	c.mu.Unlock()

	c.send(out)
}

func (c *Coordinator) snapshotLocked(itemID string) Change {
	return Change{
		ItemID:  itemID,
		Viewers: sortedKeys(c.viewers[itemID]),
		Editor:  c.editors[itemID],
	}
}

// send ошибки отправки не фатальны: намерения повторятся после переподключения
func (c *Coordinator) send(out []outgoing) {
	if c.sender == nil {
		return
	}
	for _, msg := range out {
		if err := c.sender.Send(msg.msgType, msg.payload); err != nil {
			c.logger.Debug("Presence intent not sent", "type", msg.msgType, "error", err)
		}
	}
}

func (c *Coordinator) emitChanged(change Change) {
	c.handlersMu.RLock()
	handlers := append([]func(Change){}, c.onChanged...)
	c.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(change)
	}
}

func (c *Coordinator) emitLockLost(ev LockLost) {
	c.handlersMu.RLock()
	handlers := append([]func(LockLost){}, c.onLockLost...)
	c.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
