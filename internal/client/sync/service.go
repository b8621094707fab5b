package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/itemsync/internal/client/api"
	"github.com/iudanet/itemsync/internal/client/connection"
	"github.com/iudanet/itemsync/internal/client/connectivity"
	"github.com/iudanet/itemsync/internal/client/data"
	"github.com/iudanet/itemsync/internal/client/outbox"
	"github.com/iudanet/itemsync/internal/client/presence"
	"github.com/iudanet/itemsync/internal/client/reconcile"
	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/metrics"
	"github.com/iudanet/itemsync/internal/models"
	"github.com/iudanet/itemsync/internal/protocol"
)

// State состояние цикла синхронизации
type State string

const (
	StateIdle        State = "idle"
	StateFullSyncing State = "full_syncing"
	StateDraining    State = "draining"
	StateFailed      State = "failed"
)

// Status снимок состояния для наблюдателей
type Status struct {
	LastSync   time.Time
	Err        error // Err причина состояния failed
	State      State
	Connection connection.State
}

// Connection соединение с сервером; реализуется connection.Manager
type Connection interface {
	Connect(ctx context.Context, credential string) error
	Disconnect(reason string)
	Send(msgType string, payload protocol.Payload) error
	OnStateChange(fn func(connection.StateChange))
	OnEnvelope(fn func(protocol.Envelope))
	State() connection.State
	// RetryNow сокращает ожидание запланированного переподключения
	RetryNow()
}

// Config параметры оркестратора
type Config struct {
	// Staleness после какого перерыва переподключение запускает полную синхронизацию
	Staleness        time.Duration
	PageSize         int
	DrainMaxAttempts int
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		Staleness:        time.Hour,
		PageSize:         100,
		DrainMaxAttempts: outbox.DefaultMaxAttempts,
	}
}

// Components зависимости оркестратора
type Components struct {
	Items        storage.ItemStorage
	Changes      storage.OutboxStorage
	Metadata     storage.MetadataStorage
	Remote       api.RemoteStore
	Tokens       api.TokenSource
	Conn         Connection
	Connectivity connectivity.Observer // nil: считаем, что сеть есть всегда
	Outbox       *outbox.ChangeLog
	Engine       *reconcile.Engine
	Presence     *presence.Coordinator
	Local        *data.Service
	Metrics      *metrics.Metrics
}

// LocalStore локальное хранилище клиента целиком
type LocalStore interface {
	storage.ItemStorage
	storage.OutboxStorage
	storage.MetadataStorage
}

// Assemble собирает оркестратор и его компоненты над одним локальным хранилищем.
// Outbox и Reconciliation Engine разделяют один замок записи.
func Assemble(store LocalStore, remote api.RemoteStore, conn Connection, net connectivity.Observer,
	tokens api.TokenSource, peerID string, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	writeMu := &stdsync.Mutex{}

	changeLog := outbox.New(store, store, remote, writeMu, logger.With("component", "outbox"),
		outbox.WithMaxAttempts(cfg.DrainMaxAttempts),
		outbox.WithMetrics(m))
	engine := reconcile.New(store, store, writeMu, logger.With("component", "reconcile"), m)
	coord := presence.New(peerID, conn, logger.With("component", "presence"))

	return New(Components{
		Items:        store,
		Changes:      store,
		Metadata:     store,
		Remote:       remote,
		Tokens:       tokens,
		Conn:         conn,
		Connectivity: net,
		Outbox:       changeLog,
		Engine:       engine,
		Presence:     coord,
		Local:        data.NewService(store, changeLog),
		Metrics:      m,
	}, cfg, logger)
}

// EnsurePeerID возвращает сохраненный идентификатор пира или создает новый
func EnsurePeerID(ctx context.Context, metadata storage.MetadataStorage) (string, error) {
	peerID, err := metadata.GetPeerID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get peer id: %w", err)
	}
	if peerID != "" {
		return peerID, nil
	}

	peerID = "peer-" + uuid.NewString()
	if err := metadata.SavePeerID(ctx, peerID); err != nil {
		return "", fmt.Errorf("failed to save peer id: %w", err)
	}
	return peerID, nil
}

// Orchestrator связывает соединение, outbox, reconciliation и presence.
// Циклы синхронизации выполняются в одной фоновой горутине и не пересекаются.
type Orchestrator struct {
	c      Components
	logger *slog.Logger
	now    func() time.Time
	cfg    Config

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	wg     stdsync.WaitGroup

	status Status
	fresh  map[string]struct{}
	// lastLive когда оборвалось соединение, в котором локальная копия была актуальной
	lastLive   time.Time
	liveSynced bool
	wantFull   bool
	wantDrain  bool
	started    bool
	mu         stdsync.Mutex

	handlersMu    stdsync.RWMutex
	onItemChanged []func(*models.Item)
	onItemRemoved []func(string)
	onPresence    []func(presence.Change)
	onLockLost    []func(presence.LockLost)
	onSyncState   []func(Status)
}

// New создает оркестратор из готовых компонентов
func New(c Components, cfg Config, logger *slog.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.Staleness <= 0 {
		cfg.Staleness = def.Staleness
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}

	o := &Orchestrator{
		c:      c,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
		status: Status{State: StateIdle},
	}

	c.Engine.OnItemChanged(o.emitItemChanged)
	c.Engine.OnItemRemoved(o.emitItemRemoved)
	c.Outbox.OnItemRemapped(func(oldID string, item *models.Item) {
		o.emitItemRemoved(oldID)
		o.emitItemChanged(item)
	})
	c.Presence.OnPresenceChanged(o.emitPresence)
	c.Presence.OnLockLost(o.emitLockLost)

	return o
}

// Start восстанавливает незавершенные изменения, подписывается на события
// и подключается, если сеть доступна. Повторный вызов ничего не делает.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return nil
	}
	o.started = true
	o.ctx, o.cancel = context.WithCancel(ctx)
	o.mu.Unlock()

	lastSync, err := o.c.Metadata.GetLastSyncTime(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last sync time: %w", err)
	}
	o.mu.Lock()
	o.status.LastSync = lastSync
	o.mu.Unlock()

	if err := o.recoverDirty(ctx); err != nil {
		return err
	}
	// Исчерпанные в прошлом запуске записи получают новые попытки
	if err := o.c.Outbox.ResetAttempts(ctx); err != nil {
		return err
	}

	o.c.Conn.OnStateChange(o.handleConnection)
	o.c.Conn.OnEnvelope(o.handleEnvelope)
	if o.c.Connectivity != nil {
		o.c.Connectivity.OnChange(o.handleConnectivity)
	}

	o.wg.Add(1)
	go o.loop()

	if o.c.Connectivity == nil || o.c.Connectivity.Online() {
		o.connect()
	}
	return nil
}

// Stop останавливает слив после текущей записи, отключается и ждет фоновую горутину
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.started || o.cancel == nil {
		o.mu.Unlock()
		return
	}
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()

	o.c.Outbox.Stop()
	cancel()
	o.c.Conn.Disconnect("stopped")
	o.wg.Wait()
}

// recoverDirty ставит в очередь грязные элементы без ожидающего изменения:
// процесс мог упасть между записью элемента и записью в outbox
func (o *Orchestrator) recoverDirty(ctx context.Context) error {
	dirty, err := o.c.Items.ListDirty(ctx)
	if err != nil {
		return fmt.Errorf("failed to list dirty items: %w", err)
	}

	for _, item := range dirty {
		_, err := o.c.Changes.GetChange(ctx, item.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrChangeNotFound) {
			return fmt.Errorf("failed to get pending change: %w", err)
		}

		op := models.OpUpdate
		switch {
		case item.Tombstone:
			op = models.OpDelete
		case models.IsLocalID(item.ID):
			op = models.OpCreate
		}
		if _, err := o.c.Outbox.Enqueue(ctx, op, item); err != nil {
			return fmt.Errorf("failed to re-enqueue %s: %w", item.ID, err)
		}
		o.logger.Info("Recovered unsent change", "item_id", item.ID, "op", op)
	}
	return nil
}

// CreateItem создает элемент локально и запрашивает отправку
func (o *Orchestrator) CreateItem(ctx context.Context, title, content string) (*models.Item, error) {
	item, err := o.c.Local.CreateItem(ctx, title, content)
	if err != nil {
		return nil, err
	}
	o.afterLocalChange()
	return item, nil
}

// UpdateItem изменяет элемент локально
func (o *Orchestrator) UpdateItem(ctx context.Context, id string, patch data.Patch) (*models.Item, error) {
	item, err := o.c.Local.UpdateItem(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	o.afterLocalChange()
	return item, nil
}

// DeleteItem удаляет элемент локально и освобождает блокировку редактирования
func (o *Orchestrator) DeleteItem(ctx context.Context, id string) error {
	if err := o.c.Local.DeleteItem(ctx, id); err != nil {
		return err
	}
	if o.c.Presence.IsEditing(id) {
		o.c.Presence.ReleaseEditLock(id, o.c.Presence.Self())
	}
	o.afterLocalChange()
	return nil
}

// GetItem возвращает элемент
func (o *Orchestrator) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return o.c.Local.GetItem(ctx, id)
}

// ListItems возвращает все видимые элементы
func (o *Orchestrator) ListItems(ctx context.Context) ([]*models.Item, error) {
	return o.c.Local.ListItems(ctx)
}

// ApplyLocalEdit применяет операцию к содержимому и, если локальный пир
// редактор элемента, рассылает её остальным участникам
func (o *Orchestrator) ApplyLocalEdit(ctx context.Context, id string, op models.EditOperation) (*models.Item, error) {
	item, err := o.c.Local.ApplyLocalEdit(ctx, id, op)
	if err != nil {
		return nil, err
	}

	if !models.IsLocalID(id) && o.c.Presence.IsEditing(id) {
		err := o.c.Conn.Send(protocol.TypeEditingOperation, protocol.EditingOperation{
			ItemID:    id,
			Peer:      o.c.Presence.Self(),
			Operation: op,
		})
		if err != nil {
			o.logger.Debug("Edit operation not broadcast", "item_id", id, "error", err)
		}
	}

	o.afterLocalChange()
	return item, nil
}

// StartViewing отмечает локального пира зрителем элемента
func (o *Orchestrator) StartViewing(itemID string) {
	o.c.Presence.StartViewing(itemID, o.c.Presence.Self())
}

// StopViewing снимает отметку зрителя
func (o *Orchestrator) StopViewing(itemID string) {
	o.c.Presence.StopViewing(itemID, o.c.Presence.Self())
}

// RequestEditLock запрашивает блокировку редактирования для локального пира
func (o *Orchestrator) RequestEditLock(itemID string) presence.LockResult {
	return o.c.Presence.RequestEditLock(itemID, o.c.Presence.Self())
}

// ReleaseEditLock освобождает блокировку локального пира
func (o *Orchestrator) ReleaseEditLock(itemID string) {
	o.c.Presence.ReleaseEditLock(itemID, o.c.Presence.Self())
}

// Resync сбрасывает счетчики попыток и запускает полную синхронизацию,
// в том числе из состояния failed. Выполняется асинхронно.
func (o *Orchestrator) Resync(ctx context.Context) error {
	if !o.isStarted() {
		return ErrNotStarted
	}
	if err := o.c.Outbox.ResetAttempts(ctx); err != nil {
		return err
	}
	if o.c.Conn.State() == connection.StateDisconnected && (o.c.Connectivity == nil || o.c.Connectivity.Online()) {
		o.connect()
	}
	o.schedule(true, true)
	return nil
}

// RequestDrain запрашивает отправку outbox. Выполняется асинхронно.
func (o *Orchestrator) RequestDrain() {
	o.schedule(false, true)
}

// Status текущее состояние
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	st := o.status
	o.mu.Unlock()
	st.Connection = o.c.Conn.State()
	return st
}

// PendingCount число ожидающих отправки изменений
func (o *Orchestrator) PendingCount(ctx context.Context) (int, error) {
	return o.c.Outbox.PendingCount(ctx)
}

// OnItemChanged вызывается при вставке или изменении элемента извне
func (o *Orchestrator) OnItemChanged(fn func(item *models.Item)) {
	o.handlersMu.Lock()
	o.onItemChanged = append(o.onItemChanged, fn)
	o.handlersMu.Unlock()
}

// OnItemRemoved вызывается при удалении элемента или смене временного ID
func (o *Orchestrator) OnItemRemoved(fn func(id string)) {
	o.handlersMu.Lock()
	o.onItemRemoved = append(o.onItemRemoved, fn)
	o.handlersMu.Unlock()
}

// OnPresenceChanged вызывается при изменении зрителей или редактора
func (o *Orchestrator) OnPresenceChanged(fn func(presence.Change)) {
	o.handlersMu.Lock()
	o.onPresence = append(o.onPresence, fn)
	o.handlersMu.Unlock()
}

// OnLockLost вызывается, когда сервер отдал блокировку другому пиру
func (o *Orchestrator) OnLockLost(fn func(presence.LockLost)) {
	o.handlersMu.Lock()
	o.onLockLost = append(o.onLockLost, fn)
	o.handlersMu.Unlock()
}

// OnSyncStateChanged вызывается при смене состояния синхронизации или соединения
func (o *Orchestrator) OnSyncStateChanged(fn func(Status)) {
	o.handlersMu.Lock()
	o.onSyncState = append(o.onSyncState, fn)
	o.handlersMu.Unlock()
}

func (o *Orchestrator) isStarted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started && o.cancel != nil
}

func (o *Orchestrator) connect() {
	o.mu.Lock()
	ctx := o.ctx
	o.mu.Unlock()

	token, err := o.c.Tokens.Token(ctx)
	if err != nil {
		o.fail(fmt.Errorf("failed to get credential: %w", err))
		return
	}
	if err := o.c.Conn.Connect(ctx, token); err != nil {
		o.logger.Warn("Failed to connect", "error", err)
	}
}

func (o *Orchestrator) handleConnectivity(online bool) {
	if !o.isStarted() {
		return
	}
	if online {
		o.logger.Info("Network online")
		if o.c.Conn.State() == connection.StateReconnecting {
			o.c.Conn.RetryNow()
			return
		}
		o.connect()
		return
	}
	o.logger.Info("Network offline")
	o.c.Conn.Disconnect("offline")
}

func (o *Orchestrator) handleConnection(ch connection.StateChange) {
	if ch.Previous == connection.StateConnected && ch.State != connection.StateConnected {
		o.linkLost()
	}

	switch ch.State {
	case connection.StateConnected:
		o.c.Presence.Resubscribe()
		full := o.needsFullSync()
		o.mu.Lock()
		o.liveSynced = !full
		o.mu.Unlock()
		o.schedule(full, true)
	case connection.StateReconnecting:
		if ch.Previous == connection.StateConnected {
			o.c.Presence.Reset()
		}
	case connection.StateDisconnected:
		o.c.Presence.Reset()
		if errors.Is(ch.Err, connection.ErrReconnectExhausted) || errors.Is(ch.Err, connection.ErrUnauthorized) {
			o.fail(ch.Err)
			return
		}
	}
	o.emitStatus()
}

// handleEnvelope вызывается из читающей горутины соединения в порядке кадров
func (o *Orchestrator) handleEnvelope(env protocol.Envelope) {
	ctx := o.context()

	var (
		outcome reconcile.Outcome
		err     error
		itemID  string
	)

	switch p := env.Payload.(type) {
	case protocol.ItemPayload:
		itemID = p.ID
		o.markFresh(p.ID)
		if env.Type == protocol.TypeItemCreated {
			outcome, err = o.c.Engine.ApplyRemoteCreate(ctx, p.ToItem())
		} else {
			outcome, err = o.c.Engine.ApplyRemoteUpdate(ctx, p.ToItem())
		}
	case protocol.ItemDeleted:
		itemID = p.ID
		outcome, err = o.c.Engine.ApplyRemoteDelete(ctx, p.ID)
	case protocol.PresenceUpdate:
		o.c.Presence.ApplyPresenceUpdate(p)
		return
	case protocol.EditingUpdate:
		o.c.Presence.ApplyEditingUpdate(p)
		return
	case protocol.EditingOperation:
		itemID = p.ItemID
		if p.Peer == o.c.Presence.Self() {
			return
		}
		if !o.c.Presence.AuthorizeOperation(p.ItemID, p.Peer) {
			o.logger.Warn("Dropped edit operation from non-editor", "item_id", p.ItemID, "peer", p.Peer)
			return
		}
		outcome, err = o.c.Engine.ApplyEditOperation(ctx, p.ItemID, p.Operation)
	default:
		o.logger.Debug("Ignored message", "type", env.Type)
		return
	}

	if err != nil {
		o.logger.Warn("Failed to apply remote change", "type", env.Type, "item_id", itemID, "error", err)
		return
	}
	o.logger.Debug("Remote change applied", "type", env.Type, "item_id", itemID, "outcome", outcome)
}

func (o *Orchestrator) context() context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctx == nil {
		return context.Background()
	}
	return o.ctx
}

// markFresh запоминает элементы, пришедшие во время полной синхронизации,
// чтобы не удалить их как пропавшие с сервера
func (o *Orchestrator) markFresh(id string) {
	o.mu.Lock()
	if o.status.State == StateFullSyncing && o.fresh != nil {
		o.fresh[id] = struct{}{}
	}
	o.mu.Unlock()
}

// needsFullSync измеряет перерыв от последней полной синхронизации или от
// обрыва соединения, в котором копия оставалась актуальной, смотря что позже
func (o *Orchestrator) needsFullSync() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	last := o.status.LastSync
	if last.IsZero() {
		return true
	}
	if o.lastLive.After(last) {
		last = o.lastLive
	}
	return o.now().Sub(last) > o.cfg.Staleness
}

func (o *Orchestrator) linkLost() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.liveSynced {
		o.lastLive = o.now().UTC()
	}
	o.liveSynced = false
}

func (o *Orchestrator) afterLocalChange() {
	if o.c.Conn.State() == connection.StateConnected {
		o.schedule(false, false)
	}
}

// schedule запрашивает цикл; без force запрос из состояния failed игнорируется
func (o *Orchestrator) schedule(full, force bool) {
	o.mu.Lock()
	if !o.started || (o.status.State == StateFailed && !force) {
		o.mu.Unlock()
		return
	}
	if full {
		o.wantFull = true
	} else {
		o.wantDrain = true
	}
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) loop() {
	defer o.wg.Done()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-o.wake:
		}

		o.mu.Lock()
		full, drain := o.wantFull, o.wantDrain
		o.wantFull, o.wantDrain = false, false
		o.mu.Unlock()

		switch {
		case full:
			o.runCycle("full", o.fullSync)
		case drain:
			o.runCycle("drain", o.drain)
		}
	}
}

func (o *Orchestrator) runCycle(kind string, fn func(ctx context.Context) error) {
	started := o.now()
	err := fn(o.ctx)
	if o.ctx.Err() != nil {
		return
	}
	if err != nil {
		o.c.Metrics.SyncCycle(kind, "error")
		o.fail(err)
		return
	}

	o.c.Metrics.SyncCycle(kind, "ok")
	o.logger.Debug("Sync cycle completed", "kind", kind, "duration_ms", o.now().Sub(started).Milliseconds())
	o.setState(StateIdle, nil)
}

// fullSync загружает все элементы сервера, удаляет пропавшие и сливает outbox
func (o *Orchestrator) fullSync(ctx context.Context) error {
	o.mu.Lock()
	o.fresh = make(map[string]struct{})
	o.mu.Unlock()
	o.setState(StateFullSyncing, nil)

	keep := make(map[string]struct{})
	cursor := ""
	pulled := 0
	for {
		page, next, err := o.c.Remote.ListItems(ctx, cursor, o.cfg.PageSize)
		if err != nil {
			return fmt.Errorf("failed to list remote items: %w", err)
		}
		for _, item := range page {
			keep[item.ID] = struct{}{}
			if _, err := o.c.Engine.ApplyRemoteCreate(ctx, item); err != nil {
				return fmt.Errorf("failed to apply remote item %s: %w", item.ID, err)
			}
		}
		pulled += len(page)
		if next == "" {
			break
		}
		cursor = next
	}

	o.mu.Lock()
	for id := range o.fresh {
		keep[id] = struct{}{}
	}
	o.fresh = nil
	o.mu.Unlock()

	removed, err := o.c.Engine.RemoveMissing(ctx, keep)
	if err != nil {
		return fmt.Errorf("failed to prune missing items: %w", err)
	}

	now := o.now().UTC()
	if err := o.c.Metadata.SaveLastSyncTime(ctx, now); err != nil {
		return fmt.Errorf("failed to save last sync time: %w", err)
	}
	live := o.c.Conn.State() == connection.StateConnected
	o.mu.Lock()
	o.status.LastSync = now
	o.liveSynced = live
	o.mu.Unlock()

	o.logger.Info("Full sync completed", "pulled", pulled, "pruned", len(removed))
	return o.drain(ctx)
}

func (o *Orchestrator) drain(ctx context.Context) error {
	o.setState(StateDraining, nil)

	res, err := o.c.Outbox.Drain(ctx)
	if err != nil {
		return fmt.Errorf("failed to drain outbox: %w", err)
	}
	if res.Sent > 0 || res.Failed > 0 {
		o.logger.Info("Outbox drained", "sent", res.Sent, "failed", res.Failed, "conflicts", res.Conflicts)
	}
	if res.Conflicts > 0 {
		// Сервер хранит более новые версии: забираем их полной синхронизацией
		o.schedule(true, false)
	}
	if len(res.Exhausted) > 0 {
		return fmt.Errorf("%w: %s", ErrDrainExhausted, strings.Join(res.Exhausted, ", "))
	}
	return nil
}

func (o *Orchestrator) fail(err error) {
	o.logger.Error("Sync failed", "error", err)
	o.setState(StateFailed, err)
}

func (o *Orchestrator) setState(state State, err error) {
	o.mu.Lock()
	o.status.State = state
	o.status.Err = err
	o.mu.Unlock()
	o.emitStatus()
}

func (o *Orchestrator) emitStatus() {
	st := o.Status()

	o.handlersMu.RLock()
	handlers := append([]func(Status){}, o.onSyncState...)
	o.handlersMu.RUnlock()

	for _, fn := range handlers {
		o.safeCall("sync_state", func() { fn(st) })
	}
}

func (o *Orchestrator) emitItemChanged(item *models.Item) {
	o.handlersMu.RLock()
	handlers := append([]func(*models.Item){}, o.onItemChanged...)
	o.handlersMu.RUnlock()

	for _, fn := range handlers {
		o.safeCall("item_changed", func() { fn(item) })
	}
}

func (o *Orchestrator) emitItemRemoved(id string) {
	o.handlersMu.RLock()
	handlers := append([]func(string){}, o.onItemRemoved...)
	o.handlersMu.RUnlock()

	for _, fn := range handlers {
		o.safeCall("item_removed", func() { fn(id) })
	}
}

func (o *Orchestrator) emitPresence(ch presence.Change) {
	o.handlersMu.RLock()
	handlers := append([]func(presence.Change){}, o.onPresence...)
	o.handlersMu.RUnlock()

	for _, fn := range handlers {
		o.safeCall("presence_changed", func() { fn(ch) })
	}
}

func (o *Orchestrator) emitLockLost(ev presence.LockLost) {
	o.handlersMu.RLock()
	handlers := append([]func(presence.LockLost){}, o.onLockLost...)
	o.handlersMu.RUnlock()

	for _, fn := range handlers {
		o.safeCall("lock_lost", func() { fn(ev) })
	}
}

// safeCall паника наблюдателя не должна остановить синхронизацию
func (o *Orchestrator) safeCall(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Observer panicked", "event", event, "panic", r)
		}
	}()
	fn()
}
