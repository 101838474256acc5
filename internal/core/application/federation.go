package application

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// FederationConfig holds everything required to build a Federation.
type FederationConfig struct {
	Settings domain.Settings
	// HostURL is the url of the self-hosted client, if any.
	HostURL      string
	Coordinators []domain.CoordinatorProfile
	// ThirdParties are non-federated order sources whose orders are shown.
	ThirdParties []domain.CoordinatorProfile
	Relays       []string

	Client    ports.CoordinatorClient
	RelayPool ports.RelayPool
	Decoder   ports.OrderDecoder
	// RepoManager is optional, limits and snapshots are not persisted if nil.
	RepoManager ports.RepoManager
}

func (c FederationConfig) validate() error {
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	if c.Client == nil {
		return ErrNullCoordinatorClient
	}
	if c.RelayPool == nil {
		return ErrNullRelayPool
	}
	if c.Decoder == nil {
		return ErrNullOrderDecoder
	}
	return nil
}

// Federation is the aggregate of all coordinators. It reconciles the books
// they serve, either through their REST api or through relays, into one
// versioned snapshot and notifies subscribers of every change.
type Federation struct {
	hostURL      string
	relays       []string
	pool         ports.RelayPool
	decoder      ports.OrderDecoder
	repoManager  ports.RepoManager
	coordinators map[string]*Coordinator
	aliases      []string
	thirdParties map[string]domain.CoordinatorProfile

	lock         *sync.Mutex
	settings     domain.Settings
	source       BookSource
	bookPending  int
	relayPending int
	relayBook    map[string]domain.PublicOrder
	eventTimes   map[string]time.Time
	version      uint64
	started      bool

	snapshot atomic.Pointer[domain.Snapshot]
	hooks    *hookHub

	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func NewFederation(cfg FederationConfig) (*Federation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var limitRepo domain.LimitRepository
	if cfg.RepoManager != nil {
		limitRepo = cfg.RepoManager.LimitRepository()
	}

	coordinators := make(map[string]*Coordinator, len(cfg.Coordinators))
	aliases := make([]string, 0, len(cfg.Coordinators))
	for _, profile := range cfg.Coordinators {
		if _, ok := coordinators[profile.ShortAlias]; ok {
			return nil, ErrDuplicatedCoordinator
		}
		c, err := NewCoordinator(profile, cfg.Client, limitRepo, true)
		if err != nil {
			return nil, err
		}
		coordinators[profile.ShortAlias] = c
		aliases = append(aliases, profile.ShortAlias)
	}
	sort.Strings(aliases)

	thirdParties := make(map[string]domain.CoordinatorProfile)
	for _, profile := range cfg.ThirdParties {
		if err := profile.Validate(); err != nil {
			return nil, err
		}
		if _, ok := coordinators[profile.ShortAlias]; ok {
			return nil, ErrDuplicatedCoordinator
		}
		if _, ok := thirdParties[profile.ShortAlias]; ok {
			return nil, ErrDuplicatedCoordinator
		}
		thirdParties[profile.ShortAlias] = profile
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Federation{
		hostURL:      cfg.HostURL,
		relays:       cfg.Relays,
		pool:         cfg.RelayPool,
		decoder:      cfg.Decoder,
		repoManager:  cfg.RepoManager,
		coordinators: coordinators,
		aliases:      aliases,
		thirdParties: thirdParties,
		lock:         &sync.Mutex{},
		settings:     cfg.Settings,
		relayBook:    make(map[string]domain.PublicOrder),
		eventTimes:   make(map[string]time.Time),
		ctx:          ctx,
		cancel:       cancel,
		wg:           &sync.WaitGroup{},
	}
	f.hooks = newHookHub(f.Snapshot)
	for _, c := range coordinators {
		c.onLoadStart = func() { f.refresh(UpdateLoading) }
	}
	f.updateURLs()
	f.snapshot.Store(&domain.Snapshot{
		Connection: cfg.Settings.Connection,
		Book:       make(map[string]domain.PublicOrder),
		Exchange:   domain.NewExchangeInfo(nil, len(aliases), len(aliases)),
	})

	return f, nil
}

func (f *Federation) Settings() domain.Settings {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.settings
}

// Snapshot returns the current view of the federation. The returned value
// must not be modified.
func (f *Federation) Snapshot() *domain.Snapshot {
	return f.snapshot.Load()
}

// Subscribe registers a handler invoked on every federation change. Changes
// occurring while handlers are running are delivered as one update.
func (f *Federation) Subscribe(handler func(Update)) (string, func()) {
	return f.hooks.subscribe(handler)
}

// SetConnection applies the given settings. Entering nostr mode subscribes to
// the relays and starts over with an empty book. Entering api mode closes the
// relay subscription and reloads the book from every coordinator.
func (f *Federation) SetConnection(
	ctx context.Context, settings domain.Settings,
) error {
	if err := validateSettings(settings); err != nil {
		return err
	}

	if settings.Connection == domain.ConnectionNostr {
		return f.ConnectNostr(ctx, settings)
	}

	f.lock.Lock()
	f.settings = settings
	f.updateURLs()
	old := f.swapSource(newRestBookSource(f))
	f.lock.Unlock()

	if old != nil {
		old.Stop()
	}
	f.refresh(UpdateConnection | UpdateBook)

	f.LoadBook(ctx)
	return nil
}

// ConnectNostr opens one subscription across the relays of the federation
// for the order events of every known coordinator on the active network.
// Relay subscriptions outlive ctx and are closed by Stop or by switching
// back to api mode.
func (f *Federation) ConnectNostr(
	_ context.Context, settings domain.Settings,
) error {
	settings.Connection = domain.ConnectionNostr
	if err := validateSettings(settings); err != nil {
		return err
	}

	f.lock.Lock()
	f.settings = settings
	f.updateURLs()
	source := newRelayBookSource(
		f, f.pool, f.decoder, f.relayURLs(), f.authors(), settings.Network,
	)
	old := f.swapSource(source)
	f.lock.Unlock()

	if old != nil {
		old.Stop()
	}

	if err := source.Start(f.ctx); err != nil {
		return err
	}
	f.refresh(UpdateConnection)
	return nil
}

// LoadBook reloads the book from every enabled coordinator in api mode. It's
// a no-op in nostr mode since relays push updates on their own.
func (f *Federation) LoadBook(ctx context.Context) {
	f.lock.Lock()
	source := f.source
	f.lock.Unlock()

	if source == nil {
		return
	}
	source.LoadBook(ctx)
}

// LoadLimits reloads the limits of every enabled coordinator in parallel.
func (f *Federation) LoadLimits(ctx context.Context) {
	f.forEachEnabled(func(c *Coordinator) {
		c.LoadLimits(ctx, func() { f.refresh(UpdateLimits | UpdateLoading) })
	})
}

// LoadInfo reloads the info of every enabled coordinator in parallel.
func (f *Federation) LoadInfo(ctx context.Context) {
	f.forEachEnabled(func(c *Coordinator) {
		c.LoadInfo(ctx, func() {
			f.refresh(UpdateInfo | UpdateExchange | UpdateLoading)
		})
	})
}

// UpdateExchange recomputes the federation-wide statistics.
func (f *Federation) UpdateExchange() {
	f.refresh(UpdateExchange)
}

func (f *Federation) GetCoordinator(alias string) (*Coordinator, error) {
	c, ok := f.coordinators[alias]
	if !ok {
		return nil, ErrCoordinatorNotFound
	}
	return c, nil
}

// Coordinators returns the federation members sorted by alias.
func (f *Federation) Coordinators() []*Coordinator {
	coordinators := make([]*Coordinator, 0, len(f.aliases))
	for _, alias := range f.aliases {
		coordinators = append(coordinators, f.coordinators[alias])
	}
	return coordinators
}

// ThirdParties returns the allowed non-federated sources sorted by alias.
func (f *Federation) ThirdParties() []domain.CoordinatorProfile {
	profiles := make([]domain.CoordinatorProfile, 0, len(f.thirdParties))
	for _, p := range f.thirdParties {
		profiles = append(profiles, p)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].ShortAlias < profiles[j].ShortAlias
	})
	return profiles
}

// EnableCoordinator makes the coordinator contribute to the federation again
// and reloads its resources.
func (f *Federation) EnableCoordinator(ctx context.Context, alias string) error {
	c, err := f.GetCoordinator(alias)
	if err != nil {
		return err
	}

	c.Enable(ctx, func() { f.refresh(UpdateLimits | UpdateLoading) })
	f.refresh(UpdateCoordinators | UpdateBook | UpdateExchange)

	if f.Settings().Connection == domain.ConnectionAPI {
		c.LoadBook(ctx, func() { f.refresh(UpdateBook | UpdateLoading) })
	}
	c.LoadInfo(ctx, func() {
		f.refresh(UpdateInfo | UpdateExchange | UpdateLoading)
	})
	return nil
}

// DisableCoordinator excludes the coordinator and its orders from the
// federation.
func (f *Federation) DisableCoordinator(alias string) error {
	c, err := f.GetCoordinator(alias)
	if err != nil {
		return err
	}

	c.Disable()
	f.refresh(
		UpdateCoordinators | UpdateBook | UpdateLimits | UpdateInfo |
			UpdateExchange,
	)
	return nil
}

// Filter returns the orders of the current snapshot matching the given
// criteria. See domain.FilterOrders.
func (f *Federation) Filter(
	base domain.BaseFilter, premiumFloor *decimal.Decimal,
	paymentMethods []string, amount *domain.AmountFilter,
) []domain.PublicOrder {
	return domain.FilterOrders(
		f.Snapshot().Orders(), f.trustPolicy(), base, premiumFloor,
		paymentMethods, amount,
	)
}

// Limits returns the limits of every enabled coordinator reconciled into one
// list.
func (f *Federation) Limits() domain.LimitList {
	limits := make(domain.LimitList)
	for _, c := range f.Coordinators() {
		if !c.IsEnabled() {
			continue
		}
		for code, limit := range c.Limits() {
			if prev, ok := limits[code]; ok {
				limits[code] = domain.CompareUpdateLimit(&prev, limit)
				continue
			}
			limits[code] = limit
		}
	}
	return limits
}

// CoordinatorLimits returns the limits of the given coordinator.
func (f *Federation) CoordinatorLimits(alias string) (domain.LimitList, error) {
	c, err := f.GetCoordinator(alias)
	if err != nil {
		return nil, err
	}
	return c.Limits(), nil
}

// Restore loads the last persisted snapshot, if any, as the current one.
// It's replaced by the first live update.
func (f *Federation) Restore(ctx context.Context) error {
	if f.repoManager == nil {
		return nil
	}

	snapshot, err := f.repoManager.SnapshotRepository().GetLatestSnapshot(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}

	f.lock.Lock()
	if snapshot.Version > f.version {
		f.version = snapshot.Version
	}
	snapshot.Restored = true
	f.snapshot.Store(snapshot)
	f.lock.Unlock()

	f.hooks.notify(UpdateBook | UpdateExchange)
	return nil
}

// Start connects to the active book source and polls the coordinators every
// interval until ctx is done or Stop is called.
func (f *Federation) Start(ctx context.Context, interval time.Duration) error {
	f.lock.Lock()
	if f.started {
		f.lock.Unlock()
		return ErrFederationStarted
	}
	f.started = true
	settings := f.settings
	f.lock.Unlock()

	if settings.Connection == domain.ConnectionNostr {
		if err := f.ConnectNostr(ctx, settings); err != nil {
			return err
		}
	} else {
		f.lock.Lock()
		old := f.swapSource(newRestBookSource(f))
		f.lock.Unlock()
		if old != nil {
			old.Stop()
		}
		f.refresh(UpdateConnection)
	}

	f.wg.Add(1)
	go f.poll(ctx, interval)
	return nil
}

// Stop persists the current snapshot and releases every resource.
func (f *Federation) Stop() {
	f.cancel()
	f.wg.Wait()

	f.lock.Lock()
	old := f.swapSource(nil)
	f.lock.Unlock()
	if old != nil {
		old.Stop()
	}

	if f.repoManager != nil {
		snapshot := f.Snapshot()
		if snapshot != nil && !snapshot.Restored {
			if err := f.repoManager.SnapshotRepository().SaveSnapshot(
				context.Background(), *snapshot,
			); err != nil {
				log.WithError(err).Warn("failed to persist federation snapshot")
			}
		}
	}

	f.hooks.close()
}

func (f *Federation) poll(ctx context.Context, interval time.Duration) {
	defer f.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		eg := &errgroup.Group{}
		eg.Go(func() error { f.LoadLimits(f.ctx); return nil })
		eg.Go(func() error { f.LoadInfo(f.ctx); return nil })
		eg.Go(func() error { f.LoadBook(f.ctx); return nil })
		// nolint
		eg.Wait()

		select {
		case <-ctx.Done():
			return
		case <-f.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// swapSource must be called with the lock held. The returned source must be
// stopped after the lock is released.
func (f *Federation) swapSource(source BookSource) BookSource {
	old := f.source
	f.source = source
	f.relayPending = 0
	if source != nil {
		f.settings.Connection = source.Mode()
	}
	return old
}

// updateURLs must be called with the lock held.
func (f *Federation) updateURLs() {
	for _, c := range f.coordinators {
		c.UpdateURL(f.settings.Origin, f.settings, f.hostURL)
	}
}

// relayURLs must be called with the lock held. Self-hosted clients only
// connect to the relay of their host.
func (f *Federation) relayURLs() []string {
	if f.settings.Selfhosted {
		if url := domain.RelayURLFromBase(f.hostURL); url != "" {
			return []string{url}
		}
	}

	seen := make(map[string]bool)
	relays := make([]string, 0, len(f.relays)+len(f.aliases))
	add := func(url string) {
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		relays = append(relays, url)
	}
	for _, url := range f.relays {
		add(url)
	}
	for _, alias := range f.aliases {
		profile := f.coordinators[alias].Profile()
		add(profile.RelayURL(f.settings.Network, f.settings.Origin))
	}
	return relays
}

func (f *Federation) authors() []string {
	authors := make([]string, 0, len(f.aliases)+len(f.thirdParties))
	for _, alias := range f.aliases {
		if key := f.coordinators[alias].Profile().NostrHexPubkey; key != "" {
			authors = append(authors, key)
		}
	}
	for _, p := range f.ThirdParties() {
		if p.NostrHexPubkey != "" {
			authors = append(authors, p.NostrHexPubkey)
		}
	}
	return authors
}

func (f *Federation) enabledCoordinators() []*Coordinator {
	coordinators := make([]*Coordinator, 0, len(f.aliases))
	for _, c := range f.Coordinators() {
		if c.IsEnabled() {
			coordinators = append(coordinators, c)
		}
	}
	return coordinators
}

func (f *Federation) forEachEnabled(fn func(c *Coordinator)) {
	eg := &errgroup.Group{}
	for _, c := range f.enabledCoordinators() {
		c := c
		eg.Go(func() error {
			fn(c)
			return nil
		})
	}
	// nolint
	eg.Wait()
}

func (f *Federation) trustPolicy() domain.TrustPolicy {
	policy := domain.TrustPolicy{
		Enabled:      make(map[string]bool),
		Federated:    make(map[string]bool),
		ThirdParties: make(map[string]bool),
	}
	for _, c := range f.Coordinators() {
		policy.Enabled[c.ShortAlias()] = c.IsEnabled()
		policy.Federated[c.ShortAlias()] = c.Profile().Federated
	}
	for alias := range f.thirdParties {
		policy.ThirdParties[alias] = true
	}
	return policy
}

func (f *Federation) beginBookLoad(count int) {
	f.lock.Lock()
	f.bookPending += count
	f.publishSnapshot()
	f.lock.Unlock()

	f.hooks.notify(UpdateLoading)
}

func (f *Federation) endBookLoad() {
	f.lock.Lock()
	if f.bookPending > 0 {
		f.bookPending--
	}
	f.publishSnapshot()
	f.lock.Unlock()

	f.hooks.notify(UpdateBook | UpdateLoading)
}

func (f *Federation) resetRelayBook(source BookSource, pending int) {
	f.lock.Lock()
	if f.source != source {
		f.lock.Unlock()
		return
	}
	f.relayBook = make(map[string]domain.PublicOrder)
	f.eventTimes = make(map[string]time.Time)
	f.relayPending = pending
	f.publishSnapshot()
	f.lock.Unlock()

	f.hooks.notify(UpdateBook | UpdateLoading)
}

func (f *Federation) endRelayLoad(source BookSource) {
	f.lock.Lock()
	if f.source != source {
		f.lock.Unlock()
		return
	}
	if f.relayPending > 0 {
		f.relayPending--
	}
	f.publishSnapshot()
	f.lock.Unlock()

	f.hooks.notify(UpdateLoading)
}

// applyOrderEvent upserts or removes the order advertised by a relay event.
// Events older than the last one applied for the same order are ignored.
func (f *Federation) applyOrderEvent(source BookSource, event domain.OrderEvent) {
	f.lock.Lock()
	if f.source != source {
		f.lock.Unlock()
		return
	}
	if last, ok := f.eventTimes[event.Key]; ok && event.CreatedAt.Before(last) {
		f.lock.Unlock()
		return
	}
	f.eventTimes[event.Key] = event.CreatedAt
	if event.Withdrawn || event.Order == nil {
		delete(f.relayBook, event.Key)
	} else {
		f.relayBook[event.Key] = *event.Order
	}
	f.publishSnapshot()
	f.lock.Unlock()

	f.hooks.notify(UpdateBook)
}

func (f *Federation) refresh(kinds UpdateKind) {
	f.lock.Lock()
	f.publishSnapshot()
	f.lock.Unlock()

	f.hooks.notify(kinds)
}

// publishSnapshot must be called with the lock held.
func (f *Federation) publishSnapshot() {
	f.version++

	var book map[string]domain.PublicOrder
	if f.settings.Connection == domain.ConnectionNostr {
		book = make(map[string]domain.PublicOrder, len(f.relayBook))
		for key, order := range f.relayBook {
			book[key] = order
		}
	} else {
		book = make(map[string]domain.PublicOrder)
		for _, alias := range f.aliases {
			c := f.coordinators[alias]
			if !c.IsEnabled() {
				continue
			}
			for _, order := range c.Book() {
				book[order.Key()] = order
			}
		}
	}

	loading := f.bookPending > 0 || f.relayPending > 0
	infos := make([]domain.Info, 0, len(f.aliases))
	enabled := 0
	for _, alias := range f.aliases {
		c := f.coordinators[alias]
		if !c.IsEnabled() {
			continue
		}
		enabled++
		if c.IsLoading() {
			loading = true
		}
		if info := c.Info(); info != nil {
			infos = append(infos, *info)
		}
	}

	f.snapshot.Store(&domain.Snapshot{
		Version:    f.version,
		Connection: f.settings.Connection,
		Loading:    loading,
		Book:       book,
		Exchange:   domain.NewExchangeInfo(infos, enabled, len(f.aliases)),
	})
}

func validateSettings(settings domain.Settings) error {
	if err := settings.Network.Validate(); err != nil {
		return err
	}
	if err := settings.Origin.Validate(); err != nil {
		return err
	}
	return settings.Connection.Validate()
}
