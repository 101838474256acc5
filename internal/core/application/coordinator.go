package application

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
)

// Coordinator is the runtime state of a federation member. Every resource
// (book, limits, info) is fetched independently and replaced wholesale on
// success. A failed fetch leaves the previous state untouched.
type Coordinator struct {
	profile   domain.CoordinatorProfile
	client    ports.CoordinatorClient
	limitRepo domain.LimitRepository

	lock     *sync.RWMutex
	enabled  bool
	url      string
	basePath string
	book     map[int64]domain.PublicOrder
	limits   domain.LimitList
	info     *domain.Info

	loadingBook   atomic.Bool
	loadingLimits atomic.Bool
	loadingInfo   atomic.Bool
	// onLoadStart, if set, is invoked every time a fetch begins.
	onLoadStart func()
}

// NewCoordinator returns the runtime of the given manifest entry. The limit
// repository is optional.
func NewCoordinator(
	profile domain.CoordinatorProfile, client ports.CoordinatorClient,
	limitRepo domain.LimitRepository, enabled bool,
) (*Coordinator, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrNullCoordinatorClient
	}

	return &Coordinator{
		profile:   profile,
		client:    client,
		limitRepo: limitRepo,
		lock:      &sync.RWMutex{},
		enabled:   enabled,
		book:      make(map[int64]domain.PublicOrder),
		limits:    make(domain.LimitList),
	}, nil
}

func (c *Coordinator) ShortAlias() string {
	return c.profile.ShortAlias
}

func (c *Coordinator) Profile() domain.CoordinatorProfile {
	return c.profile
}

func (c *Coordinator) IsEnabled() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.enabled
}

// URL returns the effective base url of the coordinator api, empty if it has
// not been resolved yet.
func (c *Coordinator) URL() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.url == "" {
		return ""
	}
	return c.url + c.basePath
}

// UpdateURL selects the url to reach the coordinator for the given settings.
func (c *Coordinator) UpdateURL(
	origin domain.Origin, settings domain.Settings, hostURL string,
) {
	url, basePath := c.profile.ResolveURL(origin, settings, hostURL)

	c.lock.Lock()
	defer c.lock.Unlock()
	c.url, c.basePath = url, basePath
}

// LoadBook fetches the public orders of the coordinator. It's a no-op if the
// coordinator is disabled, has no url, or a fetch is already in flight.
// onDataLoad is invoked once the fetch is over, whatever the result.
func (c *Coordinator) LoadBook(ctx context.Context, onDataLoad func()) {
	url, ok := c.acquire(&c.loadingBook)
	if !ok {
		return
	}

	orders, err := c.client.GetBook(ctx, url)
	if err != nil {
		c.logError(err, "book")
	} else {
		book := make(map[int64]domain.PublicOrder, len(orders))
		for _, order := range orders {
			order.Coordinator = c.profile.ShortAlias
			book[order.ID] = order
		}

		c.lock.Lock()
		if c.enabled {
			c.book = book
		}
		c.lock.Unlock()
	}

	c.release(&c.loadingBook, onDataLoad)
}

// LoadLimits fetches the limits of the coordinator and reconciles them with
// the previous observation, restored from the repository after a restart.
func (c *Coordinator) LoadLimits(ctx context.Context, onDataLoad func()) {
	url, ok := c.acquire(&c.loadingLimits)
	if !ok {
		return
	}

	observed, err := c.client.GetLimits(ctx, url)
	if err != nil {
		c.logError(err, "limits")
		c.release(&c.loadingLimits, onDataLoad)
		return
	}

	prev := c.Limits()
	if len(prev) <= 0 && c.limitRepo != nil {
		stored, err := c.limitRepo.GetLimits(ctx, c.profile.ShortAlias)
		if err != nil {
			c.logError(err, "stored limits")
		}
		prev = stored
	}
	limits := prev.Merge(observed)

	c.lock.Lock()
	enabled := c.enabled
	if enabled {
		c.limits = limits
	}
	c.lock.Unlock()

	if enabled && c.limitRepo != nil {
		if err := c.limitRepo.UpdateLimits(
			ctx, c.profile.ShortAlias, limits,
		); err != nil {
			c.logError(err, "stored limits")
		}
	}

	c.release(&c.loadingLimits, onDataLoad)
}

// LoadInfo fetches the stats of the coordinator.
func (c *Coordinator) LoadInfo(ctx context.Context, onDataLoad func()) {
	url, ok := c.acquire(&c.loadingInfo)
	if !ok {
		return
	}

	info, err := c.client.GetInfo(ctx, url)
	if err != nil {
		c.logError(err, "info")
	} else {
		c.lock.Lock()
		if c.enabled {
			c.info = info
		}
		c.lock.Unlock()
	}

	c.release(&c.loadingInfo, onDataLoad)
}

// Enable makes the coordinator participate in the federation again and
// refreshes its limits.
func (c *Coordinator) Enable(ctx context.Context, onDataLoad func()) {
	c.lock.Lock()
	c.enabled = true
	c.lock.Unlock()

	c.LoadLimits(ctx, onDataLoad)
}

// Disable drops every resource of the coordinator so that it contributes
// nothing to the federation.
func (c *Coordinator) Disable() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.enabled = false
	c.book = make(map[int64]domain.PublicOrder)
	c.limits = make(domain.LimitList)
	c.info = nil
}

// Book returns the orders of the coordinator sorted by id.
func (c *Coordinator) Book() []domain.PublicOrder {
	c.lock.RLock()
	defer c.lock.RUnlock()

	orders := make([]domain.PublicOrder, 0, len(c.book))
	for _, order := range c.book {
		orders = append(orders, order)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].ID < orders[j].ID
	})
	return orders
}

func (c *Coordinator) Limits() domain.LimitList {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.limits.Copy()
}

// Info returns a copy of the last fetched info, nil if not available.
func (c *Coordinator) Info() *domain.Info {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.info == nil {
		return nil
	}
	info := *c.info
	return &info
}

func (c *Coordinator) IsLoadingBook() bool {
	return c.loadingBook.Load()
}

func (c *Coordinator) IsLoadingLimits() bool {
	return c.loadingLimits.Load()
}

func (c *Coordinator) IsLoadingInfo() bool {
	return c.loadingInfo.Load()
}

func (c *Coordinator) IsLoading() bool {
	return c.IsLoadingBook() || c.IsLoadingLimits() || c.IsLoadingInfo()
}

// SizeLimit returns the max order size the coordinator can advertise now.
func (c *Coordinator) SizeLimit(now time.Time) btcutil.Amount {
	return c.profile.SizeLimit(now)
}

func (c *Coordinator) acquire(flag *atomic.Bool) (string, bool) {
	url := c.URL()
	if !c.IsEnabled() || url == "" {
		return "", false
	}
	if !flag.CompareAndSwap(false, true) {
		return "", false
	}
	if c.onLoadStart != nil {
		c.onLoadStart()
	}
	return url, true
}

func (c *Coordinator) release(flag *atomic.Bool, onDataLoad func()) {
	flag.Store(false)
	if onDataLoad != nil {
		onDataLoad()
	}
}

func (c *Coordinator) logError(err error, resource string) {
	log.WithError(err).WithFields(log.Fields{
		"coordinator": c.profile.ShortAlias,
		"resource":    resource,
	}).Warn("failed to load coordinator resource")
}
