// Package porttest provides an in-memory port.Store for service and handler tests.
package porttest

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/nikolayk812/ecart-demo/internal/port"
)

type state struct {
	products []domain.Product
	cart     []domain.CartItem
	orders   []domain.Order
	keys     map[string]uuid.UUID
}

func (s state) clone() state {
	keys := make(map[string]uuid.UUID, len(s.keys))
	for k, v := range s.keys {
		keys[k] = v
	}
	return state{
		products: slices.Clone(s.products),
		cart:     slices.Clone(s.cart),
		orders:   slices.Clone(s.orders),
		keys:     keys,
	}
}

// MemStore keeps catalog, cart and orders in memory.
// InTx works on a snapshot that replaces the shared state only when fn succeeds;
// transactions are serialized.
type MemStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data state

	unavailable atomic.Bool
	fault       atomic.Pointer[commitFault]
}

// commitFault is consumed by the next successful InTx.
type commitFault struct {
	err  error
	down bool
}

func NewMemStore(products ...domain.Product) *MemStore {
	return &MemStore{
		data: state{
			products: slices.Clone(products),
			keys:     map[string]uuid.UUID{},
		},
	}
}

// SetAvailable toggles whether calls succeed or fail with ErrDataUnavailable.
func (m *MemStore) SetAvailable(ok bool) {
	m.unavailable.Store(!ok)
}

// FailNextCommit makes the next InTx apply its changes and then return err.
func (m *MemStore) FailNextCommit(err error) {
	m.fault.Store(&commitFault{err: err})
}

// DropAfterNextCommit is FailNextCommit that also leaves the store unavailable.
func (m *MemStore) DropAfterNextCommit(err error) {
	m.fault.Store(&commitFault{err: err, down: true})
}

// SetPrice changes a catalog price in place.
func (m *MemStore) SetPrice(id int64, price domain.Money) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.data.products {
		if m.data.products[i].ID == id {
			m.data.products[i].Price = price
		}
	}
}

func (m *MemStore) Products() port.ProductRepository {
	return &memView{m: m}
}

func (m *MemStore) Cart() port.CartRepository {
	return &memView{m: m}
}

func (m *MemStore) Orders() port.OrderRepository {
	return &memView{m: m}
}

func (m *MemStore) InTx(ctx context.Context, fn func(tx port.Store) error) error {
	if err := m.check(ctx); err != nil {
		return err
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.data.clone()
	m.mu.Unlock()

	tx := &memTx{m: m, data: snapshot}
	if err := fn(tx); err != nil {
		return err
	}

	if err := m.check(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.data = tx.data
	m.mu.Unlock()

	if f := m.fault.Swap(nil); f != nil {
		if f.down {
			m.SetAvailable(false)
		}
		return f.err
	}

	return nil
}

func (m *MemStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}
	if m.unavailable.Load() {
		return fmt.Errorf("memstore: %w", domain.ErrDataUnavailable)
	}
	return nil
}

// memView runs each call against the shared state.
type memView struct {
	m *MemStore
}

func (v *memView) do(ctx context.Context, fn func(d *state) error) error {
	if err := v.m.check(ctx); err != nil {
		return err
	}

	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	return fn(&v.m.data)
}

func (v *memView) ListProducts(ctx context.Context) (ps []domain.Product, err error) {
	err = v.do(ctx, func(d *state) error { ps = listProducts(d); return nil })
	return
}

func (v *memView) GetProduct(ctx context.Context, id int64) (p domain.Product, err error) {
	err = v.do(ctx, func(d *state) error { p, err = getProduct(d, id); return err })
	return
}

func (v *memView) LockCart(context.Context) error {
	return fmt.Errorf("LockCart outside a transaction: %w", domain.ErrInvalidState)
}

func (v *memView) GetCart(ctx context.Context) (c domain.Cart, err error) {
	err = v.do(ctx, func(d *state) error { c = getCart(d); return nil })
	return
}

func (v *memView) AddItem(ctx context.Context, productID int64, delta int) (q int, err error) {
	err = v.do(ctx, func(d *state) error { q, err = addItem(d, productID, delta); return err })
	return
}

func (v *memView) DeleteItem(ctx context.Context, productID int64) (ok bool, err error) {
	err = v.do(ctx, func(d *state) error { ok = deleteItem(d, productID); return nil })
	return
}

func (v *memView) ClearCart(ctx context.Context) error {
	return v.do(ctx, func(d *state) error { d.cart = nil; return nil })
}

func (v *memView) CreateOrder(ctx context.Context, order domain.Order, key string) error {
	return v.do(ctx, func(d *state) error { return createOrder(d, order, key) })
}

func (v *memView) GetOrder(ctx context.Context, id uuid.UUID) (o domain.Order, err error) {
	err = v.do(ctx, func(d *state) error { o, err = getOrder(d, id); return err })
	return
}

func (v *memView) GetOrderByIdempotencyKey(ctx context.Context, key string) (o domain.Order, err error) {
	err = v.do(ctx, func(d *state) error { o, err = getOrderByKey(d, key); return err })
	return
}

func (v *memView) ListOrders(ctx context.Context) (os []domain.Order, err error) {
	err = v.do(ctx, func(d *state) error { os = listOrders(d); return nil })
	return
}

// memTx works on a private snapshot owned by a single InTx call.
type memTx struct {
	m    *MemStore
	data state
}

func (t *memTx) Products() port.ProductRepository { return &memTxView{t: t} }
func (t *memTx) Cart() port.CartRepository        { return &memTxView{t: t} }
func (t *memTx) Orders() port.OrderRepository     { return &memTxView{t: t} }

func (t *memTx) InTx(_ context.Context, fn func(tx port.Store) error) error {
	return fn(t)
}

type memTxView struct {
	t *memTx
}

func (v *memTxView) do(ctx context.Context, fn func(d *state) error) error {
	if err := v.t.m.check(ctx); err != nil {
		return err
	}
	return fn(&v.t.data)
}

func (v *memTxView) ListProducts(ctx context.Context) (ps []domain.Product, err error) {
	err = v.do(ctx, func(d *state) error { ps = listProducts(d); return nil })
	return
}

func (v *memTxView) GetProduct(ctx context.Context, id int64) (p domain.Product, err error) {
	err = v.do(ctx, func(d *state) error { p, err = getProduct(d, id); return err })
	return
}

func (v *memTxView) LockCart(ctx context.Context) error {
	return v.do(ctx, func(*state) error { return nil })
}

func (v *memTxView) GetCart(ctx context.Context) (c domain.Cart, err error) {
	err = v.do(ctx, func(d *state) error { c = getCart(d); return nil })
	return
}

func (v *memTxView) AddItem(ctx context.Context, productID int64, delta int) (q int, err error) {
	err = v.do(ctx, func(d *state) error { q, err = addItem(d, productID, delta); return err })
	return
}

func (v *memTxView) DeleteItem(ctx context.Context, productID int64) (ok bool, err error) {
	err = v.do(ctx, func(d *state) error { ok = deleteItem(d, productID); return nil })
	return
}

func (v *memTxView) ClearCart(ctx context.Context) error {
	return v.do(ctx, func(d *state) error { d.cart = nil; return nil })
}

func (v *memTxView) CreateOrder(ctx context.Context, order domain.Order, key string) error {
	return v.do(ctx, func(d *state) error { return createOrder(d, order, key) })
}

func (v *memTxView) GetOrder(ctx context.Context, id uuid.UUID) (o domain.Order, err error) {
	err = v.do(ctx, func(d *state) error { o, err = getOrder(d, id); return err })
	return
}

func (v *memTxView) GetOrderByIdempotencyKey(ctx context.Context, key string) (o domain.Order, err error) {
	err = v.do(ctx, func(d *state) error { o, err = getOrderByKey(d, key); return err })
	return
}

func (v *memTxView) ListOrders(ctx context.Context) (os []domain.Order, err error) {
	err = v.do(ctx, func(d *state) error { os = listOrders(d); return nil })
	return
}

func listProducts(d *state) []domain.Product {
	ps := slices.Clone(d.products)
	slices.SortFunc(ps, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return ps
}

func getProduct(d *state, id int64) (domain.Product, error) {
	for _, p := range d.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
}

func getCart(d *state) domain.Cart {
	var cart domain.Cart
	for _, item := range d.cart {
		p, err := getProduct(d, item.ProductID)
		if err != nil {
			continue
		}
		cart.Lines = append(cart.Lines, domain.CartLine{Item: item, Product: p})
	}
	slices.SortFunc(cart.Lines, func(a, b domain.CartLine) int { return cmp.Compare(a.Item.ProductID, b.Item.ProductID) })
	return cart
}

func addItem(d *state, productID int64, delta int) (int, error) {
	if delta <= 0 || delta > math.MaxInt32 {
		return 0, fmt.Errorf("delta %d is out of range: %w", delta, domain.ErrInvalidArgument)
	}
	if _, err := getProduct(d, productID); err != nil {
		return 0, err
	}

	for i := range d.cart {
		if d.cart[i].ProductID == productID {
			if d.cart[i].Quantity > math.MaxInt32-delta {
				return 0, fmt.Errorf("product %d quantity exceeds the limit: %w", productID, domain.ErrInvalidArgument)
			}
			d.cart[i].Quantity += delta
			return d.cart[i].Quantity, nil
		}
	}

	d.cart = append(d.cart, domain.CartItem{ProductID: productID, Quantity: delta, AddedAt: time.Now().UTC()})
	return delta, nil
}

func deleteItem(d *state, productID int64) bool {
	n := len(d.cart)
	d.cart = slices.DeleteFunc(d.cart, func(item domain.CartItem) bool { return item.ProductID == productID })
	return len(d.cart) != n
}

func createOrder(d *state, order domain.Order, key string) error {
	if key != "" {
		if _, ok := d.keys[key]; ok {
			return fmt.Errorf("idempotency key %q: %w", key, domain.ErrInvalidState)
		}
		d.keys[key] = order.ID
	}
	order.Items = slices.Clone(order.Items)
	d.orders = append(d.orders, order)
	return nil
}

func getOrder(d *state, id uuid.UUID) (domain.Order, error) {
	for _, o := range d.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
}

func getOrderByKey(d *state, key string) (domain.Order, error) {
	if key == "" {
		return domain.Order{}, fmt.Errorf("empty idempotency key: %w", domain.ErrInvalidArgument)
	}
	id, ok := d.keys[key]
	if !ok {
		return domain.Order{}, fmt.Errorf("idempotency key %q: %w", key, domain.ErrNotFound)
	}
	return getOrder(d, id)
}

func listOrders(d *state) []domain.Order {
	os := slices.Clone(d.orders)
	slices.SortFunc(os, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})
	return os
}
