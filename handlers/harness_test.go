package handlers

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"shopbot/cart"
	"shopbot/models"
	"shopbot/orders"
	"shopbot/repositories"
	"shopbot/states"
)

// In-memory fakes standing in for the gorm repositories. Every method
// returns copies, so tests observe only what was explicitly persisted.

type memUsers struct {
	byID map[int64]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int64]*models.User)}
}

func (m *memUsers) put(u *models.User) {
	if u.State == "" {
		u.State = models.StateNormal
	}
	cp := *u
	m.byID[u.ID] = &cp
}

func (m *memUsers) ByID(ctx context.Context, telegramID int64) (*models.User, error) {
	u, ok := m.byID[telegramID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateContact(ctx context.Context, telegramID int64, phone, address string) error {
	u, ok := m.byID[telegramID]
	if !ok {
		return repositories.ErrNotFound
	}
	if phone != "" {
		u.Phone = phone
	}
	if address != "" {
		u.Address = address
	}
	return nil
}

func (m *memUsers) Admins(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.byID {
		if u.Role == models.RoleAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) SetConversation(ctx context.Context, telegramID int64, state string, scratch datatypes.JSON) error {
	u, ok := m.byID[telegramID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.State = state
	u.Scratch = scratch
	return nil
}

type memProducts struct {
	nextID uint
	byID   map[uint]*models.Product
}

func newMemProducts() *memProducts {
	return &memProducts{nextID: 1, byID: make(map[uint]*models.Product)}
}

func (m *memProducts) Create(ctx context.Context, p *models.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = m.nextID
	m.nextID++
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) Update(ctx context.Context, p *models.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := m.byID[p.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) ByID(ctx context.Context, id uint) (*models.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) ByCategory(ctx context.Context, categoryID uint, offset, limit int) ([]models.Product, int64, error) {
	var all []models.Product
	for _, p := range m.byID {
		if p.CategoryID == categoryID {
			all = append(all, *p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memProducts) Delete(ctx context.Context, id uint) error {
	if _, ok := m.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memProducts) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	p, ok := m.byID[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

type memCategories struct {
	nextID uint
	byID   map[uint]*models.Category
}

func newMemCategories() *memCategories {
	return &memCategories{nextID: 1, byID: make(map[uint]*models.Category)}
}

func (m *memCategories) add(name, description string) *models.Category {
	c := &models.Category{ID: m.nextID, Name: name, Slug: models.Slugify(name), Description: description}
	m.nextID++
	m.byID[c.ID] = c
	cp := *c
	return &cp
}

func (m *memCategories) GetOrCreate(ctx context.Context, name, description string) (*models.Category, bool, error) {
	for _, c := range m.byID {
		if c.Name == name {
			cp := *c
			return &cp, false, nil
		}
	}
	c := m.add(name, description)
	return c, true, nil
}

func (m *memCategories) ByID(ctx context.Context, id uint) (*models.Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCategories) ByName(ctx context.Context, name string) (*models.Category, error) {
	for _, c := range m.byID {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memCategories) All(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range m.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCategories) Update(ctx context.Context, c *models.Category) error {
	if _, ok := m.byID[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	c.Slug = models.Slugify(c.Name)
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCategories) Delete(ctx context.Context, id uint) error {
	if _, ok := m.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memLines struct {
	nextID uint
	byID   map[uint]*models.CartLine
	prods  *memProducts
}

func newMemLines(prods *memProducts) *memLines {
	return &memLines{nextID: 1, byID: make(map[uint]*models.CartLine), prods: prods}
}

func (m *memLines) withProduct(l models.CartLine) models.CartLine {
	if p, ok := m.prods.byID[l.ProductID]; ok {
		l.Product = *p
	}
	return l
}

func (m *memLines) LinesFor(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var out []models.CartLine
	for _, l := range m.byID {
		if l.UserID == userID {
			out = append(out, m.withProduct(*l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLines) LineByID(ctx context.Context, id uint) (*models.CartLine, error) {
	l, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := m.withProduct(*l)
	return &cp, nil
}

func (m *memLines) LineFor(ctx context.Context, userID int64, productID uint) (*models.CartLine, error) {
	for _, l := range m.byID {
		if l.UserID == userID && l.ProductID == productID {
			cp := m.withProduct(*l)
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memLines) Save(ctx context.Context, line *models.CartLine) error {
	if line.ID == 0 {
		line.ID = m.nextID
		m.nextID++
	}
	cp := *line
	cp.Product = models.Product{}
	m.byID[line.ID] = &cp
	return nil
}

func (m *memLines) Delete(ctx context.Context, id uint) error {
	delete(m.byID, id)
	return nil
}

func (m *memLines) Clear(ctx context.Context, userID int64) error {
	for id, l := range m.byID {
		if l.UserID == userID {
			delete(m.byID, id)
		}
	}
	return nil
}

type memOrders struct {
	nextID uint
	byID   map[uint]*models.Order
}

func newMemOrders() *memOrders {
	return &memOrders{nextID: 1, byID: make(map[uint]*models.Order)}
}

func (m *memOrders) Create(ctx context.Context, order *models.Order) error {
	order.ID = m.nextID
	m.nextID++
	cp := *order
	m.byID[order.ID] = &cp
	return nil
}

func (m *memOrders) ByID(ctx context.Context, id uint) (*models.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) ByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memOrders) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.byID {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	o, ok := m.byID[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

// memSink records every render and callback answer.
type memSink struct {
	sent     []*Render
	answered []string
}

func (m *memSink) Send(ctx context.Context, r *Render) error {
	if r != nil {
		m.sent = append(m.sent, r)
	}
	return nil
}

func (m *memSink) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *memSink) last() *Render {
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1]
}

// harness wires the full handler chain against the in-memory stores, the
// same shape the bootstrap builds in production.
type harness struct {
	t          *testing.T
	users      *memUsers
	products   *memProducts
	categories *memCategories
	lines      *memLines
	orderRepo  *memOrders
	sink       *memSink
	states     *states.Store
	env        *Env
	dispatcher *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	users := newMemUsers()
	products := newMemProducts()
	categories := newMemCategories()
	lines := newMemLines(products)
	orderRepo := newMemOrders()
	sink := &memSink{}
	log := zap.NewNop()

	stateStore := states.NewStore(users, nil, 0, log)
	notifier := NewAdminNotifier(users, sink, log)
	cartEngine := cart.NewEngine(products, lines)
	orderService := orders.NewService(orderRepo, products, lines, notifier, log)

	env := &Env{
		States:     stateStore,
		Cart:       cartEngine,
		Orders:     orderService,
		Users:      users,
		Products:   products,
		Categories: categories,
		PageSize:   5,
		Logger:     log,
	}

	return &harness{
		t:          t,
		users:      users,
		products:   products,
		categories: categories,
		lines:      lines,
		orderRepo:  orderRepo,
		sink:       sink,
		states:     stateStore,
		env:        env,
		dispatcher: NewChainDispatcher(env, sink, stateStore, log),
	}
}

func (h *harness) addUser(id int64, role string) *models.User {
	h.users.put(&models.User{ID: id, Username: "u" + role, Role: role})
	u, _ := h.users.ByID(context.Background(), id)
	return u
}

// event builds an Event the way the update loop does: fresh user row,
// state decoded at the boundary.
func (h *harness) event(userID int64, kind Kind) *Event {
	h.t.Helper()
	user, err := h.users.ByID(context.Background(), userID)
	require.NoError(h.t, err)
	return &Event{
		Kind:   kind,
		ChatID: userID,
		User:   user,
		State:  h.states.Current(user.State),
	}
}

func (h *harness) text(userID int64, text string) *Render {
	ev := h.event(userID, KindText)
	ev.Text = text
	if strings.HasPrefix(text, "/") {
		ev.Kind = KindCommand
		ev.Command = strings.TrimPrefix(strings.Fields(text)[0], "/")
	}
	h.dispatcher.Dispatch(context.Background(), ev)
	return h.sink.last()
}

func (h *harness) callbackToken(userID int64, token string) *Render {
	ev := h.event(userID, KindCallback)
	ev.CallbackID = "cb"
	ev.Token = token
	h.dispatcher.Dispatch(context.Background(), ev)
	return h.sink.last()
}

func (h *harness) contact(userID int64, phone string) *Render {
	ev := h.event(userID, KindContact)
	ev.ContactPhone = phone
	h.dispatcher.Dispatch(context.Background(), ev)
	return h.sink.last()
}

func (h *harness) photo(userID int64, fileID string) *Render {
	ev := h.event(userID, KindPhoto)
	ev.PhotoFileID = fileID
	h.dispatcher.Dispatch(context.Background(), ev)
	return h.sink.last()
}

func (h *harness) stateOf(userID int64) states.State {
	u, err := h.users.ByID(context.Background(), userID)
	require.NoError(h.t, err)
	return h.states.Current(u.State)
}

func (h *harness) scratchOf(userID int64) datatypes.JSON {
	u, err := h.users.ByID(context.Background(), userID)
	require.NoError(h.t, err)
	return u.Scratch
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}
