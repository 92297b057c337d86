package services_test

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/cache"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/event"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/storage"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/testkit"
)

// recorder collects event payloads. The bus has no pool, so FireAsync runs
// listeners inline.
type recorder struct {
	mu     sync.Mutex
	events map[string][]any
}

func (r *recorder) listen(bus *event.Bus, names ...string) {
	for _, name := range names {
		name := name
		bus.Listen(name, func(_ context.Context, payload any) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events[name] = append(r.events[name], payload)
			return nil
		})
	}
}

func (r *recorder) get(name string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events[name]...)
}

type fixture struct {
	db      *gorm.DB
	store   *cache.MemoryStore
	clock   *testkit.Clock
	events  *recorder
	auth    *services.AuthService
	catalog *services.CatalogService
	carts   *services.CartService
	orders  *services.OrderService
	chat    *services.ChatService
	images  *services.ImageService
	disk    *storage.LocalDisk
}

func newFixture(t *testing.T, stockPolicy string) *fixture {
	t.Helper()
	db := testkit.NewDB(t)
	store := cache.NewMemoryStore()
	clock := testkit.NewClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	bus := event.NewBus(nil)
	rec := &recorder{events: map[string][]any{}}
	rec.listen(bus, services.EventOrderCreated, services.EventOrderStatusChanged, services.EventChatEscalated)

	users := repositories.NewUserRepository(db)
	issuer := auth.NewIssuer("test-secret", time.Hour, auth.WithDenylist(auth.NewDenylist(store)))

	f := &fixture{db: db, store: store, clock: clock, events: rec}
	f.auth = services.NewAuthService(users, issuer)
	f.catalog = services.NewCatalogService(repositories.NewProductRepository(db), store, time.Minute)
	f.carts = services.NewCartService(repositories.NewCartRepository(db), f.catalog, stockPolicy)
	f.orders = services.NewOrderService(repositories.NewOrderRepository(db), users, bus)
	responder := services.NewResponder(services.DefaultRules(f.catalog, f.orders, f.carts)...)
	f.chat = services.NewChatService(repositories.NewChatRepository(db), responder, bus, clock.Now)

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://files.test/storage")
	require.NoError(t, err)
	f.disk = disk
	f.images = services.NewImageService(disk, f.catalog, 1024)
	return f
}

func (f *fixture) signup(t *testing.T, username string) *services.Session {
	t.Helper()
	s, err := f.auth.Signup(context.Background(), services.SignupInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), services.ProductInput{
		Name:     name,
		Category: "Almacén",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	})
	require.NoError(t, err)
	return p
}

func principal(s *services.Session) *auth.Principal {
	return &auth.Principal{UserID: s.User.ID, Username: s.User.Username, Email: s.User.Email, IsAdmin: s.User.IsAdmin}
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()

	s := f.signup(t, "alice")
	assert.NotEmpty(t, s.Token)
	assert.False(t, s.User.IsAdmin)

	cart, err := f.carts.GetCart(ctx, s.User.ID)
	require.NoError(t, err, "signup creates the cart")
	assert.Empty(t, cart.Items)

	p, err := f.auth.Verify(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	_, err = f.auth.Signup(ctx, services.SignupInput{Username: "other", Email: "ALICE@example.com", Password: "Secret123"})
	assert.True(t, apperr.Is(err, apperr.AlreadyExists), "got %v", err)

	_, err = f.auth.Login(ctx, "alice", "wrong")
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "got %v", err)
	_, err = f.auth.Login(ctx, "nobody", "Secret123")
	assert.Equal(t, "invalid username/password", apperr.MessageOf(err))

	_, err = f.auth.Signup(ctx, services.SignupInput{Username: "ALICE", Email: "alice2@example.com", Password: "Secret123"})
	assert.True(t, apperr.Is(err, apperr.AlreadyExists), "usernames ignore case: got %v", err)

	for _, identity := range []string{"alice@example.com", "ALICE@example.com", " Alice "} {
		got, err := f.auth.Login(ctx, identity, "Secret123")
		require.NoError(t, err, identity)
		assert.Equal(t, s.User.ID, got.User.ID, identity)
	}

	ok, err := f.auth.VerifyPassword(ctx, "alice", "Secret123")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.auth.VerifyPassword(ctx, "ALICE@EXAMPLE.COM", "Secret123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "bob")

	p, err := f.auth.Verify(ctx, s.Token)
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(ctx, p.Claims))

	_, err = f.auth.Verify(ctx, s.Token)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "got %v", err)
}

func TestAuthService_VerifyUsesStoredUser(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "carol")

	require.NoError(t, f.auth.SetAdmin(ctx, "carol", true))
	p, err := f.auth.Verify(ctx, s.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin, "admin rights come from the database")

	require.NoError(t, f.auth.Delete(ctx, s.User.ID))
	_, err = f.auth.Verify(ctx, s.Token)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "got %v", err)
	assert.Equal(t, "user no longer exists", apperr.MessageOf(err))
}

func TestCatalogService_GetIsCached(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	p := f.product(t, "Arroz", "1.10", 4)

	_, err := f.catalog.Get(ctx, p.ID)
	require.NoError(t, err)

	// A write behind the service's back is invisible until invalidation.
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", 99).Error)
	cached, err := f.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, cached.Stock)

	_, err = f.catalog.Update(ctx, p.ID, services.ProductInput{
		Name: "Arroz", Category: "Almacén", Price: decimal.RequireFromString("1.30"), Stock: 7,
	})
	require.NoError(t, err)
	fresh, err := f.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, fresh.Stock)
	assert.Equal(t, "1.30", fresh.Price.StringFixed(2))

	require.NoError(t, f.catalog.Delete(ctx, p.ID))
	_, err = f.catalog.Get(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)
}

func TestCatalogService_CreateValidates(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()

	cases := map[string]services.ProductInput{
		"category": {Name: "X", Category: "Electrónica", Price: decimal.NewFromInt(1)},
		"price":    {Name: "X", Category: "Varios", Price: decimal.NewFromInt(-1)},
		"stock":    {Name: "X", Category: "Varios", Price: decimal.NewFromInt(1), Stock: -2},
		"name":     {Name: "  ", Category: "Varios", Price: decimal.NewFromInt(1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.catalog.Create(ctx, in)
			assert.True(t, apperr.Is(err, apperr.InvalidInput), "got %v", err)
		})
	}
}

func TestCatalogService_Export(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	f.product(t, "Harina", "0.95", 20)
	f.product(t, "Azúcar", "1.05", 0)

	var buf bytes.Buffer
	require.NoError(t, f.catalog.Export(context.Background(), &buf))

	book, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := book.Sheet["Products"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Name", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "Harina", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "0.95", sheet.Rows[1].Cells[4].String())
}

func TestCartService_AddAndRemove(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "dave")
	p := f.product(t, "Galletas", "2.00", 3)

	_, err := f.carts.AddItem(ctx, s.User.ID, p.ID, 2)
	require.NoError(t, err)
	cart, err := f.carts.AddItem(ctx, s.User.ID, p.ID, 2)
	require.NoError(t, err, "warn policy lets the cart exceed stock")
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Amount)

	cart, err = f.carts.RemoveItem(ctx, s.User.ID, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Amount)

	cart, err = f.carts.RemoveItem(ctx, s.User.ID, p.ID, 3)
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "removing exactly the line amount drops it")

	_, err = f.carts.AddItem(ctx, s.User.ID, p.ID, 3)
	require.NoError(t, err)
	cart, err = f.carts.RemoveItem(ctx, s.User.ID, p.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "removing more than the line holds drops it")

	_, err = f.carts.RemoveItem(ctx, s.User.ID, p.ID, 1)
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)

	_, err = f.carts.AddItem(ctx, s.User.ID, p.ID, 0)
	assert.True(t, apperr.Is(err, apperr.InvalidInput), "got %v", err)

	_, err = f.carts.AddItem(ctx, s.User.ID, 4242, 1)
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)
}

func TestCartService_RemoveAllThenCheckout(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "alice")
	p := f.product(t, "Mate", "4.00", 10)

	_, err := f.carts.AddItem(ctx, s.User.ID, p.ID, 3)
	require.NoError(t, err)
	cart, err := f.carts.AddItem(ctx, s.User.ID, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Amount)

	cart, err = f.carts.RemoveItem(ctx, s.User.ID, p.ID, 7)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = f.orders.CreateOrder(ctx, s.User.ID)
	assert.True(t, apperr.Is(err, apperr.EmptyCart), "got %v", err)
	assert.Empty(t, f.events.get(services.EventOrderCreated))
}

func TestCartService_RejectPolicy(t *testing.T) {
	f := newFixture(t, services.StockReject)
	ctx := context.Background()
	s := f.signup(t, "erin")
	p := f.product(t, "Vino", "8.00", 2)

	_, err := f.carts.AddItem(ctx, s.User.ID, p.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, s.User.ID, p.ID, 1)
	assert.True(t, apperr.Is(err, apperr.Conflict), "got %v", err)

	cart, err := f.carts.GetCart(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Amount)
}

func TestCartService_EmptyAndCreate(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "frank")
	p := f.product(t, "Café", "5.00", 9)

	_, err := f.carts.AddItem(ctx, s.User.ID, p.ID, 1)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		cart, err := f.carts.EmptyCart(ctx, s.User.ID)
		require.NoError(t, err, "emptying is idempotent")
		assert.Empty(t, cart.Items)
	}

	_, err = f.carts.CreateCart(ctx, s.User.ID)
	assert.True(t, apperr.Is(err, apperr.AlreadyExists), "got %v", err)

	_, err = f.carts.GetCart(ctx, 777)
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)
}

func TestOrderService_CreateAndTransition(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "gina")
	other := f.signup(t, "hank")
	p := f.product(t, "Aceite", "3.25", 10)

	_, err := f.orders.GetOrders(ctx, s.User.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)

	_, err = f.orders.CreateOrder(ctx, s.User.ID)
	assert.True(t, apperr.Is(err, apperr.EmptyCart), "got %v", err)

	_, err = f.carts.AddItem(ctx, s.User.ID, p.ID, 2)
	require.NoError(t, err)
	order, err := f.orders.CreateOrder(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "6.50", order.Total.StringFixed(2))

	created := f.events.get(services.EventOrderCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "gina", created[0].(services.OrderCreated).User.Username)

	_, err = f.orders.GetOrder(ctx, principal(other), order.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound), "other users cannot see the order")

	admin := principal(other)
	admin.IsAdmin = true
	got, err := f.orders.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.orders.UpdateStatus(ctx, order.ID, "lost")
	assert.True(t, apperr.Is(err, apperr.InvalidInput), "got %v", err)

	_, err = f.orders.UpdateStatus(ctx, order.ID, models.StatusShipped)
	assert.True(t, apperr.Is(err, apperr.Conflict), "pending orders cannot ship")

	updated, err := f.orders.UpdateStatus(ctx, order.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)

	changed := f.events.get(services.EventOrderStatusChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, models.StatusPending, changed[0].(services.OrderStatusChanged).From)

	list, err := f.orders.GetOrders(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	exists, err := f.orders.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, f.orders.DeleteOrder(ctx, order.ID))
	exists, err = f.orders.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestResponder_RulePriority(t *testing.T) {
	r := services.NewResponder(
		services.Rule{Name: "stock", Match: services.Contains("stock"), Reply: func(context.Context, uint) (string, error) { return "S", nil }},
		services.Rule{Name: "order", Match: services.Contains("order"), Reply: func(context.Context, uint) (string, error) { return "O", nil }},
	)
	ctx := context.Background()

	reply, rule, err := r.Reply(ctx, 1, "ORDER and Stock please")
	require.NoError(t, err)
	assert.Equal(t, "stock", rule)
	assert.Equal(t, "S", reply)

	reply, _, err = r.Reply(ctx, 1, "hello there")
	require.NoError(t, err)
	assert.Equal(t, services.HelpText, reply)
}

func TestChatService_Exchange(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "ivy")
	p := f.product(t, "Mate", "12.00", 5)

	_, err := f.chat.GetLog(ctx, s.User.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)

	log, err := f.chat.Exchange(ctx, principal(s), "what's my order?")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, models.FromUser, log[0].From)
	assert.Equal(t, "You have no orders yet.", log[1].Message)

	_, err = f.carts.AddItem(ctx, s.User.ID, p.ID, 1)
	require.NoError(t, err)
	log, err = f.chat.Exchange(ctx, principal(s), "cart")
	require.NoError(t, err)
	assert.Equal(t, "Cart:\n  * product "+itoa(p.ID)+" x1", log[3].Message)

	order, err := f.orders.CreateOrder(ctx, s.User.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	log, err = f.chat.Exchange(ctx, principal(s), "what's my order?")
	require.NoError(t, err)
	reply := log[len(log)-1]
	assert.Equal(t, models.FromSystem, reply.From)
	assert.True(t, strings.HasPrefix(reply.Message, "Last order #"+itoa(order.ID)+" (pending), total 12.00:"), reply.Message)
	assert.False(t, reply.Timestamp.Before(log[len(log)-2].Timestamp))

	log, err = f.chat.Exchange(ctx, principal(s), "stock")
	require.NoError(t, err)
	assert.Equal(t, "Stock:\n  * Mate: 5", log[len(log)-1].Message)
}

func TestChatService_FailingRuleFallsBackToHelp(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "lena")

	broken := services.NewResponder(services.Rule{
		Name:  "order",
		Match: services.Contains("order"),
		Reply: func(context.Context, uint) (string, error) {
			return "", apperr.New(apperr.Internal, "store unavailable")
		},
	})
	chat := services.NewChatService(repositories.NewChatRepository(f.db), broken, event.NewBus(nil), f.clock.Now)

	log, err := chat.Exchange(ctx, principal(s), "where is my order")
	require.NoError(t, err)
	require.Len(t, log, 2, "every user message gets a reply")
	assert.Equal(t, models.FromUser, log[0].From)
	assert.Equal(t, models.FromSystem, log[1].From)
	assert.Equal(t, services.HelpText, log[1].Message)
}

func TestChatService_Escalation(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	s := f.signup(t, "jack")

	_, err := f.chat.Exchange(ctx, principal(s), "Quiero hablar con un ADMINISTRADOR")
	require.NoError(t, err)

	escalated := f.events.get(services.EventChatEscalated)
	require.Len(t, escalated, 1)
	e := escalated[0].(services.ChatEscalated)
	assert.Equal(t, "jack", e.Username)
	assert.Equal(t, "jack@example.com", e.Email)

	_, err = f.chat.AddMessage(ctx, s.User.ID, "robot", "hi", time.Now())
	assert.True(t, apperr.Is(err, apperr.InvalidInput), "got %v", err)
	_, err = f.chat.AddMessage(ctx, s.User.ID, models.FromUser, "   ", time.Now())
	assert.True(t, apperr.Is(err, apperr.InvalidInput), "got %v", err)
}

func TestImageService_UploadAndDelete(t *testing.T) {
	f := newFixture(t, services.StockWarn)
	ctx := context.Background()
	p := f.product(t, "Tomate", "0.50", 30)

	_, err := f.images.Upload(ctx, p.ID, "virus.exe", strings.NewReader("x"))
	assert.True(t, apperr.Is(err, apperr.InvalidInput), "got %v", err)

	_, err = f.images.Upload(ctx, p.ID, "big.png", bytes.NewReader(make([]byte, 2048)))
	assert.True(t, apperr.Is(err, apperr.InvalidInput), "got %v", err)

	_, err = f.images.Upload(ctx, 999, "a.png", strings.NewReader("png"))
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)

	updated, err := f.images.Upload(ctx, p.ID, "photo.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	url := updated.Images[0]
	assert.True(t, strings.HasPrefix(url, "http://files.test/storage/products/"), url)

	key, ok := f.disk.Key(url)
	require.True(t, ok)
	exists, err := f.disk.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	updated, err = f.images.Delete(ctx, p.ID, url)
	require.NoError(t, err)
	assert.Empty(t, updated.Images)
	exists, err = f.disk.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.images.Delete(ctx, p.ID, url)
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
