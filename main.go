package main

import (
	"context"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shopbot/cart"
	"shopbot/config"
	"shopbot/database"
	"shopbot/handlers"
	"shopbot/logger"
	"shopbot/models"
	"shopbot/orders"
	"shopbot/repositories"
	"shopbot/states"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Log.Env, cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	db, err := database.Connect(cfg.Database.DSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	users := repositories.NewUserRepository(db)
	products := repositories.NewProductRepository(db)
	categories := repositories.NewCategoryRepository(db)
	carts := repositories.NewCartRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, id := range cfg.Bot.AdminIDs {
		if err := users.EnsureRole(ctx, id, models.RoleAdmin); err != nil {
			log.Error("admin seeding failed", zap.Int64("telegram_id", id), zap.Error(err))
		}
	}

	var redis *database.Redis
	if cfg.Redis.Addr != "" {
		redis, err = database.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, running without cache", zap.Error(err))
			redis = nil
		} else {
			defer redis.Close()
		}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatal("bot api init failed", zap.Error(err))
	}
	bot.Debug = cfg.Telegram.Debug
	log.Info("authorized", zap.String("username", bot.Self.UserName))

	sink := handlers.NewTelegramSink(bot, log)
	stateStore := states.NewStore(users, redis, cfg.Redis.StateTTL, log)
	notifier := handlers.NewAdminNotifier(users, sink, log)
	cartEngine := cart.NewEngine(products, carts)
	orderService := orders.NewService(orderRepo, products, carts, notifier, log)

	env := &handlers.Env{
		States:     stateStore,
		Cart:       cartEngine,
		Orders:     orderService,
		Users:      users,
		Products:   products,
		Categories: categories,
		PageSize:   cfg.Bot.PageSize,
		Logger:     log,
	}
	dispatcher := handlers.NewChainDispatcher(env, sink, stateStore, log)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.UpdateTimeout
	u.AllowedUpdates = []string{tgbotapi.UpdateTypeMessage, tgbotapi.UpdateTypeCallbackQuery}
	updates := bot.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Bot.Workers)

	log.Info("update loop started", zap.Int("workers", cfg.Bot.Workers))

loop:
	for {
		select {
		case <-gctx.Done():
			break loop
		case update, ok := <-updates:
			if !ok {
				break loop
			}
			g.Go(func() error {
				handleUpdate(gctx, update, users, stateStore, redis, cfg, dispatcher, log)
				return nil
			})
		}
	}

	bot.StopReceivingUpdates()
	_ = g.Wait()
	log.Info("shut down")
}

func handleUpdate(
	ctx context.Context,
	update tgbotapi.Update,
	users *repositories.UserRepository,
	stateStore *states.Store,
	redis *database.Redis,
	cfg *config.Config,
	dispatcher *handlers.Dispatcher,
	log *zap.Logger,
) {
	from := update.SentFrom()
	if from == nil {
		return
	}

	ok, err := redis.Allow(ctx, from.ID, cfg.Bot.RateLimit, cfg.Bot.RateWindow)
	if err != nil {
		log.Warn("rate limiter unavailable", zap.Error(err))
	}
	if !ok {
		log.Debug("update dropped by rate limit", zap.Int64("user_id", from.ID))
		return
	}

	user, err := users.GetOrCreate(ctx, from.ID, from.UserName)
	if err != nil {
		log.Error("user load failed", zap.Int64("user_id", from.ID), zap.Error(err))
		return
	}

	ev := handlers.NewEvent(update, user, stateStore.Current(user.State))
	if ev == nil {
		return
	}
	dispatcher.Dispatch(ctx, ev)
}
