// Package app arma el grafo de dependencias compartido por la API y el worker:
// almacenamiento, motor de inventario, casos de uso y adaptador POS.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockledger-api/internal/application/auth"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/possync"
	"github.com/jhoicas/stockledger-api/internal/application/production"
	"github.com/jhoicas/stockledger-api/internal/application/purchase"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
	"github.com/jhoicas/stockledger-api/internal/application/stockcount"
	"github.com/jhoicas/stockledger-api/internal/application/transfer"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/possource"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Services casos de uso listos para exponer por HTTP o ejecutar desde tareas.
type Services struct {
	Ledger      *ledger.Engine
	Transfers   *transfer.Workflow
	Purchases   *purchase.UseCase
	Sales       *sales.SaleUseCase
	Wholesale   *sales.WholesaleUseCase
	StockCounts *stockcount.UseCase
	Repackaging *production.RepackagingUseCase
	Recipes     *production.RecipeUseCase
	PosSync     *possync.Adapter
	Auth        *auth.AuthUseCase

	closers []func()
}

// Close libera conexiones en orden inverso a su apertura.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Build abre el almacenamiento configurado y construye los casos de uso.
// Si falla a mitad de camino cierra lo que alcanzó a abrir.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *Services, err error) {
	svc := &Services{}
	defer func() {
		if err != nil {
			svc.Close()
		}
	}()

	policy, err := ledger.ParseStockPolicy(cfg.Ledger.StockPolicy)
	if err != nil {
		return nil, err
	}

	tx, repos, err := svc.openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	productCache, err := svc.openCache(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var source possync.Source
	if cfg.POS.DatabaseURL != "" {
		reader, err := possource.New(ctx, cfg.POS.DatabaseURL, cfg.POS.SchemaPattern)
		if err != nil {
			return nil, fmt.Errorf("conexión a la base del POS: %w", err)
		}
		svc.closers = append(svc.closers, reader.Close)
		source = reader
		log.Info().Str("schema_pattern", cfg.POS.SchemaPattern).Msg("origen POS configurado")
	} else {
		log.Warn().Msg("POS_DATABASE_URL vacío: sincronización POS solo por webhook")
	}

	svc.Ledger = ledger.NewEngine(tx, repos, policy, log.Component("ledger"))
	svc.Transfers = transfer.NewWorkflow(tx, repos, svc.Ledger, log.Component("transfer"))
	svc.Purchases = purchase.NewUseCase(tx, repos, svc.Ledger, log.Component("purchase"))
	svc.Sales = sales.NewSaleUseCase(tx, repos, svc.Ledger, log.Component("sales"))
	svc.Wholesale = sales.NewWholesaleUseCase(tx, repos, svc.Ledger, log.Component("wholesale"))
	svc.StockCounts = stockcount.NewUseCase(tx, repos, svc.Ledger, log.Component("stockcount"))
	svc.Repackaging = production.NewRepackagingUseCase(tx, repos, svc.Ledger, log.Component("repackaging"))
	svc.Recipes = production.NewRecipeUseCase(tx, repos, svc.Ledger, log.Component("recipes"))
	svc.PosSync = possync.NewAdapter(tx, repos, svc.Ledger, svc.Recipes, source, productCache, possync.Config{
		BatchSize:   cfg.POS.BatchSize,
		Concurrency: cfg.POS.Concurrency,
	}, log.Component("possync"))
	svc.Auth = auth.NewAuthUseCase(tx, repos, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	return svc, nil
}

func (s *Services) openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.TxRunner, repository.Set, error) {
	if cfg.App.Storage == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		st := memory.New()
		return st, st.Repositories(), nil
	}

	if cfg.DB.AutoMigrate {
		if err := Migrate(cfg, log); err != nil {
			return nil, repository.Set{}, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, repository.Set{}, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	s.closers = append(s.closers, pool.Close)
	return postgres.NewTxRunner(pool), postgres.Repositories(pool), nil
}

func (s *Services) openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (possync.ProductCache, error) {
	if !cfg.Redis.Enabled() {
		return cache.Noop{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	s.closers = append(s.closers, func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar redis")
		}
	})
	c := cache.NewRedis(client, cfg.Redis.CacheTTL)
	if err := c.Ping(ctx); err != nil {
		// Sin caché la resolución de códigos va directo a la base.
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no responde, caché de productos deshabilitada")
		return cache.Noop{}, nil
	}
	return c, nil
}

// Migrate aplica las migraciones pendientes sobre la base configurada.
func Migrate(cfg *config.Config, log *logger.Logger) error {
	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Component("migrate"))
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
	}()
	return m.Up()
}

// RedisOpts opciones de conexión de asynq a partir de la configuración de Redis.
func RedisOpts(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}
