package gateway

import (
	"context"
	"time"

	"github.com/nikhilsaraf/go-tools/multithreading"
	"github.com/stellar/go/support/log"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/modules"
)

// Gateway holds every component of the service around one issuer identity
type Gateway struct {
	Config    *GatewayConfig
	Issuer    *modules.Issuer
	Registry  *modules.AssetRegistry
	DexAgent  *modules.DexAgent
	Router    *modules.PaymentRouter
	Rates     *modules.DexWatcher
	Accounts  *modules.AccountManager
	Bootstrap *modules.LiquidityBootstrap

	threadTracker *multithreading.ThreadTracker
	startedAt     time.Time
	l             *log.Entry
}

// MakeGateway is the factory method. The issuer comes from the configured seed, or is generated
// and lives only as long as this process.
func MakeGateway(
	cfg *GatewayConfig,
	api modules.Horizon,
	funder modules.Funder,
	l *log.Entry,
) (*Gateway, error) {
	issuer, e := modules.MakeIssuer(cfg.CustomAssetCode, cfg.IssuerSecretSeed)
	if e != nil {
		return nil, e
	}
	if cfg.IssuerSecretSeed == "" {
		l.Warnf("no ISSUER_SECRET_SEED configured, generated %s issuer %s for this process", cfg.CustomAssetCode, issuer.Address())
	}

	registry := modules.MakeAssetRegistry(cfg.USDCIssuer, issuer)
	dexAgent := modules.MakeDexAgent(
		api,
		cfg.NetworkPassphrase,
		modules.NetworkFeeWithFallback(cfg.FallbackBaseFee, l.WithField("pkg", "fees")),
		l.WithField("pkg", "dexAgent"),
	)

	return &Gateway{
		Config:   cfg,
		Issuer:   issuer,
		Registry: registry,
		DexAgent: dexAgent,
		Router:   modules.MakePaymentRouter(dexAgent, registry, modules.FirstPath, l.WithField("pkg", "router")),
		Rates: modules.MakeDexWatcher(
			api,
			registry,
			modules.DefaultTradingPairs(issuer.Asset.Code),
			cfg.Fallback(),
			l.WithField("pkg", "rates"),
		),
		Accounts:      modules.MakeAccountManager(dexAgent, funder, registry, issuer, l.WithField("pkg", "accounts")),
		Bootstrap:     modules.MakeLiquidityBootstrap(dexAgent, funder, issuer, cfg.BootstrapConfig(), l.WithField("pkg", "bootstrap")),
		threadTracker: multithreading.MakeThreadTracker(),
		startedAt:     time.Now(),
		l:             l,
	}, nil
}

// Start runs the liquidity bootstrap in the background. A failed bootstrap is logged and leaves
// conversions to the custom asset without a path; it never stops the service.
func (g *Gateway) Start(ctx context.Context) {
	g.l.Infof("starting %s liquidity bootstrap for issuer %s", g.Issuer.Asset.Code, g.Issuer.Address())
	g.threadTracker.TriggerGoroutine(func(inputs []interface{}) {
		if e := g.Bootstrap.Run(ctx); e != nil {
			g.l.Errorf("liquidity bootstrap failed, conversions to %s may find no path: %s", g.Issuer.Asset.Code, e)
			return
		}
		g.l.Infof("%s/XLM liquidity is ready", g.Issuer.Asset.Code)
	}, nil)
}

// Wait blocks until background work started by Start has finished
func (g *Gateway) Wait() {
	g.threadTracker.Wait()
}

// Uptime since MakeGateway
func (g *Gateway) Uptime() time.Duration {
	return time.Since(g.startedAt)
}
