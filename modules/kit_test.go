package modules

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/support/log"
	"github.com/stretchr/testify/require"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/ledgertest"
)

type kit struct {
	ledger    *ledgertest.Ledger
	issuer    *Issuer
	registry  *AssetRegistry
	agent     *DexAgent
	router    *PaymentRouter
	accounts  *AccountManager
	bootstrap *LiquidityBootstrap
	watcher   *DexWatcher
}

func testLogger() *log.Entry {
	l := log.New()
	l.SetLevel(logrus.ErrorLevel)
	l.SetOutput(io.Discard)
	return l
}

func fastBootstrapConfig() BootstrapConfig {
	cfg := DefaultBootstrapConfig()
	cfg.PollInterval = time.Millisecond
	cfg.PollAttempts = 5
	return cfg
}

func newKit(t *testing.T) *kit {
	t.Helper()

	l := testLogger()
	ledger := ledgertest.New()
	issuer, e := MakeIssuer("TZS", "")
	require.NoError(t, e)
	registry := MakeAssetRegistry(TestnetUSDCIssuer, issuer)
	agent := MakeDexAgent(ledger, ledger.Passphrase, nil, l)

	return &kit{
		ledger:    ledger,
		issuer:    issuer,
		registry:  registry,
		agent:     agent,
		router:    MakePaymentRouter(agent, registry, FirstPath, l),
		accounts:  MakeAccountManager(agent, ledger, registry, issuer, l),
		bootstrap: MakeLiquidityBootstrap(agent, ledger, issuer, fastBootstrapConfig(), l),
		watcher: MakeDexWatcher(ledger, registry, DefaultTradingPairs("TZS"), &FallbackRate{
			Pair: TradingPair{Base: SymbolXLM, Counter: "TZS"},
			Rate: decimal.NewFromInt(1000),
		}, l),
	}
}

// funded creates an account on the fake ledger holding xlm lumens
func (k *kit) funded(t *testing.T, xlm string) *keypair.Full {
	t.Helper()
	kp := keypair.MustRandom()
	k.ledger.AddAccount(kp.Address(), xlm)
	return kp
}
