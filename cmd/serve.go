package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/support/log"
	"golang.org/x/sync/errgroup"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/api"
	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/gateway"
	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/metrics"
	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/modules"
)

const serveExamples = `  tradelink serve
  tradelink serve --conf ./gateway.cfg --port 8080 --log ./logs/tradelink`

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Runs the payment gateway HTTP API and seeds the custom asset's liquidity",
	Example: serveExamples,
}

func init() {
	// short flags
	configPath := serveCmd.Flags().StringP("conf", "c", "", "gateway config file path (toml); environment variables and .env override it")
	logPrefix := serveCmd.Flags().StringP("log", "l", "", "log to a file (and stdout) with this prefix for the filename")
	// long-only flags
	port := serveCmd.Flags().Int("port", 0, "port to listen on, overrides PORT")
	skipBootstrap := serveCmd.Flags().Bool("skipBootstrap", false, "do not fund the issuer or place the custom asset offers at start")
	serveCmd.Flags().SortFlags = false

	serveCmd.RunE = func(ccmd *cobra.Command, args []string) error {
		cfg, e := gateway.LoadConfig(*configPath)
		if e != nil {
			return e
		}
		if *port != 0 {
			cfg.Port = *port
			if e = cfg.Init(); e != nil {
				return e
			}
		}

		l := log.New()
		l.SetLevel(cfg.Level())
		if *logPrefix != "" {
			t := time.Now().Format("20060102T150405MST")
			fileName := fmt.Sprintf("%s_%s.log", *logPrefix, t)
			f, e := setLogFile(l, fileName)
			if e != nil {
				return e
			}
			defer f.Close()
			l.Infof("logging to file: %s", fileName)
		}

		l.Infof("Starting TradeLink %s [%s]", version, gitHash)
		l.Info(cfg.String())

		return runServer(ccmd.Context(), cfg, *skipBootstrap, l)
	}
}

func runServer(parent context.Context, cfg *gateway.GatewayConfig, skipBootstrap bool, l *log.Entry) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}
	client := &horizonclient.Client{
		HorizonURL: cfg.HorizonURL,
		HTTP:       httpClient,
	}
	friendbot := client
	if base := cfg.FriendbotBaseURL(); base != cfg.HorizonURL {
		friendbot = &horizonclient.Client{
			HorizonURL: base,
			HTTP:       httpClient,
		}
	}
	faucet := modules.MakeFaucet(friendbot, l.WithField("pkg", "faucet"))

	g, e := gateway.MakeGateway(cfg, client, faucet, l)
	if e != nil {
		return errors.Wrap(e, "could not make the gateway")
	}
	rec := metrics.MakeRecorder()
	srv := newHTTPServer(
		ctx,
		":"+strconv.Itoa(cfg.Port),
		api.MakeServer(g, rec, version, l.WithField("pkg", "api")).Handler(),
		cfg.HTTPTimeout(),
	)
	ln, e := net.Listen("tcp", srv.Addr)
	if e != nil {
		return errors.Wrapf(e, "could not listen on %s", srv.Addr)
	}

	if skipBootstrap {
		l.Warn("skipping the liquidity bootstrap, conversions to the custom asset need existing offers")
	} else {
		g.Start(ctx)
	}

	e = serve(ctx, srv, ln, l)
	g.Wait()
	return e
}

// newHTTPServer derives every request context from ctx, so open rate streams end when ctx does
func newHTTPServer(ctx context.Context, addr string, handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

// serve runs srv on ln until ctx is done or the server fails, then shuts it down
func serve(ctx context.Context, srv *http.Server, ln net.Listener, l *log.Entry) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		l.Infof("listening on %s", ln.Addr())
		if e := srv.Serve(ln); e != nil && !errors.Is(e, http.ErrServerClosed) {
			return errors.Wrap(e, "http server stopped")
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func setLogFile(l *log.Entry, fileName string) (io.Closer, error) {
	f, e := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if e != nil {
		return nil, fmt.Errorf("failed to set log file: %s", e)
	}
	l.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}
