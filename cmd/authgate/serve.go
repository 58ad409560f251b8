package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	netmail "net/mail"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Goofygiraffe06/authgate/api"
	"github.com/Goofygiraffe06/authgate/internal/config"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/mail"
	"github.com/Goofygiraffe06/authgate/internal/workerpool"
	"github.com/Goofygiraffe06/authgate/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the web application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	logging.InfoLog("Starting authgate server")

	b := &backend{}
	defer b.Close()
	if err := b.openProvider(ctx); err != nil {
		return err
	}
	if err := b.openCodes(ctx); err != nil {
		return err
	}

	pool := workerpool.New("mail", workerpool.Options{
		Workers:   config.MailWorkerCount(),
		QueueSize: config.WorkerQueueSize(),
	})
	defer pool.Close()

	notifier, err := newNotifier(ctx, pool)
	if err != nil {
		return err
	}

	app, err := web.NewHandler(web.NewClient(config.APIInvokeURL(), nil), "/app")
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Deps{
		Auth:          b.provider,
		Users:         b.provider,
		Codes:         b.codes,
		Notifier:      notifier,
		AllowedOrigin: config.IdentityDomain(),
		CodeTTL:       config.VerificationTTL(),
		MaxBodyBytes:  config.MaxRequestBodyBytes(),
		RefreshMaxAge: config.JWTRefreshExpiresIn(),
		Ready:         b.ready,
		Web:           app,
	})

	srv := &http.Server{
		Addr:              ":" + config.Port(),
		Handler:           router,
		ReadTimeout:       config.ServerReadTimeout(),
		ReadHeaderTimeout: config.ServerReadHeaderTimeout(),
		WriteTimeout:      config.ServerWriteTimeout(),
		IdleTimeout:       config.ServerIdleTimeout(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logging.InfoLog("authgate listening on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.InfoLog("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newNotifier wires mail delivery. Without SMTP_ADDR mail is logged and
// dropped.
func newNotifier(ctx context.Context, pool *workerpool.Pool) (*mail.Dispatcher, error) {
	from, err := netmail.ParseAddress(config.MailFrom())
	if err != nil {
		return nil, fmt.Errorf("invalid MAIL_FROM: %w", err)
	}
	domain := from.Address[strings.LastIndex(from.Address, "@")+1:]

	var transport mail.Transport = mail.LogTransport{}
	if addr := config.SMTPAddr(); addr != "" {
		transport = &mail.SMTPTransport{
			Addr:     addr,
			Username: config.SMTPUsername(),
			Password: config.SMTPPassword(),
			StartTLS: config.SMTPStartTLS(),
			Timeout:  30 * time.Second,
		}
		logging.InfoLog("Mail relay %s", addr)
	} else {
		logging.WarnLog("SMTP_ADDR not set; verification mail will not be delivered")
	}

	var signer *mail.Signer
	if sel, keyFile := config.DKIMSelector(), config.DKIMPrivateKeyFile(); sel != "" && keyFile != "" {
		if signer, err = mail.LoadSigner(domain, sel, keyFile); err != nil {
			return nil, err
		}
		logging.InfoLog("DKIM signing enabled for %s (selector=%s)", domain, sel)
	}

	if ip := config.MailSPFCheckIP(); ip != "" {
		// advisory only
		_, _ = mail.CheckSPF(ctx, ip, from.Address)
	}

	return mail.NewDispatcher(pool, transport, mail.Options{
		From:   config.MailFrom(),
		AppURL: config.AppURL(),
		Signer: signer,
	})
}
