package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"livesync/internal/app/bootstrap"
	"livesync/internal/app/db"
	"livesync/internal/app/model"
	"livesync/internal/app/state"
	"livesync/internal/app/storage"
	"livesync/internal/configs"
	"livesync/internal/handler"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/logx"
)

var (
	email    string
	password string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Restore or log in a session and keep it synchronized until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configs.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logx.InitGlobalLogger(cfg.IsDevelopment())
		logx.Logger().Info().
			Str("environment", cfg.Environment).
			Str("api_url", cfg.APIURL).
			Bool("attachments", cfg.AttachmentsEnabled()).
			Bool("postgres_state", cfg.DatabaseDSN != "").
			Msg("Configuration loaded successfully")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&email, "email", "e", "", "account email, used when no session can be restored")
	runCmd.Flags().StringVarP(&password, "password", "p", "", "account password")
}

func run(ctx context.Context, cfg *configs.AppConfig, in io.Reader, out io.Writer) error {
	st, closeState, err := openState(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeState()

	var uploads storage.Service
	if cfg.AttachmentsEnabled() {
		uploads, err = storage.NewService(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3PublicURL:       cfg.S3PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize attachment storage: %w", err)
		}
	}

	sess, err := bootstrap.New(bootstrap.Options{
		APIURL:         cfg.APIURL,
		WSURL:          cfg.WSURL,
		RequestTimeout: cfg.RequestTimeout,
		OTPCooldown:    cfg.OTPCooldown,
		State:          st,
		Storage:        uploads,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	if !sess.Init(ctx) {
		// An unreachable service is not a missing session.
		if errs.Is(sess.Auth.Err(), errs.ErrInternal) {
			return storeErr("restore session", sess.Auth.Err())
		}
		if err := login(ctx, sess, in, out); err != nil {
			return err
		}
	}

	var server *http.Server
	if cfg.InspectAddr != "" {
		server = &http.Server{
			Addr:         cfg.InspectAddr,
			Handler:      handler.Router(ctx, &handler.AppDeps{Session: sess, Config: cfg}),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			logx.Info("Inspection API listening", "addr", cfg.InspectAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Error(err, "Inspection API failed")
			}
		}()
	}

	<-ctx.Done()
	logx.Info("Received shutdown signal. Closing session...")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logx.Error(err, "Inspection API forced to shutdown")
		}
	}

	return nil
}

// openState picks Postgres when a DSN is configured and the state directory otherwise.
func openState(ctx context.Context, cfg *configs.AppConfig) (state.Store, func(), error) {
	if cfg.DatabaseDSN == "" {
		fs, err := state.NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return state.NewPostgresStore(pool), pool.Close, nil
}

// login runs the email, password and OTP flow. A verified login hydrates the session.
func login(ctx context.Context, sess *bootstrap.Session, in io.Reader, out io.Writer) error {
	if email == "" || password == "" {
		return fmt.Errorf("no session to restore: --email and --password are required")
	}

	sent, ok := sess.Auth.Login(ctx, model.AuthRequest{Email: email, Password: password})
	if !ok {
		return storeErr("login", sess.Auth.Err())
	}

	fmt.Fprintf(out, "Enter the code sent to %s: ", email)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("no verification code entered")
	}

	_, ok = sess.Auth.VerifyOTP(ctx, model.VerifyOTPRequest{
		UserID: sent.UserID,
		Code:   strings.TrimSpace(scanner.Text()),
		Action: model.OTPLogin,
	})
	if !ok {
		return storeErr("verify", sess.Auth.Err())
	}

	return nil
}

func storeErr(op string, e *errs.CustomError) error {
	if e == nil {
		return fmt.Errorf("%s failed", op)
	}
	return fmt.Errorf("%s failed: %w", op, e)
}
