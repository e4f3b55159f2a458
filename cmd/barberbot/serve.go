package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"barberbot/internal/access"
	"barberbot/internal/admin"
	"barberbot/internal/assistant"
	"barberbot/internal/booking"
	"barberbot/internal/calendar"
	"barberbot/internal/chat"
	"barberbot/internal/config"
	"barberbot/internal/logging"
	"barberbot/internal/whatsapp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Conecta a WhatsApp y atiende los mensajes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("🚀 Iniciando barberbot", zap.String("version", Version), zap.String("env", cfg.Env))

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error abriendo sesiones: %w", err)
	}
	defer store.Close()

	gate := access.NewGate(cfg.AllowList())
	if gate.Size() == 0 {
		logger.Warn("⚠️  AUTHORIZED_NUMBERS vacío: no se va a responder a nadie")
	}

	cal := calendar.NewClient(cfg.BookingWebhook(), cfg.MakeGetFromCalendar,
		time.Duration(cfg.WebhookTimeoutSecs)*time.Second, logger.Named("calendar"))

	ai, err := assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger.Named("gemini"))
	if err != nil {
		return err
	}
	defer ai.Close()

	machine := booking.NewMachine(cal, logger.Named("booking"))
	orchestrator := chat.NewOrchestrator(gate, machine, ai, store, logger.Named("chat"),
		chat.WithWelcomeMedia(cfg.WelcomeMediaURL))

	wa, err := whatsapp.NewClient(ctx, cfg.WhatsAppDBPath, store, logger.Named("whatsapp"))
	if err != nil {
		return err
	}
	defer wa.Close()

	wa.Start(ctx, orchestrator)
	if err := wa.Connect(ctx); err != nil {
		return err
	}

	srv, err := admin.New(admin.Options{
		Addr:       cfg.AdminAddr,
		Store:      store,
		Gate:       gate,
		Logger:     logger.Named("admin"),
		RatePerMin: cfg.AdminRatePerMin,
	})
	if err != nil {
		return err
	}

	logger.Info("✅ Bot listo", zap.Int("authorizedNumbers", gate.Size()))
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("👋 Apagando barberbot")
	return nil
}
