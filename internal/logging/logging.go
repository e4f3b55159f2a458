package logging

import (
	"fmt"

	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New arma el logger según el entorno: JSON en producción, consola con colores en desarrollo
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("error creando logger: %w", err)
	}
	return logger, nil
}

// whatsAppLogger adapta zap a la interfaz de logs de whatsmeow
type whatsAppLogger struct {
	s *zap.SugaredLogger
}

// WhatsApp devuelve un waLog.Logger que escribe en zap bajo el módulo indicado
func WhatsApp(logger *zap.Logger, module string) waLog.Logger {
	return &whatsAppLogger{s: logger.Named(module).Sugar()}
}

func (l *whatsAppLogger) Warnf(msg string, args ...interface{})  { l.s.Warnf(msg, args...) }
func (l *whatsAppLogger) Errorf(msg string, args ...interface{}) { l.s.Errorf(msg, args...) }
func (l *whatsAppLogger) Infof(msg string, args ...interface{})  { l.s.Infof(msg, args...) }
func (l *whatsAppLogger) Debugf(msg string, args ...interface{}) { l.s.Debugf(msg, args...) }

func (l *whatsAppLogger) Sub(module string) waLog.Logger {
	return &whatsAppLogger{s: l.s.Named(module)}
}
