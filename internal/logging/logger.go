package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/kdblegal/kdbweb/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const sentryFlushTimeout = 2 * time.Second

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logrus logger. The returned func flushes
// buffered sentry events and should run before the process exits.
func Setup(params LoggerSetupParams) (flush func()) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))
	logrus.AddHook(NewFieldsHook(logrus.Fields{
		"service": params.SentryServerName,
		"env":     params.Environment,
	}))

	flush = func() {}
	if params.SentryEnabled && params.SentryDSN != "" {
		if err := setupSentry(params); err != nil {
			logrus.Errorf("sentry init: %s", err)
		} else {
			flush = func() { sentry.Flush(sentryFlushTimeout) }
			logrus.Infoln("sentry set up successfully")
		}
	}

	out, description := output(params)
	logrus.SetOutput(out)
	logrus.Printf("writing logs to %s", description)

	return flush
}

func setupSentry(params LoggerSetupParams) error {
	if err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 0.2,
		ServerName:       params.SentryServerName,
	}); err != nil {
		return err
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	return nil
}

func output(params LoggerSetupParams) (io.Writer, string) {
	if params.LogFileName == "" {
		return os.Stdout, "STDOUT only"
	}

	fileName := params.LogFileName
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}

	rotating := &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}

	if params.LogToStdout {
		return pkg.NewCombinedWriter(os.Stdout, rotating), fileName + " and STDOUT"
	}
	return rotating, fileName
}

func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "info":
		return logrus.InfoLevel
	case "trace":
		return logrus.TraceLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

// FieldsHook stamps fixed fields on every entry that does not set them.
type FieldsHook struct {
	fields logrus.Fields
}

var _ logrus.Hook = (*FieldsHook)(nil)

func NewFieldsHook(fields logrus.Fields) *FieldsHook {
	nonEmpty := logrus.Fields{}
	for k, v := range fields {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		nonEmpty[k] = v
	}
	return &FieldsHook{fields: nonEmpty}
}

func (h *FieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *FieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, set := entry.Data[k]; !set {
			entry.Data[k] = v
		}
	}
	return nil
}
