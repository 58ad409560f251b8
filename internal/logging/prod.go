//go:build !dev
// +build !dev

package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func InitLogger(logFilePath string) (io.Closer, error) {
	file := rotatingFile(logFilePath)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder

	// JSON to the rotated file, and to stdout unless a human is watching
	var console zapcore.Encoder
	if isatty.IsTerminal(os.Stdout.Fd()) {
		console = zapcore.NewConsoleEncoder(encCfg)
	} else {
		console = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.InfoLevel),
		zapcore.NewCore(console, zapcore.Lock(os.Stdout), zapcore.InfoLevel),
	)
	SetLogger(zap.New(core, zap.AddCaller()))

	return file, nil
}
