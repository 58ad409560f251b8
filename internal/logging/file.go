package logging

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// rotatingFile is the JSON log sink shared by the dev and prod builds.
func rotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		Compress:   true,
	}
}
