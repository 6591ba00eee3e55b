package utils

import (
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
)

var once sync.Once

// InitLogger installs a tinted slog handler as the default logger.
func InitLogger(level slog.Leveler) {
	once.Do(func() {
		handler := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		})
		slog.SetDefault(slog.New(handler))
	})
}
