package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logrus.Info(".env not found, using process environment")
			return
		}
		logrus.Warnf(".env not loaded: %v", err)
	}
}
