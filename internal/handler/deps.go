package handler

import (
	"livesync/internal/app/bootstrap"
	"livesync/internal/configs"
)

type AppDeps struct {
	Session *bootstrap.Session
	Config  *configs.AppConfig
}
