package main

import (
	"github.com/mobpsycho100/yatube/config"
	"github.com/mobpsycho100/yatube/models"
	"github.com/mobpsycho100/yatube/routes"
	"github.com/mobpsycho100/yatube/storage/gormstore"
	"github.com/mobpsycho100/yatube/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Group{}, &models.Post{})
	store := gormstore.New(db)

	r := routes.SetupRouter(store)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.RunServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
