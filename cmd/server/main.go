package main

import (
	"github.com/OFFIS-RIT/factgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/factgraph/internal/server"
	"github.com/OFFIS-RIT/factgraph/internal/util"
)

func main() {
	util.LoadEnv()
	bootstrap.InitLogger("")

	server.Init()
}
